package pricing

import "sort"

// Stats returns a copy of the Pricing API call statistics, ordered by service
func (e *Estimator) Stats() []CallStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	stats := make([]CallStats, 0, len(e.stats))
	for _, s := range e.stats {
		stats = append(stats, *s)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Service != stats[j].Service {
			return stats[i].Service < stats[j].Service
		}
		return stats[i].Region < stats[j].Region
	})
	return stats
}
