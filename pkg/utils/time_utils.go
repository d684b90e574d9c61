package utils

import (
	"time"
)

// CalculateElapsedDays calculates the number of whole days between since and now
func CalculateElapsedDays(since, now time.Time) int {
	if since.IsZero() || since.After(now) {
		return 0
	}
	return int(now.Sub(since).Hours() / 24)
}

// GetMonthlyHours returns the number of hours in a month (approximation)
func GetMonthlyHours() float64 {
	return 730.0 // 365 days / 12 months * 24 hours
}
