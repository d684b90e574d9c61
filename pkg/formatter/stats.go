package formatter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/younsl/idlemon/pkg/pricing"
)

// PrintPricingAPIStats prints the statistics of pricing API calls
func PrintPricingAPIStats(w io.Writer, stats []pricing.CallStats) {
	if len(stats) == 0 {
		return
	}

	printHeading(w, "AWS Pricing API Call Statistics")

	// Use tabwriter for clean tabular output
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "SERVICE\tREGION\tAPI CALLS\tSUCCESS\tFAILURE\tCACHE HITS\tSUCCESS RATE")

	for _, s := range stats {
		total := s.Success + s.Failure

		successRate := 0.0
		if total > 0 {
			successRate = float64(s.Success) / float64(total) * 100.0
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%.1f%%\n",
			s.Service,
			s.Region,
			total,
			s.Success,
			s.Failure,
			s.Cache,
			successRate,
		)
	}

	tw.Flush()
}
