package formatter

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
)

// maxNameWidth is the widest a Name column may grow before truncation
const maxNameWidth = 32

var headingColor = color.New(color.FgCyan, color.Bold)

// printHeading prints a section heading
func printHeading(w io.Writer, title string) {
	fmt.Fprintln(w)
	headingColor.Fprintf(w, "## %s\n", title)
}

// PrintTimestamp prints the scan timestamp and duration
func PrintTimestamp(w io.Writer, scanStartTime time.Time, scanDuration time.Duration) {
	fmt.Fprintf(w, "Scan completed at %s (took %.2fs)\n",
		scanStartTime.Format("2006-01-02 15:04:05"),
		scanDuration.Seconds())
}

// GetPricingMarker returns a suitable marker for the pricing source
func GetPricingMarker(source string) string {
	switch source {
	case "API":
		return "API"
	case "Cache":
		return "CACHE"
	case "Default":
		return "DEFAULT"
	case "N/A":
		return "N/A"
	default:
		return "-"
	}
}

// formatCost renders a monthly cost, or N/A when no price was found
func formatCost(cost float64, source string) string {
	if !hasPrice(source) {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", cost)
}

// formatTotalCost renders a totals cell, or N/A when no row was priced
func formatTotalCost(total float64, priced int) string {
	if priced == 0 {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", total)
}

func hasPrice(source string) bool {
	return source != "" && source != "N/A"
}
