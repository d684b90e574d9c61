package formatter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/younsl/idlemon/internal/models"
)

// PrintDirectoriesTable prints stale S3 directories as a table
func PrintDirectoriesTable(w io.Writer, bucket, prefix string, directories []models.DirectoryInfo) {
	printHeading(w, fmt.Sprintf("Stale S3 Directories (s3://%s/%s)", bucket, prefix))

	if len(directories) == 0 {
		fmt.Fprintln(w, "No stale directories found.")
		return
	}

	// Setup tabwriter for kubernetes style tables
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "NAME\tOBJECTS\tSIZE\tLAST MODIFIED\tIDLE DAYS\tCOST/MO\tPRICING")

	for _, dir := range directories {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			Truncate(dir.Name, maxNameWidth),
			humanize.Comma(dir.ObjectCount),
			humanize.IBytes(uint64(dir.Size)),
			dir.LastModified.Format("2006-01-02"),
			dir.IdleDays,
			formatCost(dir.EstimatedMonthlyCost, dir.PricingSource),
			GetPricingMarker(dir.PricingSource),
		)
	}

	printDirectoryTotals(tw, directories)

	tw.Flush()
}

// printDirectoryTotals prints the summary information at the bottom of the table
func printDirectoryTotals(w io.Writer, directories []models.DirectoryInfo) {
	var totalObjects, totalSize int64
	var totalCost float64
	var priced int

	for _, dir := range directories {
		totalObjects += dir.ObjectCount
		totalSize += dir.Size
		totalCost += dir.EstimatedMonthlyCost
		if hasPrice(dir.PricingSource) {
			priced++
		}
	}

	fmt.Fprintf(w, "Total: %d\t%s\t%s\t\t\t%s\t\n",
		len(directories),
		humanize.Comma(totalObjects),
		humanize.IBytes(uint64(totalSize)),
		formatTotalCost(totalCost, priced),
	)
}

// PrintDirectoriesSummary prints the age breakdown of stale directories
func PrintDirectoriesSummary(w io.Writer, directories []models.DirectoryInfo) {
	if len(directories) == 0 {
		return
	}

	var d90, d180, d365, older int
	for _, dir := range directories {
		switch {
		case dir.IdleDays <= 90:
			d90++
		case dir.IdleDays <= 180:
			d180++
		case dir.IdleDays <= 365:
			d365++
		default:
			older++
		}
	}

	printHeading(w, "Age Breakdown")

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "<= 90 days:\t%d directories\n", d90)
	fmt.Fprintf(tw, "91-180 days:\t%d directories\n", d180)
	fmt.Fprintf(tw, "181-365 days:\t%d directories\n", d365)
	fmt.Fprintf(tw, "> 365 days:\t%d directories\n", older)
	tw.Flush()

	if d365+older > 0 {
		printHeading(w, "Recommendations")
		fmt.Fprintln(w, "- Consider a lifecycle rule transitioning directories idle for over 180 days to GLACIER")
	}
}
