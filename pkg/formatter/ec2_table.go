package formatter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/younsl/idlemon/internal/models"
	"github.com/younsl/idlemon/pkg/utils"
)

// PrintInstancesTable prints a formatted table of idle EC2 instances
func PrintInstancesTable(w io.Writer, instances []models.InstanceInfo) {
	printHeading(w, "Idle EC2 Instances")

	if len(instances) == 0 {
		fmt.Fprintln(w, "No idle instances found.")
		return
	}

	// kubectl 스타일 tabwriter 설정
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)

	fmt.Fprintln(tw, "INSTANCE ID\tNAME\tTYPE\tAPP\tOWNER\tLAUNCHED\tDATAPOINTS\tPEAK AVG\tPEAK MAX\tCOST/MO\tPRICING")

	for _, instance := range instances {
		launched := "Unknown"
		if !instance.LaunchTime.IsZero() {
			launched = instance.LaunchTime.Format("2006-01-02")
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\t%.2f%%\t%.2f%%\t%s\t%s\n",
			instance.InstanceID,
			Truncate(utils.SafeDeref(instance.Name, "<unnamed>"), maxNameWidth),
			instance.InstanceType,
			utils.SafeDeref(instance.App, "-"),
			utils.SafeDeref(instance.Owner, "-"),
			launched,
			instance.Datapoints,
			instance.PeakAverage,
			instance.PeakMaximum,
			formatCost(instance.EstimatedMonthlyCost, instance.PricingSource),
			GetPricingMarker(instance.PricingSource),
		)
	}

	printInstanceTotals(tw, instances)

	tw.Flush()
}

// printInstanceTotals prints the summary information at the bottom of the table
func printInstanceTotals(w io.Writer, instances []models.InstanceInfo) {
	var totalMonthlyCost float64
	var priced int
	for _, instance := range instances {
		totalMonthlyCost += instance.EstimatedMonthlyCost
		if hasPrice(instance.PricingSource) {
			priced++
		}
	}

	fmt.Fprintf(w, "Total: %d\t\t\t\t\t\t\t\t\t%s\t\n", len(instances), formatTotalCost(totalMonthlyCost, priced))
}

// PrintInstancesSummary displays idle instances grouped by type and owner
func PrintInstancesSummary(w io.Writer, instances []models.InstanceInfo) {
	if len(instances) == 0 {
		return
	}

	printHeading(w, "Idle EC2 Instances Summary")

	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTANCE TYPE\tINSTANCE COUNT\tCOST/MO")

	// Candidates arrive sorted by type, so equal types are adjacent
	for i := 0; i < len(instances); {
		j := i
		var cost float64
		var priced int
		for j < len(instances) && instances[j].InstanceType == instances[i].InstanceType {
			cost += instances[j].EstimatedMonthlyCost
			if hasPrice(instances[j].PricingSource) {
				priced++
			}
			j++
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", instances[i].InstanceType, j-i, formatTotalCost(cost, priced))
		i = j
	}

	tw.Flush()

	var untagged int
	for _, instance := range instances {
		if instance.Owner == nil {
			untagged++
		}
	}
	if untagged > 0 {
		fmt.Fprintf(w, "%d of %d idle instances have no Owner tag\n", untagged, len(instances))
	}
}
