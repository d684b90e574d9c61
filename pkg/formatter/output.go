package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/younsl/idlemon/internal/models"
	"github.com/younsl/idlemon/pkg/pricing"
)

// Report is the machine-readable result of one audit run
type Report struct {
	GeneratedAt  time.Time           `json:"generatedAt" yaml:"generatedAt"`
	Region       string              `json:"region" yaml:"region"`
	Instances    *InstanceSection    `json:"instances,omitempty" yaml:"instances,omitempty"`
	Storage      *StorageSection     `json:"storage,omitempty" yaml:"storage,omitempty"`
	PricingStats []pricing.CallStats `json:"pricingStats,omitempty" yaml:"pricingStats,omitempty"`
}

// InstanceSection holds the compute audit result
type InstanceSection struct {
	ThresholdPercent float64               `json:"thresholdPercent" yaml:"thresholdPercent"`
	Candidates       []models.InstanceInfo `json:"candidates" yaml:"candidates"`
}

// StorageSection holds the storage audit result
type StorageSection struct {
	Bucket        string                 `json:"bucket" yaml:"bucket"`
	Prefix        string                 `json:"prefix" yaml:"prefix"`
	ThresholdDays int                    `json:"thresholdDays" yaml:"thresholdDays"`
	Candidates    []models.DirectoryInfo `json:"candidates" yaml:"candidates"`
}

// WriteReport renders report in the requested format: table, json or yaml
func WriteReport(w io.Writer, format string, report Report) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		writeTables(w, report)
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeTables(w io.Writer, report Report) {
	if report.Instances != nil {
		PrintInstancesTable(w, report.Instances.Candidates)
		PrintInstancesSummary(w, report.Instances.Candidates)
	}
	if report.Storage != nil {
		PrintDirectoriesTable(w, report.Storage.Bucket, report.Storage.Prefix, report.Storage.Candidates)
		PrintDirectoriesSummary(w, report.Storage.Candidates)
	}
	PrintPricingAPIStats(w, report.PricingStats)
}
