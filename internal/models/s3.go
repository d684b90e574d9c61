package models

import "time"

// CurrentDirName is the directory objects directly under the audited prefix are folded into
const CurrentDirName = "_current_dir"

// DirectoryInfo aggregates the objects under one first-level directory of a prefix
type DirectoryInfo struct {
	Name         string    `json:"name" yaml:"name"`
	Bucket       string    `json:"bucket" yaml:"bucket"`
	Prefix       string    `json:"prefix" yaml:"prefix"`
	LastModified time.Time `json:"lastModified" yaml:"lastModified"` // Latest modification among the directory's objects
	Size         int64     `json:"size" yaml:"size"`                 // in bytes
	ObjectCount  int64     `json:"objectCount" yaml:"objectCount"`
	IdleDays     int       `json:"idleDays" yaml:"idleDays"`

	EstimatedMonthlyCost float64 `json:"estimatedMonthlyCost,omitempty" yaml:"estimatedMonthlyCost,omitempty"`
	PricingSource        string  `json:"pricingSource,omitempty" yaml:"pricingSource,omitempty"`
}
