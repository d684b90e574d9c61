package models

import "time"

// InstanceInfo represents an EC2 instance as seen by the compute auditor
type InstanceInfo struct {
	InstanceID   string    `json:"instanceId" yaml:"instanceId"`
	State        string    `json:"state" yaml:"state"`
	ImageID      string    `json:"imageId" yaml:"imageId"`
	InstanceType string    `json:"instanceType" yaml:"instanceType"`
	LaunchTime   time.Time `json:"launchTime,omitempty" yaml:"launchTime,omitempty"`
	Region       string    `json:"region,omitempty" yaml:"region,omitempty"`

	// Tag values are nil when the instance does not carry the tag
	Name  *string `json:"name,omitempty" yaml:"name,omitempty"`
	App   *string `json:"app,omitempty" yaml:"app,omitempty"`
	Owner *string `json:"owner,omitempty" yaml:"owner,omitempty"`

	// Utilization summary, filled in for idle candidates only
	Datapoints  int     `json:"datapoints,omitempty" yaml:"datapoints,omitempty"`
	PeakAverage float64 `json:"peakAverage,omitempty" yaml:"peakAverage,omitempty"`
	PeakMaximum float64 `json:"peakMaximum,omitempty" yaml:"peakMaximum,omitempty"`

	EstimatedMonthlyCost float64 `json:"estimatedMonthlyCost,omitempty" yaml:"estimatedMonthlyCost,omitempty"`
	PricingSource        string  `json:"pricingSource,omitempty" yaml:"pricingSource,omitempty"` // "API", "Cache", "Default" or "N/A"
}

// Datapoint is a single CPUUtilization reading over one period. Average is
// nil when CloudWatch returned no value for it.
type Datapoint struct {
	Timestamp time.Time
	Average   *float64
	Maximum   float64
}
