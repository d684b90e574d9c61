// Package config holds the idlemon run configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Defaults used when a field is left empty.
const (
	DefaultRoleARN         = "arn:aws:iam::753531232501:role/team-data-role"
	DefaultSessionName     = "team-data-role"
	DefaultRegion          = "us-east-1"
	DefaultCPUThreshold    = 1.0
	DefaultTimeRange       = 360 // minutes
	DefaultPeriod          = 360 // minutes
	DefaultBucket          = "data-team.scratch"
	DefaultPrefix          = "qlyu"
	DefaultRetentionDays   = 85
	DefaultArchivalClass   = "GLACIER"
	DefaultOutput          = "table"
	DefaultLogLevel        = "info"
	maxDatapointsPerPeriod = 1000
)

// Config is the root configuration structure.
type Config struct {
	Region  string        `json:"region" yaml:"region" toml:"region"`
	Profile string        `json:"profile" yaml:"profile" toml:"profile"`
	Role    RoleConfig    `json:"role" yaml:"role" toml:"role"`
	Compute ComputeConfig `json:"compute" yaml:"compute" toml:"compute"`
	Storage StorageConfig `json:"storage" yaml:"storage" toml:"storage"`
	Pricing PricingConfig `json:"pricing" yaml:"pricing" toml:"pricing"`
	Metrics MetricsConfig `json:"metrics" yaml:"metrics" toml:"metrics"`
	Log     LogConfig     `json:"log" yaml:"log" toml:"log"`
	Output  string        `json:"output" yaml:"output" toml:"output"`
}

// RoleConfig identifies the IAM role both auditors assume.
type RoleConfig struct {
	ARN         string `json:"arn" yaml:"arn" toml:"arn"`
	SessionName string `json:"session_name" yaml:"session_name" toml:"session_name"`
	// Session length in seconds. Zero leaves it to STS (one hour).
	DurationSeconds int32 `json:"duration_seconds" yaml:"duration_seconds" toml:"duration_seconds"`
}

// ComputeConfig controls the idle EC2 instance audit.
type ComputeConfig struct {
	Enabled          bool    `json:"enabled" yaml:"enabled" toml:"enabled"`
	ThresholdPercent float64 `json:"threshold_percent" yaml:"threshold_percent" toml:"threshold_percent"`
	TimeRangeMinutes int     `json:"time_range_minutes" yaml:"time_range_minutes" toml:"time_range_minutes"`
	PeriodMinutes    int     `json:"period_minutes" yaml:"period_minutes" toml:"period_minutes"`
}

// StorageConfig controls the stale S3 directory audit.
type StorageConfig struct {
	Enabled         bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Bucket          string   `json:"bucket" yaml:"bucket" toml:"bucket"`
	Prefix          string   `json:"prefix" yaml:"prefix" toml:"prefix"`
	ThresholdDays   int      `json:"threshold_days" yaml:"threshold_days" toml:"threshold_days"`
	ArchivalClasses []string `json:"archival_classes" yaml:"archival_classes" toml:"archival_classes"`
}

// PricingConfig toggles cost estimates in the report.
type PricingConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled" toml:"enabled"`
}

// MetricsConfig controls the Prometheus textfile export. An empty path disables it.
type MetricsConfig struct {
	Textfile string `json:"textfile" yaml:"textfile" toml:"textfile"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `json:"level" yaml:"level" toml:"level"`
}

// Default returns the configuration used when idlemon runs without a config file.
func Default() *Config {
	return &Config{
		Region: DefaultRegion,
		Role: RoleConfig{
			ARN:         DefaultRoleARN,
			SessionName: DefaultSessionName,
		},
		Compute: ComputeConfig{
			Enabled:          true,
			ThresholdPercent: DefaultCPUThreshold,
			TimeRangeMinutes: DefaultTimeRange,
			PeriodMinutes:    DefaultPeriod,
		},
		Storage: StorageConfig{
			Enabled:         true,
			Bucket:          DefaultBucket,
			Prefix:          DefaultPrefix,
			ThresholdDays:   DefaultRetentionDays,
			ArchivalClasses: []string{DefaultArchivalClass},
		},
		Pricing: PricingConfig{Enabled: true},
		Log:     LogConfig{Level: DefaultLogLevel},
		Output:  DefaultOutput,
	}
}

// Load reads a TOML, YAML or JSON file on top of the defaults.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		// Decode through a map so keys missing from the file keep their defaults.
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
		raw, err := json.Marshal(tree.ToMap())
		if err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("error parsing TOML file: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing YAML file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("error parsing JSON file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	applyDefaults(cfg)
	return cfg, nil
}

// applyDefaults fills fields a config file explicitly blanked out.
func applyDefaults(cfg *Config) {
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}
	if cfg.Role.SessionName == "" {
		cfg.Role.SessionName = DefaultSessionName
	}
	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Storage.ArchivalClasses == nil {
		cfg.Storage.ArchivalClasses = []string{DefaultArchivalClass}
	}
}

// Validate checks the configuration is usable before any AWS call is made.
func (c *Config) Validate() error {
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if c.Role.ARN == "" {
		return fmt.Errorf("role: arn is required")
	}
	if !strings.HasPrefix(c.Role.ARN, "arn:") {
		return fmt.Errorf("role: %q is not an ARN", c.Role.ARN)
	}
	if c.Role.DurationSeconds != 0 && (c.Role.DurationSeconds < 900 || c.Role.DurationSeconds > 43200) {
		return fmt.Errorf("role: duration_seconds must be between 900 and 43200 (got %d)", c.Role.DurationSeconds)
	}

	if c.Compute.Enabled {
		if c.Compute.ThresholdPercent <= 0 || c.Compute.ThresholdPercent > 100 {
			return fmt.Errorf("compute: threshold_percent must be in (0, 100] (got %v)", c.Compute.ThresholdPercent)
		}
		if c.Compute.TimeRangeMinutes <= 0 || c.Compute.PeriodMinutes <= 0 {
			return fmt.Errorf("compute: time_range_minutes and period_minutes must be positive")
		}
		if float64(c.Compute.TimeRangeMinutes)/float64(c.Compute.PeriodMinutes) > maxDatapointsPerPeriod {
			return fmt.Errorf("compute: time_range_minutes/period_minutes exceeds %d datapoints", maxDatapointsPerPeriod)
		}
	}

	if c.Storage.Enabled {
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage: bucket is required")
		}
		if c.Storage.ThresholdDays < 0 {
			return fmt.Errorf("storage: threshold_days must not be negative (got %d)", c.Storage.ThresholdDays)
		}
	}

	if c.Metrics.Textfile != "" && filepath.Ext(c.Metrics.Textfile) != ".prom" {
		return fmt.Errorf("metrics: textfile %q must end in .prom", c.Metrics.Textfile)
	}

	switch c.Output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("output: unsupported format %q (want table, json or yaml)", c.Output)
	}
	return nil
}
