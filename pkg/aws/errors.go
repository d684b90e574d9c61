package aws

import "errors"

var (
	// ErrTooManyDatapoints is returned when a utilization query would ask
	// CloudWatch for more than maxDatapoints periods.
	ErrTooManyDatapoints = errors.New("too many datapoints to track, reduce the time range or increase the period")

	// ErrInvalidPeriod is returned for a non-positive time range or period.
	ErrInvalidPeriod = errors.New("time range and period must be positive")

	// ErrMissingCredentials is returned when STS answers without a credentials block.
	ErrMissingCredentials = errors.New("assume role response contained no credentials")
)
