package models

import "time"

// Credentials holds the temporary keys returned by an STS role exchange
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Expiration      time.Time
}
