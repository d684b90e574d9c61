package pricing

// PricingSource represents the source of pricing information
type PricingSource string

const (
	// PricingSourceAPI indicates pricing data came from AWS API
	PricingSourceAPI PricingSource = "API"

	// PricingSourceCache indicates pricing data came from cache
	PricingSourceCache PricingSource = "Cache"

	// PricingSourceDefault indicates pricing data came from hardcoded defaults
	PricingSourceDefault PricingSource = "Default"

	// PricingSourceNA indicates pricing data is not available
	PricingSourceNA PricingSource = "N/A"
)

// Service names used as keys in call statistics
const (
	ServiceEC2 = "EC2"
	ServiceS3  = "S3"
)

// CallStats counts Pricing API lookups for one service and region
type CallStats struct {
	Service string `json:"service" yaml:"service"`
	Region  string `json:"region" yaml:"region"`
	Success int    `json:"success" yaml:"success"`
	Failure int    `json:"failure" yaml:"failure"`
	Cache   int    `json:"cache" yaml:"cache"`
}

// Default S3 Standard storage prices in USD per GB-month (first 50 TB tier).
// These are fallback prices if Pricing API fails
var DefaultS3StandardPrices = map[string]float64{
	"us-east-1":      0.023,
	"us-east-2":      0.023,
	"us-west-1":      0.026,
	"us-west-2":      0.023,
	"eu-west-1":      0.023,
	"eu-central-1":   0.0245,
	"ap-northeast-1": 0.025,
	"ap-northeast-2": 0.025,
	"ap-southeast-1": 0.025,
	"ap-southeast-2": 0.025,
	"ap-south-1":     0.025,
	"sa-east-1":      0.0405,
}

const bytesPerGB = 1 << 30
