package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"github.com/aws/aws-sdk-go-v2/service/pricing/types"

	"github.com/younsl/idlemon/pkg/utils"
)

// The AWS Pricing API is only available in us-east-1 and ap-south-1 regions
const apiRegion = "us-east-1"

const defaultTimeout = 5 * time.Second

// ErrUnknownRegion is returned when the Pricing API location name of a region
// is not known, so no lookup is attempted
var ErrUnknownRegion = errors.New("no Pricing API location for region")

// API defines the Pricing operations used by the estimator.
type API interface {
	GetProducts(ctx context.Context, params *pricing.GetProductsInput, optFns ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// Estimator looks up on-demand prices for the audited resources. Prices are
// cached per service, region and product for the lifetime of the estimator.
type Estimator struct {
	client  API
	region  string
	timeout time.Duration

	mu    sync.Mutex
	cache map[string]cachedPrice
	stats map[string]*CallStats
}

type cachedPrice struct {
	price  float64
	source PricingSource
}

// NewEstimator creates an Estimator pricing resources in region
func NewEstimator(client API, region string) *Estimator {
	return &Estimator{
		client:  client,
		region:  region,
		timeout: defaultTimeout,
		cache:   make(map[string]cachedPrice),
		stats:   make(map[string]*CallStats),
	}
}

// NewEstimatorFromConfig builds the Pricing API client from the caller's
// configuration, pinned to the region that serves the API
func NewEstimatorFromConfig(awsCfg aws.Config, region string) *Estimator {
	client := pricing.NewFromConfig(awsCfg, func(o *pricing.Options) {
		o.Region = apiRegion
	})
	return NewEstimator(client, region)
}

// getProducts calls the Pricing API and returns the raw price list documents
func (e *Estimator) getProducts(ctx context.Context, serviceCode string, filters []types.Filter, maxResults int32) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.GetProducts(ctx, &pricing.GetProductsInput{
		ServiceCode: aws.String(serviceCode),
		Filters:     filters,
		MaxResults:  aws.Int32(maxResults),
	})
	if err != nil {
		return nil, fmt.Errorf("error calling AWS Pricing API: %w", err)
	}

	if len(resp.PriceList) == 0 {
		return nil, fmt.Errorf("no pricing found for %s in region %s", serviceCode, e.region)
	}

	return resp.PriceList, nil
}

// cached returns a previously stored price. Prices that came from the API are
// reported as PricingSourceCache; fallback prices keep their own source.
func (e *Estimator) cached(key string) (float64, PricingSource, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	entry, ok := e.cache[key]
	if !ok {
		return 0, "", false
	}
	if entry.source == PricingSourceAPI {
		return entry.price, PricingSourceCache, true
	}
	return entry.price, entry.source, true
}

func (e *Estimator) store(key string, price float64, source PricingSource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache[key] = cachedPrice{price: price, source: source}
}

// location returns the Pricing API location name for the estimator's region
func (e *Estimator) location() (string, error) {
	if !utils.IsKnownRegion(e.region) {
		return "", fmt.Errorf("%w %s", ErrUnknownRegion, e.region)
	}
	return utils.GetRegionDescriptiveName(e.region), nil
}

func termMatch(field, value string) types.Filter {
	return types.Filter{
		Type:  types.FilterTypeTermMatch,
		Field: aws.String(field),
		Value: aws.String(value),
	}
}
