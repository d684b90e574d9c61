package pricing

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/rs/zerolog/log"

	"github.com/younsl/idlemon/internal/models"
)

// StoragePricePerGB returns the S3 Standard price per GB-month and its
// source. When the API fails the DefaultS3StandardPrices table is used,
// falling back to us-east-1 for unlisted regions.
func (e *Estimator) StoragePricePerGB(ctx context.Context) (float64, PricingSource) {
	cacheKey := "s3:" + e.region + ":standard"

	if price, source, ok := e.cached(cacheKey); ok {
		e.record(ServiceS3, PricingSourceCache)
		return price, source
	}

	price, err := e.s3PriceFromAPI(ctx)
	if err == nil {
		e.record(ServiceS3, PricingSourceAPI)
		e.store(cacheKey, price, PricingSourceAPI)
		return price, PricingSourceAPI
	}

	log.Warn().Err(err).Str("region", e.region).Msg("Error getting S3 price from API, using fallback pricing")
	e.record(ServiceS3, PricingSourceDefault)

	price, ok := DefaultS3StandardPrices[e.region]
	if !ok {
		price = DefaultS3StandardPrices["us-east-1"]
	}
	e.store(cacheKey, price, PricingSourceDefault)
	return price, PricingSourceDefault
}

// StorageMonthlyCost returns the monthly S3 Standard cost of sizeBytes
func (e *Estimator) StorageMonthlyCost(ctx context.Context, sizeBytes int64) (float64, PricingSource) {
	pricePerGB, source := e.StoragePricePerGB(ctx)
	return float64(sizeBytes) / bytesPerGB * pricePerGB, source
}

// EnrichDirectories fills the cost fields of each directory in place
func (e *Estimator) EnrichDirectories(ctx context.Context, directories []models.DirectoryInfo) {
	for i := range directories {
		cost, source := e.StorageMonthlyCost(ctx, directories[i].Size)
		directories[i].EstimatedMonthlyCost = cost
		directories[i].PricingSource = string(source)
	}
}

// s3PriceFromAPI retrieves the S3 Standard storage price from the AWS Pricing API
func (e *Estimator) s3PriceFromAPI(ctx context.Context) (float64, error) {
	location, err := e.location()
	if err != nil {
		return 0, err
	}

	filters := []types.Filter{
		termMatch("location", location),
		termMatch("productFamily", "Storage"),
		termMatch("storageClass", "General Purpose"),
		termMatch("volumeType", "Standard"),
	}

	priceList, err := e.getProducts(ctx, "AmazonS3", filters, 1)
	if err != nil {
		return 0, err
	}

	return ExtractOnDemandPrice(priceList[0])
}
