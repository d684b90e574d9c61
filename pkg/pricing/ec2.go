package pricing

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/pricing/types"
	"github.com/rs/zerolog/log"

	"github.com/younsl/idlemon/internal/models"
	"github.com/younsl/idlemon/pkg/utils"
)

// InstanceHourlyPrice returns the Linux on-demand hourly price for an EC2
// instance type and the source of the pricing. Failures yield PricingSourceNA.
func (e *Estimator) InstanceHourlyPrice(ctx context.Context, instanceType string) (float64, PricingSource) {
	cacheKey := "ec2:" + e.region + ":" + instanceType

	if price, source, ok := e.cached(cacheKey); ok {
		e.record(ServiceEC2, PricingSourceCache)
		return price, source
	}

	price, err := e.ec2PriceFromAPI(ctx, instanceType)
	if err != nil {
		log.Warn().Err(err).Str("instanceType", instanceType).Str("region", e.region).Msg("Error getting EC2 price from API")
		e.record(ServiceEC2, PricingSourceNA)
		return 0, PricingSourceNA
	}

	e.record(ServiceEC2, PricingSourceAPI)
	e.store(cacheKey, price, PricingSourceAPI)
	return price, PricingSourceAPI
}

// InstanceMonthlyCost returns the estimated monthly cost of keeping an
// instance running and the source of the pricing
func (e *Estimator) InstanceMonthlyCost(ctx context.Context, instanceType string) (float64, PricingSource) {
	hourlyPrice, source := e.InstanceHourlyPrice(ctx, instanceType)
	if source == PricingSourceNA {
		return 0, PricingSourceNA
	}
	return hourlyPrice * utils.GetMonthlyHours(), source
}

// EnrichInstances fills the cost fields of each instance in place
func (e *Estimator) EnrichInstances(ctx context.Context, instances []models.InstanceInfo) {
	for i := range instances {
		cost, source := e.InstanceMonthlyCost(ctx, instances[i].InstanceType)
		instances[i].EstimatedMonthlyCost = cost
		instances[i].PricingSource = string(source)
	}
}

// ec2PriceFromAPI retrieves EC2 instance pricing from the AWS Pricing API
func (e *Estimator) ec2PriceFromAPI(ctx context.Context, instanceType string) (float64, error) {
	location, err := e.location()
	if err != nil {
		return 0, err
	}

	filters := []types.Filter{
		termMatch("instanceType", instanceType),
		termMatch("location", location),
		termMatch("operatingSystem", "Linux"),
		termMatch("tenancy", "Shared"),
		termMatch("preInstalledSw", "NA"),
		termMatch("capacitystatus", "Used"),
	}

	priceList, err := e.getProducts(ctx, "AmazonEC2", filters, 1)
	if err != nil {
		return 0, err
	}

	return ExtractOnDemandPrice(priceList[0])
}
