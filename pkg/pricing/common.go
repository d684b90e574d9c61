package pricing

import (
	"fmt"
	"strconv"

	"github.com/younsl/idlemon/pkg/utils"
)

// record updates the tracking statistics for Pricing API calls
func (e *Estimator) record(service string, source PricingSource) {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := service + ":" + e.region
	s, ok := e.stats[key]
	if !ok {
		s = &CallStats{Service: service, Region: e.region}
		e.stats[key] = s
	}

	switch source {
	case PricingSourceAPI:
		s.Success++
	case PricingSourceCache:
		s.Cache++
	default:
		s.Failure++
	}
}

// ExtractOnDemandPrice extracts the on-demand USD price from a Pricing API
// product document. For tiered products the dimension starting at zero is used.
func ExtractOnDemandPrice(priceJSON string) (float64, error) {
	priceData, err := utils.ParseJSON(priceJSON)
	if err != nil {
		return 0, fmt.Errorf("error parsing pricing data: %w", err)
	}

	terms, ok := priceData["terms"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("terms field not found or invalid")
	}

	onDemand, ok := terms["OnDemand"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("OnDemand field not found or invalid")
	}

	skuOffer, err := utils.GetFirstMapValue(onDemand)
	if err != nil {
		return 0, fmt.Errorf("no SKU offer found")
	}

	skuOfferMap, ok := skuOffer.(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("SKU offer is not a map")
	}

	priceDimensions, ok := skuOfferMap["priceDimensions"].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("priceDimensions field not found or invalid")
	}

	dimension, err := firstTier(priceDimensions)
	if err != nil {
		return 0, err
	}

	usd, err := utils.GetNestedString(dimension, "pricePerUnit", "USD")
	if err != nil {
		return 0, fmt.Errorf("USD price not found or invalid: %w", err)
	}

	price, err := strconv.ParseFloat(usd, 64)
	if err != nil {
		return 0, fmt.Errorf("error parsing price: %w", err)
	}

	return price, nil
}

// firstTier picks the price dimension whose beginRange is "0", falling back
// to the first dimension for untiered products
func firstTier(priceDimensions map[string]interface{}) (map[string]interface{}, error) {
	for _, d := range priceDimensions {
		if dm, ok := d.(map[string]interface{}); ok && dm["beginRange"] == "0" {
			return dm, nil
		}
	}

	dimension, err := utils.GetFirstMapValue(priceDimensions)
	if err != nil {
		return nil, fmt.Errorf("no price dimension found")
	}
	dimensionMap, ok := dimension.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("price dimension is not a map")
	}
	return dimensionMap, nil
}
