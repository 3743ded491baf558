// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/skinflow/fulfillment-bot/business/pricing/app"
	"github.com/skinflow/fulfillment-bot/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PricingService = di.NewToken[*app.PricingService]("pricing.PricingService")
)

// Private dependency tokens - internal to pricing module
var (
	PriceProvider = di.NewToken[app.PriceProvider]("pricing:priceProvider")
)

// Helper functions for type-safe access
func GetPricingService(c di.ServiceRegistry) *app.PricingService {
	return di.GetToken(c, PricingService)
}

func GetPriceProvider(c di.ServiceRegistry) app.PriceProvider {
	return di.GetToken(c, PriceProvider)
}
