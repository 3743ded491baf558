// Package di contains dependency injection tokens for the market context.
package di

import (
	"github.com/skinflow/fulfillment-bot/business/market/app"
	"github.com/skinflow/fulfillment-bot/internal/di"
)

// Public service tokens - exposed to other modules
var (
	MarketService = di.NewToken[*app.Service]("market.MarketService")
)

// Private dependency tokens - internal to market module
var (
	MarketplaceClient = di.NewToken[app.MarketplaceClient]("market:marketplaceClient")
	Calculator        = di.NewToken[*app.ArbitrageCalculator]("market:calculator")
)

// Helper functions for type-safe access
func GetMarketService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, MarketService)
}

func GetMarketplaceClient(c di.ServiceRegistry) app.MarketplaceClient {
	return di.GetToken(c, MarketplaceClient)
}

func GetCalculator(c di.ServiceRegistry) *app.ArbitrageCalculator {
	return di.GetToken(c, Calculator)
}
