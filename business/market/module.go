// Package market implements the secondary marketplace bounded context for
// arbitrage purchases.
package market

import (
	"context"

	"github.com/skinflow/fulfillment-bot/business/market/app"
	marketDI "github.com/skinflow/fulfillment-bot/business/market/di"
	"github.com/skinflow/fulfillment-bot/business/market/infra/marketcsgo"
	"github.com/skinflow/fulfillment-bot/internal/config"
	"github.com/skinflow/fulfillment-bot/internal/di"
	"github.com/skinflow/fulfillment-bot/internal/logger"
	"github.com/skinflow/fulfillment-bot/internal/monolith"
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register MarketplaceClient (private - internal dependency)
	di.RegisterToken(c, marketDI.MarketplaceClient, func(sr di.ServiceRegistry) app.MarketplaceClient {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := marketcsgo.NewClient(marketcsgo.Config{
			BaseURL:        cfg.Market.BaseURL,
			APIKey:         cfg.Market.APIKey,
			FeeRate:        cfg.Market.FeeRate(),
			RequestTimeout: cfg.Market.RequestTimeout,
		}, log)
		if err != nil {
			panic("failed to create marketplace client: " + err.Error())
		}
		return client
	})

	// Register Calculator (private - internal dependency)
	di.RegisterToken(c, marketDI.Calculator, func(sr di.ServiceRegistry) *app.ArbitrageCalculator {
		cfg := sr.Get("config").(*config.Config)
		return app.NewArbitrageCalculator(cfg.Market.FeeRate())
	})

	// Register MarketService (public - exposed to other modules)
	di.RegisterToken(c, marketDI.MarketService, func(sr di.ServiceRegistry) *app.Service {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewService(
			marketDI.GetMarketplaceClient(sr),
			marketDI.GetCalculator(sr),
			log,
		)
	})

	return nil
}

// Startup initializes the market module. The marketplace API is stateless
// per request, so there is nothing to connect here.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "market module started")
	return nil
}
