// Package pricing implements the pricing bounded context: current market
// prices with a Redis cache in front of the external feed.
package pricing

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/skinflow/fulfillment-bot/business/pricing/app"
	pricingDI "github.com/skinflow/fulfillment-bot/business/pricing/di"
	"github.com/skinflow/fulfillment-bot/business/pricing/infra/pricefeed"
	"github.com/skinflow/fulfillment-bot/business/pricing/infra/rediscache"
	"github.com/skinflow/fulfillment-bot/internal/config"
	"github.com/skinflow/fulfillment-bot/internal/di"
	"github.com/skinflow/fulfillment-bot/internal/logger"
	"github.com/skinflow/fulfillment-bot/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers all pricing services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register PriceProvider (private - internal dependency)
	di.RegisterToken(c, pricingDI.PriceProvider, func(sr di.ServiceRegistry) app.PriceProvider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		feed, err := pricefeed.NewClient(pricefeed.Config{
			BaseURL:        cfg.Pricing.BaseURL,
			RequestTimeout: cfg.Pricing.RequestTimeout,
		})
		if err != nil {
			panic("failed to create price feed client: " + err.Error())
		}

		if cfg.Pricing.RedisAddr == "" {
			return feed
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Pricing.RedisAddr,
			Password: cfg.Pricing.RedisPassword,
			DB:       cfg.Pricing.RedisDB,
		})
		return rediscache.New(rdb, feed, cfg.Pricing.CacheTTL, log)
	})

	// Register PricingService (public - exposed to other modules)
	di.RegisterToken(c, pricingDI.PricingService, func(sr di.ServiceRegistry) *app.PricingService {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewPricingService(pricingDI.GetPriceProvider(sr), log)
	})

	return nil
}

// Startup initializes the pricing module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "pricing module started")
	return nil
}
