// Package withdrawal implements the withdrawal bounded context: the
// fulfillment engine, outcome reconciliation and persistence.
package withdrawal

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	marketDI "github.com/skinflow/fulfillment-bot/business/market/di"
	pricingDI "github.com/skinflow/fulfillment-bot/business/pricing/di"
	tradingDI "github.com/skinflow/fulfillment-bot/business/trading/di"
	"github.com/skinflow/fulfillment-bot/business/withdrawal/app"
	withdrawalDI "github.com/skinflow/fulfillment-bot/business/withdrawal/di"
	"github.com/skinflow/fulfillment-bot/business/withdrawal/infra"
	"github.com/skinflow/fulfillment-bot/business/withdrawal/infra/kafka"
	"github.com/skinflow/fulfillment-bot/business/withdrawal/infra/postgres"
	"github.com/skinflow/fulfillment-bot/internal/config"
	"github.com/skinflow/fulfillment-bot/internal/di"
	"github.com/skinflow/fulfillment-bot/internal/logger"
	"github.com/skinflow/fulfillment-bot/internal/monolith"
)

// Module implements the withdrawal bounded context.
type Module struct{}

// RegisterServices registers all withdrawal services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Store (private - internal dependency)
	di.RegisterToken(c, withdrawalDI.Store, func(sr di.ServiceRegistry) app.Store {
		pool := sr.Get("db").(*pgxpool.Pool)
		return postgres.New(pool)
	})

	// Register Notifier (private - internal dependency)
	di.RegisterToken(c, withdrawalDI.Notifier, func(sr di.ServiceRegistry) app.Notifier {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return kafka.NewNotifier(kafka.Config{
			Brokers:      cfg.Notifications.Brokers,
			Topic:        cfg.Notifications.Topic,
			BatchTimeout: cfg.Notifications.BatchTimeout,
		}, log)
	})

	// Register Reconciler (private - internal dependency)
	di.RegisterToken(c, withdrawalDI.Reconciler, func(sr di.ServiceRegistry) *app.Reconciler {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewReconciler(
			withdrawalDI.GetStore(sr),
			withdrawalDI.GetNotifier(sr),
			log,
		)
	})

	// Register Reporter (private - internal dependency)
	di.RegisterToken(c, withdrawalDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Engine.TUIMode {
			return infra.NewTUIReporter()
		}
		return infra.NewConsoleReporter()
	})

	// Register Engine (public - exposed to other modules)
	di.RegisterToken(c, withdrawalDI.Engine, func(sr di.ServiceRegistry) *app.Engine {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewEngine(
			withdrawalDI.GetStore(sr),
			withdrawalDI.GetReconciler(sr),
			tradingDI.GetTradeService(sr),
			marketDI.GetMarketService(sr),
			pricingDI.GetPricingService(sr),
			withdrawalDI.GetReporter(sr),
			app.EngineConfig{
				TickInterval:    cfg.Engine.TickInterval,
				BatchSize:       cfg.Engine.BatchSize,
				DispatchRate:    cfg.Engine.DispatchRate,
				TradeSentMaxAge: cfg.Engine.TradeSentMaxAge,
			},
			log,
		)
	})

	return nil
}

// Startup launches the fulfillment engine loop.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	engine := withdrawalDI.GetEngine(mono.Services())
	if err := engine.Start(ctx); err != nil {
		return err
	}
	mono.Logger().Info(ctx, "withdrawal module started")
	return nil
}
