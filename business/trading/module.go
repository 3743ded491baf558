// Package trading implements the trading bounded context: network session,
// bot inventory and trade offer delivery.
package trading

import (
	"context"

	"github.com/skinflow/fulfillment-bot/business/trading/app"
	tradingDI "github.com/skinflow/fulfillment-bot/business/trading/di"
	"github.com/skinflow/fulfillment-bot/business/trading/infra/steam"
	"github.com/skinflow/fulfillment-bot/internal/config"
	"github.com/skinflow/fulfillment-bot/internal/di"
	"github.com/skinflow/fulfillment-bot/internal/logger"
	"github.com/skinflow/fulfillment-bot/internal/monolith"
	"github.com/skinflow/fulfillment-bot/internal/wsconn"
)

// Module implements the trading bounded context.
type Module struct{}

// RegisterServices registers all trading services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register NetworkClient (private - internal dependency)
	di.RegisterToken(c, tradingDI.NetworkClient, func(sr di.ServiceRegistry) *steam.Client {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client, err := steam.NewClient(steam.Config{
			APIBaseURL:          cfg.Steam.APIBaseURL,
			CommunityURL:        cfg.Steam.CommunityURL,
			AccountName:         cfg.Steam.AccountName,
			Password:            cfg.Steam.Password,
			SharedSecret:        cfg.Steam.SharedSecret,
			IdentitySecret:      cfg.Steam.IdentitySecret,
			DeviceID:            cfg.Steam.DeviceID,
			AppID:               cfg.Steam.AppID,
			ContextID:           cfg.Steam.ContextID,
			RequestTimeout:      cfg.Steam.RequestTimeout,
			ConfirmPollAttempts: cfg.Steam.ConfirmPollAttempts,
			ConfirmPollBackoff:  cfg.Steam.ConfirmPollBackoff,
		}, log)
		if err != nil {
			panic("failed to create trading network client: " + err.Error())
		}
		return client
	})

	// Register ConfirmStream (private - internal dependency)
	di.RegisterToken(c, tradingDI.ConfirmStream, func(sr di.ServiceRegistry) *wsconn.Client {
		cfg := sr.Get("config").(*config.Config)

		ws, err := wsconn.New(wsconn.DefaultConfig(cfg.Steam.StreamURL, "confirmation-stream"))
		if err != nil {
			panic("failed to create confirmation stream: " + err.Error())
		}
		return ws
	})

	// Register StreamConfirmer (private - internal dependency)
	di.RegisterToken(c, tradingDI.StreamConfirmer, func(sr di.ServiceRegistry) *steam.StreamConfirmer {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client := tradingDI.GetNetworkClient(sr)
		ws := tradingDI.GetConfirmStream(sr)
		return steam.NewStreamConfirmer(client, ws, cfg.Steam.ConfirmStreamWait, log)
	})

	// Register TradeService (public - exposed to other modules)
	di.RegisterToken(c, tradingDI.TradeService, func(sr di.ServiceRegistry) *app.Service {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		client := tradingDI.GetNetworkClient(sr)
		confirmer := app.NewConfirmRunner(log,
			tradingDI.GetStreamConfirmer(sr),
			steam.NewPollConfirmer(client, cfg.Steam.ConfirmPollAttempts, cfg.Steam.ConfirmPollBackoff, log),
			steam.NewDirectKeyConfirmer(client),
		)

		return app.NewService(client, confirmer, app.Config{
			OfferMessage:    cfg.Steam.OfferMessage,
			ThrottleBackoff: cfg.Steam.ThrottleBackoff,
			ThrottleTries:   cfg.Steam.ThrottleAttempts,
			SendTries:       cfg.Steam.SendAttempts,
			SendBackoff:     cfg.Steam.SendBackoff,
		}, log)
	})

	return nil
}

// Startup initializes the trading module: it connects the confirmation
// stream and establishes the network session. A failed stream connection is
// not fatal, the poll strategy covers for it.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	ws := tradingDI.GetConfirmStream(mono.Services())
	if err := ws.Connect(ctx); err != nil {
		log.Warn(ctx, "confirmation stream connect failed, poll strategy will cover", "error", err)
	} else {
		go tradingDI.GetStreamConfirmer(mono.Services()).Listen(ctx)
	}

	svc := tradingDI.GetTradeService(mono.Services())
	if err := svc.EnsureSession(ctx); err != nil {
		// The source stays registered; the engine checks Enabled() and the
		// marketplace path keeps working.
		log.Error(ctx, "trading session bootstrap failed", "error", err)
	}

	log.Info(ctx, "trading module started")
	return nil
}
