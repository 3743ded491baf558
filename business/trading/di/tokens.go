// Package di contains dependency injection tokens for the trading context.
package di

import (
	"github.com/skinflow/fulfillment-bot/business/trading/app"
	"github.com/skinflow/fulfillment-bot/business/trading/infra/steam"
	"github.com/skinflow/fulfillment-bot/internal/di"
	"github.com/skinflow/fulfillment-bot/internal/wsconn"
)

// Public service tokens - exposed to other modules
var (
	TradeService = di.NewToken[*app.Service]("trading.TradeService")
)

// Private dependency tokens - internal to trading module
var (
	NetworkClient   = di.NewToken[*steam.Client]("trading:networkClient")
	ConfirmStream   = di.NewToken[*wsconn.Client]("trading:confirmStream")
	StreamConfirmer = di.NewToken[*steam.StreamConfirmer]("trading:streamConfirmer")
)

// Helper functions for type-safe access
func GetTradeService(c di.ServiceRegistry) *app.Service {
	return di.GetToken(c, TradeService)
}

func GetNetworkClient(c di.ServiceRegistry) *steam.Client {
	return di.GetToken(c, NetworkClient)
}

func GetConfirmStream(c di.ServiceRegistry) *wsconn.Client {
	return di.GetToken(c, ConfirmStream)
}

func GetStreamConfirmer(c di.ServiceRegistry) *steam.StreamConfirmer {
	return di.GetToken(c, StreamConfirmer)
}
