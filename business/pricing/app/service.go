// Package app contains application services and port definitions for the
// pricing context.
package app

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/skinflow/fulfillment-bot/internal/logger"
)

// PriceProvider serves the current market price for an item by its market
// hash name.
type PriceProvider interface {
	Price(ctx context.Context, marketHashName string) (decimal.Decimal, error)
}

// PricingService answers price questions for the fulfillment engine. Market
// prices are best effort: a dead feed must never block a withdrawal, so
// lookups fall back to the caller supplied platform price.
type PricingService struct {
	provider PriceProvider
	log      logger.LoggerInterface
}

func NewPricingService(provider PriceProvider, log logger.LoggerInterface) *PricingService {
	return &PricingService{provider: provider, log: log}
}

// MarketPrice returns the current market price for the item, or fallback
// when the feed cannot answer. The error is logged, not propagated: pricing
// degradation degrades the arbitrage ceiling, not the withdrawal.
func (s *PricingService) MarketPrice(ctx context.Context, marketHashName string, fallback decimal.Decimal) decimal.Decimal {
	price, err := s.provider.Price(ctx, marketHashName)
	if err != nil {
		s.log.Warn(ctx, "price feed unavailable, using platform price",
			"item", marketHashName, "fallback", fallback, "error", err)
		return fallback
	}
	if price.IsZero() || price.IsNegative() {
		s.log.Warn(ctx, "price feed returned unusable price, using platform price",
			"item", marketHashName, "price", price, "fallback", fallback)
		return fallback
	}
	return price
}
