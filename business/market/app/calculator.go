// Package app contains application services and port definitions for the
// secondary marketplace context.
package app

import (
	"github.com/shopspring/decimal"

	"github.com/skinflow/fulfillment-bot/business/market/domain"
)

// ArbitrageCalculator decides whether buying a listing to fulfill a
// withdrawal keeps the house on the right side of the trade.
type ArbitrageCalculator struct {
	feeRate decimal.Decimal
}

// NewArbitrageCalculator creates a calculator with the marketplace fee rate
// as a fraction (0.05 for 5%).
func NewArbitrageCalculator(feeRate decimal.Decimal) *ArbitrageCalculator {
	return &ArbitrageCalculator{feeRate: feeRate}
}

// Evaluate computes the all-in cost of the cheapest listing and accepts it
// only when that cost stays at or below both ceilings: the current market
// price (no overpaying against the market) and the platform price the user
// paid (no loss on the withdrawal itself).
func (c *ArbitrageCalculator) Evaluate(
	listings []domain.Listing,
	marketPrice decimal.Decimal,
	platformPrice decimal.Decimal,
) domain.Decision {
	if len(listings) == 0 {
		return domain.Decision{Reason: domain.ReasonNoListings}
	}

	best := listings[0]
	for _, l := range listings[1:] {
		if l.Price.LessThan(best.Price) {
			best = l
		}
	}

	total := best.TotalCost(c.feeRate)

	if total.GreaterThan(marketPrice) {
		return domain.Decision{Listing: best, Total: total, Reason: domain.ReasonOverMarketPrice}
	}
	if total.GreaterThan(platformPrice) {
		return domain.Decision{Listing: best, Total: total, Reason: domain.ReasonOverPlatformPrice}
	}

	return domain.Decision{
		Buy:     true,
		Listing: best,
		Total:   total,
		Margin:  platformPrice.Sub(total),
	}
}

// FeeRate exposes the configured fee rate for audit records.
func (c *ArbitrageCalculator) FeeRate() decimal.Decimal {
	return c.feeRate
}
