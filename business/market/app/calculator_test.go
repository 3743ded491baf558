package app

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/skinflow/fulfillment-bot/business/market/domain"
)

// Helper to build a listing with a price
func makeListing(id, price string) domain.Listing {
	return domain.Listing{
		ID:             id,
		MarketHashName: "AK-47 | Redline (Field-Tested)",
		Price:          decimal.RequireFromString(price),
	}
}

func TestArbitrageCalculator_Evaluate(t *testing.T) {
	tests := []struct {
		name          string
		feeRate       string
		listings      []domain.Listing
		marketPrice   string
		platformPrice string
		wantBuy       bool
		wantTotal     string
		wantMargin    string
		wantReason    string
	}{
		{
			name:          "profitable_under_both_ceilings",
			feeRate:       "0.05",
			listings:      []domain.Listing{makeListing("l1", "80")},
			marketPrice:   "100",
			platformPrice: "90",
			wantBuy:       true,
			wantTotal:     "84", // 80 * 1.05
			wantMargin:    "6",  // 90 - 84
		},
		{
			name:          "rejected_over_platform_price",
			feeRate:       "0.05",
			listings:      []domain.Listing{makeListing("l1", "80")},
			marketPrice:   "100",
			platformPrice: "80", // user paid less than the all-in cost
			wantBuy:       false,
			wantTotal:     "84",
			wantReason:    domain.ReasonOverPlatformPrice,
		},
		{
			name:          "rejected_over_market_price",
			feeRate:       "0.05",
			listings:      []domain.Listing{makeListing("l1", "120")},
			marketPrice:   "100", // overpaying vs the market even if the user paid more
			platformPrice: "150",
			wantBuy:       false,
			wantTotal:     "126",
			wantReason:    domain.ReasonOverMarketPrice,
		},
		{
			name:          "picks_cheapest_listing",
			feeRate:       "0.05",
			listings:      []domain.Listing{makeListing("l1", "90"), makeListing("l2", "70"), makeListing("l3", "85")},
			marketPrice:   "100",
			platformPrice: "95",
			wantBuy:       true,
			wantTotal:     "73.5", // 70 * 1.05
			wantMargin:    "21.5",
		},
		{
			name:          "no_listings",
			feeRate:       "0.05",
			listings:      nil,
			marketPrice:   "100",
			platformPrice: "90",
			wantBuy:       false,
			wantReason:    domain.ReasonNoListings,
		},
		{
			name:          "exact_ceiling_is_acceptable",
			feeRate:       "0.05",
			listings:      []domain.Listing{makeListing("l1", "80")},
			marketPrice:   "84",
			platformPrice: "84", // total equals both ceilings, still fine
			wantBuy:       true,
			wantTotal:     "84",
			wantMargin:    "0",
		},
		{
			name:          "zero_fee_rate",
			feeRate:       "0",
			listings:      []domain.Listing{makeListing("l1", "80")},
			marketPrice:   "85",
			platformPrice: "82",
			wantBuy:       true,
			wantTotal:     "80",
			wantMargin:    "2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewArbitrageCalculator(decimal.RequireFromString(tt.feeRate))

			got := calc.Evaluate(
				tt.listings,
				decimal.RequireFromString(tt.marketPrice),
				decimal.RequireFromString(tt.platformPrice),
			)

			if got.Buy != tt.wantBuy {
				t.Errorf("Buy = %v, want %v (reason: %q)", got.Buy, tt.wantBuy, got.Reason)
			}
			if tt.wantTotal != "" {
				want := decimal.RequireFromString(tt.wantTotal)
				if !got.Total.Equal(want) {
					t.Errorf("Total = %s, want %s", got.Total, want)
				}
			}
			if tt.wantBuy {
				want := decimal.RequireFromString(tt.wantMargin)
				if !got.Margin.Equal(want) {
					t.Errorf("Margin = %s, want %s", got.Margin, want)
				}
			}
			if got.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}
