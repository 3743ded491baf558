package domain

import "github.com/shopspring/decimal"

// Decision is the outcome of evaluating a listing against the price
// ceilings for an arbitrage purchase.
type Decision struct {
	Buy     bool
	Listing Listing
	Total   decimal.Decimal // listing price plus fee
	Margin  decimal.Decimal // platform price minus total, the house edge kept
	Reason  string          // populated when Buy is false
}

// Rejection reasons recorded in the withdrawal audit trail.
const (
	ReasonNoListings        = "no listings for item"
	ReasonOverMarketPrice   = "total exceeds current market price"
	ReasonOverPlatformPrice = "total exceeds platform price paid by user"
)
