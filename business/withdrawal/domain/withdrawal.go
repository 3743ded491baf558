package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemLink ties a withdrawal to one concrete platform-owned item.
type ItemLink struct {
	ID           int64
	WithdrawalID int64
	// MarketHashName is the canonical trading-network identifier used for
	// inventory lookup and marketplace search.
	MarketHashName string
	PlatformPrice  decimal.Decimal
	Status         ItemStatus
}

// SecondaryEconomics captures the cost breakdown of a secondary-market
// purchase for audit and margin reporting.
type SecondaryEconomics struct {
	Price decimal.Decimal `json:"price"`
	Fee   decimal.Decimal `json:"fee"`
	Total decimal.Decimal `json:"total"`
	// Margin is platform price minus total cost; may be negative when a
	// purchase was accepted at a loss ceiling.
	Margin decimal.Decimal `json:"margin"`
}

// Request is a queued withdrawal and the aggregate root of this context.
type Request struct {
	ID     int64
	UserID int64

	// TradeURL is the user's trade offer URL, the delivery address for
	// both fulfillment paths.
	TradeURL string

	Status   Status
	Priority int

	RequestDate    time.Time
	ProcessingDate *time.Time
	CompletionDate *time.Time
	FailedReason   string

	TradeOfferID      string
	PurchaseMethod    PurchaseMethod
	Economics         *SecondaryEconomics
	ConfirmationState ConfirmationState

	Tracking Tracking

	Items []ItemLink
}

// CompareQueuePosition orders two requests for dispatch: higher priority
// first, FIFO by request date within a priority band. Returns a negative
// value when a should be dispatched before b.
func CompareQueuePosition(a, b *Request) int {
	if a.Priority != b.Priority {
		return b.Priority - a.Priority
	}
	switch {
	case a.RequestDate.Before(b.RequestDate):
		return -1
	case a.RequestDate.After(b.RequestDate):
		return 1
	default:
		return 0
	}
}

// SentAge returns how long the request has been sitting in trade_sent.
func (r *Request) SentAge(now time.Time) time.Duration {
	if r.Status != StatusTradeSent || r.ProcessingDate == nil {
		return 0
	}
	return now.Sub(*r.ProcessingDate)
}
