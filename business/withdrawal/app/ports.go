// Package app contains the fulfillment engine, the outcome reconciler and
// the port definitions for the withdrawal context.
package app

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	marketDomain "github.com/skinflow/fulfillment-bot/business/market/domain"
	tradingDomain "github.com/skinflow/fulfillment-bot/business/trading/domain"
	"github.com/skinflow/fulfillment-bot/business/withdrawal/domain"
)

// Store is the persistence port for withdrawal requests. Every transition
// method runs in its own transaction, re-reads the row under lock and is a
// no-op when the request already reached a terminal status.
type Store interface {
	// PendingBatch returns up to limit pending requests ordered by queue
	// position: higher priority first, oldest first within a priority band.
	PendingBatch(ctx context.Context, limit int) ([]*domain.Request, error)

	// InFlight returns requests sitting in trade_sent or
	// purchased_on_secondary, with their items, for the resolution pass.
	InFlight(ctx context.Context) ([]*domain.Request, error)

	// MarkProcessing moves a pending request to processing and stamps the
	// processing date.
	MarkProcessing(ctx context.Context, id int64, tracking domain.Tracking) error

	// MarkTradeSent records a sent trade offer and its confirmation state.
	MarkTradeSent(ctx context.Context, id int64, offerID string, confirmation domain.ConfirmationState, tracking domain.Tracking) error

	// MarkPurchased records a secondary marketplace purchase with its
	// economics.
	MarkPurchased(ctx context.Context, id int64, orderID string, economics *domain.SecondaryEconomics, tracking domain.Tracking) error

	// Requeue returns a processing request to pending so a later tick can
	// retry it after a transient failure.
	Requeue(ctx context.Context, id int64, reason string, tracking domain.Tracking) error

	// MarkWaitingConfirmation parks the request for operator review.
	MarkWaitingConfirmation(ctx context.Context, id int64, reason string, tracking domain.Tracking) error

	// SetConfirmationState updates only the confirmation column, used when
	// a later pass resolves an ambiguous confirmation.
	SetConfirmationState(ctx context.Context, id int64, state domain.ConfirmationState, tracking domain.Tracking) error

	// Complete finalizes a fulfilled request: items become withdrawn and
	// the completion date is stamped. Returns the owning user id and
	// whether this call performed the transition (false when the request
	// was already terminal).
	Complete(ctx context.Context, id int64, method domain.PurchaseMethod, tracking domain.Tracking) (userID int64, applied bool, err error)

	// Fail finalizes a failed request: reserved items return to available
	// inventory in the same transaction. Returns the owning user id and
	// whether this call performed the transition.
	Fail(ctx context.Context, id int64, reason string, tracking domain.Tracking) (userID int64, applied bool, err error)
}

// TradeSource is the primary fulfillment path: delivery from the bot's own
// inventory over the trading network. Satisfied by the trading context's
// application service.
type TradeSource interface {
	Enabled() bool
	EnsureSession(ctx context.Context) error
	FindAsset(ctx context.Context, marketHashName string) (*tradingDomain.Asset, error)
	Deliver(ctx context.Context, tradeURL string, assetIDs []string) (offerID string, confirmed bool, err error)
	Confirm(ctx context.Context, offerID string) error
	ResolveOffer(ctx context.Context, offerID string) (tradingDomain.OfferState, error)
	CancelOffer(ctx context.Context, offerID string) error
}

// MarketSource is the fallback fulfillment path: an arbitrage purchase on
// the secondary marketplace with delivery straight to the user. Satisfied
// by the market context's application service.
type MarketSource interface {
	Quote(ctx context.Context, marketHashName string, marketPrice, platformPrice decimal.Decimal) (marketDomain.Decision, error)
	Purchase(ctx context.Context, decision marketDomain.Decision, tradeURL string) (*marketDomain.Order, error)
	OrderStatus(ctx context.Context, orderID string) (marketDomain.OrderStatus, error)
}

// PriceSource answers current market prices, falling back to the supplied
// platform price when the feed cannot.
type PriceSource interface {
	MarketPrice(ctx context.Context, marketHashName string, fallback decimal.Decimal) decimal.Decimal
}

// Notifier delivers user facing notifications about withdrawal outcomes.
// It is called only after the owning transaction committed.
type Notifier interface {
	WithdrawalCompleted(ctx context.Context, userID, withdrawalID int64) error
	WithdrawalFailed(ctx context.Context, userID, withdrawalID int64, reason string) error
}

// QueueStats is a snapshot of the fulfillment queue for display.
type QueueStats struct {
	Pending   int
	InFlight  int
	Completed int
	Failed    int
}

// Outcome is one finished dispatch attempt, for display and logs.
type Outcome struct {
	WithdrawalID int64
	Status       domain.Status
	Method       domain.PurchaseMethod
	Reason       string
	Elapsed      time.Duration
	Timestamp    time.Time
}

// Reporter defines the interface for reporting engine activity.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// ReportOutcome sends a finished dispatch attempt to be displayed/logged.
	ReportOutcome(outcome Outcome)

	// UpdateQueue updates the queue depth display.
	UpdateQueue(stats QueueStats)

	// UpdateSourceStatus updates a fulfillment source status display.
	UpdateSourceStatus(name string, healthy bool)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
