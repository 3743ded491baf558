// Package domain contains the core domain types for the withdrawal context.
package domain

// Status is the lifecycle state of a withdrawal request.
type Status string

const (
	StatusPending             Status = "pending"
	StatusProcessing          Status = "processing"
	StatusWaitingConfirmation Status = "waiting_confirmation"
	StatusTradeSent           Status = "trade_sent"
	StatusPurchasedSecondary  Status = "purchased_on_secondary"
	StatusCompleted           Status = "completed"
	StatusFailed              Status = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// InFlight reports whether the withdrawal has been handed to an external
// system and awaits its outcome.
func (s Status) InFlight() bool {
	return s == StatusTradeSent || s == StatusPurchasedSecondary
}

// ItemStatus is the inventory state of a single item link.
type ItemStatus string

const (
	ItemInInventory ItemStatus = "in_inventory"
	ItemReserved    ItemStatus = "reserved_for_withdrawal"
	ItemWithdrawn   ItemStatus = "withdrawn"
)

// PurchaseMethod records which source fulfilled the withdrawal.
type PurchaseMethod string

const (
	MethodNone            PurchaseMethod = "none"
	MethodBotInventory    PurchaseMethod = "bot_inventory"
	MethodSecondaryMarket PurchaseMethod = "secondary_market"
)

// ConfirmationState tracks the mobile-confirmation outcome for a sent
// offer. It is a typed column rather than a tracking_data flag because the
// poll pass makes control decisions on it.
type ConfirmationState string

const (
	ConfirmationNone        ConfirmationState = "none"
	ConfirmationPending     ConfirmationState = "pending"
	ConfirmationConfirmed   ConfirmationState = "confirmed"
	ConfirmationUnconfirmed ConfirmationState = "unconfirmed"
)
