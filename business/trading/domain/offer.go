// Package domain contains the core domain types for the trading context.
package domain

// OfferState is the lifecycle state of a trade offer on the trading network.
type OfferState string

const (
	OfferPending  OfferState = "pending"  // created, awaiting counterparty
	OfferAccepted OfferState = "accepted"
	OfferDeclined OfferState = "declined"
	OfferExpired  OfferState = "expired" // expired or canceled, same outcome for us
)

// Resolved reports whether the offer reached a terminal state.
func (s OfferState) Resolved() bool {
	return s != OfferPending
}

// Offer represents a live negotiation on the trading network. Only the
// correlation id is persisted; everything else lives on the network side.
type Offer struct {
	ID       string
	Partner  TradeLink
	AssetIDs []string
	Message  string
	State    OfferState
}

// Asset is one tradable good in the bot's network inventory snapshot.
type Asset struct {
	AssetID        string
	ClassID        string
	InstanceID     string
	MarketHashName string
	Tradable       bool
}
