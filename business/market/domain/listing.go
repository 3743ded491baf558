// Package domain contains the core domain types for the secondary
// marketplace context.
package domain

import "github.com/shopspring/decimal"

// Listing is one purchasable offer on the secondary marketplace.
type Listing struct {
	ID             string
	MarketHashName string
	Price          decimal.Decimal // seller's ask, before marketplace fee
}

// TotalCost returns the all-in acquisition cost for the listing given the
// marketplace fee rate (0.05 for 5%).
func (l Listing) TotalCost(feeRate decimal.Decimal) decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(1).Add(feeRate))
}

// OrderStatus is the delivery state of a placed purchase order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"   // paid, waiting for the seller to deliver
	OrderDelivered OrderStatus = "delivered" // item arrived at the buyer's address
	OrderRefunded  OrderStatus = "refunded"  // seller bailed, money returned
	OrderCanceled  OrderStatus = "canceled"
)

// Resolved reports whether the order reached a terminal state.
func (s OrderStatus) Resolved() bool {
	return s != OrderPending
}

// Order is a placed purchase on the secondary marketplace.
type Order struct {
	ID             string
	ListingID      string
	MarketHashName string
	Price          decimal.Decimal
	Fee            decimal.Decimal
	Total          decimal.Decimal
	Status         OrderStatus
}
