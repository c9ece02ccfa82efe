package domain

import (
	"errors"
	"time"
)

type OrderStatus string

// remember to add new statuses to the orderTransitions map
const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusAwaitingPayment OrderStatus = "awaiting_payment"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusFailed          OrderStatus = "failed"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// orderTransitions is monotonic forward except the explicit cancellation of a
// not-yet-paid order. Terminal statuses have no outgoing edges.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:         {OrderStatusAwaitingPayment, OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled},
	OrderStatusAwaitingPayment: {OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled},
	OrderStatusCompleted:       {},
	OrderStatusFailed:          {},
	OrderStatusCancelled:       {},
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusFailed || s == OrderStatusCancelled
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func ToOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := orderTransitions[status]; ok {
		return status, nil
	}
	return "", errors.New("invalid order status")
}

// Order is created once by the order builder with status pending. After that
// its status moves only through the reconciliation ledger's compare-and-
// transition, and its lines never change.
type Order struct {
	ID            string       `json:"id"`
	Status        OrderStatus  `json:"status"`
	Lines         []OrderLine  `json:"lineItems"`
	SubtotalCents int64        `json:"subtotalCents"`
	TaxCents      int64        `json:"taxCents"`
	DiscountCents int64        `json:"discountCents"`
	TotalCents    int64        `json:"totalCents"`
	Currency      string       `json:"currency"`
	CouponCode    *string      `json:"couponCode,omitempty"`
	Shipping      ShippingInfo `json:"shipping"`
	// Flagged marks the order for manual review after an integrity failure.
	Flagged   bool      `json:"flagged,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// OrderLine is a frozen snapshot of price and title at build time. Later
// catalog changes never affect an existing order.
type OrderLine struct {
	ID             string `json:"id"`
	OrderID        string `json:"orderId"`
	ProductID      string `json:"productId"`
	Title          string `json:"title"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	TotalCents     int64  `json:"totalCents"`
}
