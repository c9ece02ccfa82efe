package domain

import "time"

type PaymentStatus string

const (
	PaymentStatusInitiated PaymentStatus = "initiated"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// PaymentAttempt is one initiation-through-resolution cycle against a single
// provider. Retries create new attempts; at most one attempt per order may
// ever reach succeeded (enforced by a partial unique index).
type PaymentAttempt struct {
	ID                string        `json:"id"`
	OrderID           string        `json:"orderId"`
	Provider          string        `json:"provider"`
	ProviderReference string        `json:"providerReference"`
	AmountCents       int64         `json:"amountCents"`
	Currency          string        `json:"currency"`
	Status            PaymentStatus `json:"status"`
	CreatedAt         time.Time     `json:"createdAt"`
	ConfirmedAt       *time.Time    `json:"confirmedAt,omitempty"`
}
