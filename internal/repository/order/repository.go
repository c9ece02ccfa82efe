package order

import (
	"context"
	"time"

	"ybt-digital/internal/domain"
)

// CreateOrderInput carries the builder's computed totals and the frozen line
// snapshots for the single order-creation write.
type CreateOrderInput struct {
	Lines         []LineInput
	SubtotalCents int64
	TaxCents      int64
	DiscountCents int64
	TotalCents    int64
	Currency      string
	CouponCode    *string
	Shipping      domain.ShippingInfo
}

type LineInput struct {
	ProductID      string
	Title          string
	Quantity       int
	UnitPriceCents int64
}

type Repository interface {
	Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListFlagged(ctx context.Context) ([]domain.Order, error)

	// TransitionStatus atomically moves the order from any of the expected
	// statuses to the target. Exactly one concurrent caller observes
	// applied=true; all others see false and must re-read.
	TransitionStatus(ctx context.Context, id string, from []domain.OrderStatus, to domain.OrderStatus) (applied bool, err error)
	Flag(ctx context.Context, id, reason string) error

	CreateAttempt(ctx context.Context, attempt domain.PaymentAttempt) error
	GetAttemptByReference(ctx context.Context, provider, reference string) (*domain.PaymentAttempt, error)
	ListAttempts(ctx context.Context, orderID string) ([]domain.PaymentAttempt, error)

	// FinalizeAttempt moves an attempt out of initiated exactly once.
	FinalizeAttempt(ctx context.Context, attemptID string, status domain.PaymentStatus, confirmedAt time.Time) (applied bool, err error)
}
