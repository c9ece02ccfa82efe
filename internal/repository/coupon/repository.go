package coupon

import (
	"context"

	"ybt-digital/internal/domain"
)

type Repository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	// Redeem increments the usage counter, guarded by the usage limit.
	// Returns domain.ErrCouponUsageExceeded when the limit is already spent.
	Redeem(ctx context.Context, code string) error
}
