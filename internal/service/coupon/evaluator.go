package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ybt-digital/internal/domain"
	"github.com/shopspring/decimal"
)

// Evaluation is the result of validating a coupon against a cart subtotal.
type Evaluation struct {
	Coupon        domain.Coupon
	DiscountCents int64
}

// Evaluate validates a coupon and computes the bounded discount. It is pure:
// redemption counters move only at order finalization, so the storefront may
// call this repeatedly for live discount previews.
func Evaluate(c domain.Coupon, subtotalCents int64, now time.Time) (Evaluation, error) {
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return Evaluation{}, domain.ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
		return Evaluation{}, domain.ErrCouponUsageExceeded
	}

	var discount int64
	switch c.DiscountType {
	case domain.DiscountPercentage:
		discount = percentageOf(subtotalCents, c.DiscountValue)
		if c.MaxDiscountCents != nil && discount > *c.MaxDiscountCents {
			discount = *c.MaxDiscountCents
		}
	case domain.DiscountFixed:
		discount = c.DiscountValue
	default:
		return Evaluation{}, fmt.Errorf("unknown discount type %q", c.DiscountType)
	}

	// A coupon can never push the subtotal negative.
	if discount > subtotalCents {
		discount = subtotalCents
	}

	return Evaluation{Coupon: c, DiscountCents: discount}, nil
}

func percentageOf(subtotalCents, percent int64) int64 {
	return decimal.NewFromInt(subtotalCents).
		Mul(decimal.NewFromInt(percent)).
		Div(decimal.NewFromInt(100)).
		Round(0).
		IntPart()
}

type repository interface {
	GetByCode(ctx context.Context, code string) (*domain.Coupon, error)
	Redeem(ctx context.Context, code string) error
}

// Service looks coupons up by code and defers the arithmetic to Evaluate.
type Service struct {
	repo repository
}

func New(repo repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) EvaluateCode(ctx context.Context, code string, subtotalCents int64, now time.Time) (Evaluation, error) {
	c, err := s.repo.GetByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluate(*c, subtotalCents, now)
}

// Redeem reserves one use of the coupon. Called exactly once per finalized
// order, never during evaluation.
func (s *Service) Redeem(ctx context.Context, code string) error {
	return s.repo.Redeem(ctx, code)
}
