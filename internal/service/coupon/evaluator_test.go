package coupon

import (
	"context"
	"testing"
	"time"

	"ybt-digital/internal/domain"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var evalNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validCoupon() domain.Coupon {
	return domain.Coupon{
		Code:          "SAVE20",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: 20,
		ValidFrom:     evalNow.Add(-24 * time.Hour),
		ValidUntil:    evalNow.Add(24 * time.Hour),
	}
}

func TestEvaluatePercentageCappedByMax(t *testing.T) {
	c := validCoupon()
	c.MaxDiscountCents = lo.ToPtr(int64(1500))

	// $100.00 subtotal, 20% off would be $20.00 but the cap is $15.00.
	eval, err := Evaluate(c, 10000, evalNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), eval.DiscountCents)
}

func TestEvaluatePercentageUncapped(t *testing.T) {
	eval, err := Evaluate(validCoupon(), 10000, evalNow)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), eval.DiscountCents)
}

func TestEvaluatePercentageRoundsToCents(t *testing.T) {
	c := validCoupon()
	c.DiscountValue = 33

	// 33% of $0.50 is 16.5 cents, rounded half away from zero.
	eval, err := Evaluate(c, 50, evalNow)
	require.NoError(t, err)
	assert.Equal(t, int64(17), eval.DiscountCents)
}

func TestEvaluateFixedNeverExceedsSubtotal(t *testing.T) {
	c := domain.Coupon{
		Code:          "FLAT10",
		DiscountType:  domain.DiscountFixed,
		DiscountValue: 1000,
		ValidFrom:     evalNow.Add(-time.Hour),
		ValidUntil:    evalNow.Add(time.Hour),
	}

	eval, err := Evaluate(c, 600, evalNow)
	require.NoError(t, err)
	assert.Equal(t, int64(600), eval.DiscountCents, "discount must not push the subtotal negative")

	eval, err = Evaluate(c, 2500, evalNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), eval.DiscountCents)
}

func TestEvaluateExpired(t *testing.T) {
	c := validCoupon()

	_, err := Evaluate(c, 1000, c.ValidUntil.Add(time.Minute))
	assert.ErrorIs(t, err, domain.ErrCouponExpired)

	_, err = Evaluate(c, 1000, c.ValidFrom.Add(-time.Minute))
	assert.ErrorIs(t, err, domain.ErrCouponExpired)
}

func TestEvaluateUsageExceeded(t *testing.T) {
	c := validCoupon()
	c.UsageLimit = lo.ToPtr(3)
	c.UsageCount = 3

	_, err := Evaluate(c, 1000, evalNow)
	assert.ErrorIs(t, err, domain.ErrCouponUsageExceeded)
}

func TestEvaluateIsRepeatable(t *testing.T) {
	c := validCoupon()
	first, err := Evaluate(c, 10000, evalNow)
	require.NoError(t, err)
	second, err := Evaluate(c, 10000, evalNow)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 0, c.UsageCount, "evaluation must not mutate usage counters")
}

type stubCouponRepo struct {
	coupon      *domain.Coupon
	getErr      error
	redeemErr   error
	redeemCalls int
	lastCode    string
}

func (s *stubCouponRepo) GetByCode(_ context.Context, code string) (*domain.Coupon, error) {
	s.lastCode = code
	return s.coupon, s.getErr
}

func (s *stubCouponRepo) Redeem(_ context.Context, _ string) error {
	s.redeemCalls++
	return s.redeemErr
}

func TestServiceEvaluateCodeNotFound(t *testing.T) {
	svc := New(&stubCouponRepo{getErr: domain.ErrNotFound})
	_, err := svc.EvaluateCode(context.Background(), "NOPE", 1000, evalNow)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServiceEvaluateCodeNormalizesCode(t *testing.T) {
	c := validCoupon()
	repo := &stubCouponRepo{coupon: &c}
	svc := New(repo)

	eval, err := svc.EvaluateCode(context.Background(), "  save20 ", 10000, evalNow)
	require.NoError(t, err)
	assert.Equal(t, "SAVE20", repo.lastCode)
	assert.Equal(t, int64(2000), eval.DiscountCents)
	assert.Equal(t, 0, repo.redeemCalls, "evaluation must never redeem")
}
