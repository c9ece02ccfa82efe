package coupon

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"ybt-digital/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *log.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *log.Logger) Repository {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) GetByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	const q = `
SELECT code, discount_type, discount_value, max_discount_cents, valid_from, valid_until, usage_limit, usage_count
FROM coupons
WHERE code = $1
`
	var c domain.Coupon
	var discountType string
	err := r.pool.QueryRow(ctx, q, normalize(code)).Scan(
		&c.Code,
		&discountType,
		&c.DiscountValue,
		&c.MaxDiscountCents,
		&c.ValidFrom,
		&c.ValidUntil,
		&c.UsageLimit,
		&c.UsageCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	c.DiscountType = domain.DiscountType(discountType)
	return &c, nil
}

// Redeem is the reservation-at-finalization step: the counter moves only here,
// and the limit guard lives in the WHERE clause so concurrent redemptions of
// the last slot cannot both win.
func (r *postgresRepo) Redeem(ctx context.Context, code string) error {
	const q = `
UPDATE coupons
SET usage_count = usage_count + 1
WHERE code = $1
  AND (usage_limit IS NULL OR usage_count < usage_limit)
`
	cmd, err := r.pool.Exec(ctx, q, normalize(code))
	if err != nil {
		r.logger.Printf("coupon repo: redeem code=%s error=%v", code, err)
		return err
	}
	if cmd.RowsAffected() == 0 {
		exists, err := r.exists(ctx, code)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrNotFound
		}
		return domain.ErrCouponUsageExceeded
	}
	return nil
}

func (r *postgresRepo) exists(ctx context.Context, code string) (bool, error) {
	var found bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM coupons WHERE code = $1)`, normalize(code)).Scan(&found)
	return found, err
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
