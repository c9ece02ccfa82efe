package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
)

type productSeed struct {
	SKU         string
	Title       string
	Description string
	PriceCents  int64
	Currency    string
}

type couponSeed struct {
	Code             string
	DiscountType     string
	DiscountValue    int64
	MaxDiscountCents *int64
	ValidFor         time.Duration
	UsageLimit       *int
}

// Apply inserts storefront seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	products := []productSeed{
		{
			SKU:         "YBT-EBOOK-GO",
			Title:       "Practical Backend Patterns (eBook)",
			Description: "A 300-page PDF on building storefront backends",
			PriceCents:  2900,
			Currency:    "USD",
		},
		{
			SKU:         "YBT-ICONS-PRO",
			Title:       "Pro Icon Pack",
			Description: "1200 vector icons, SVG and PNG",
			PriceCents:  1900,
			Currency:    "USD",
		},
		{
			SKU:         "YBT-COURSE-PAY",
			Title:       "Payments Integration Course",
			Description: "Video course covering gateway integration end to end",
			PriceCents:  10000,
			Currency:    "USD",
		},
	}

	coupons := []couponSeed{
		{
			Code:             "SAVE20",
			DiscountType:     "percentage",
			DiscountValue:    20,
			MaxDiscountCents: lo.ToPtr(int64(1500)),
			ValidFor:         90 * 24 * time.Hour,
		},
		{
			Code:          "WELCOME5",
			DiscountType:  "fixed",
			DiscountValue: 500,
			ValidFor:      365 * 24 * time.Hour,
			UsageLimit:    lo.ToPtr(1000),
		},
	}

	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}
	for _, c := range coupons {
		if err := upsertCoupon(ctx, pool, c); err != nil {
			return fmt.Errorf("upsert coupon %s: %w", c.Code, err)
		}
	}

	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (sku, title, description, price_cents, currency, active)
VALUES ($1, $2, $3, $4, $5, TRUE)
ON CONFLICT (sku) DO UPDATE
SET title = EXCLUDED.title,
    description = EXCLUDED.description,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency,
    active = TRUE
`
	_, err := pool.Exec(ctx, q, p.SKU, p.Title, p.Description, p.PriceCents, p.Currency)
	return err
}

func upsertCoupon(ctx context.Context, pool *pgxpool.Pool, c couponSeed) error {
	now := time.Now().UTC()
	const q = `
INSERT INTO coupons (code, discount_type, discount_value, max_discount_cents, valid_from, valid_until, usage_limit)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (code) DO UPDATE
SET discount_type = EXCLUDED.discount_type,
    discount_value = EXCLUDED.discount_value,
    max_discount_cents = EXCLUDED.max_discount_cents,
    valid_until = EXCLUDED.valid_until,
    usage_limit = EXCLUDED.usage_limit
`
	_, err := pool.Exec(ctx, q, c.Code, c.DiscountType, c.DiscountValue, c.MaxDiscountCents,
		now, now.Add(c.ValidFor), c.UsageLimit)
	return err
}
