package domain

import "time"

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is immutable once issued; only UsageCount moves, and only when an
// order it was applied to is finalized.
type Coupon struct {
	Code string `json:"code"`
	// DiscountValue is a percentage (0-100) for percentage coupons and an
	// amount in cents for fixed coupons.
	DiscountType     DiscountType `json:"discountType"`
	DiscountValue    int64        `json:"discountValue"`
	MaxDiscountCents *int64       `json:"maxDiscountCents,omitempty"`
	ValidFrom        time.Time    `json:"validFrom"`
	ValidUntil       time.Time    `json:"validUntil"`
	UsageLimit       *int         `json:"usageLimit,omitempty"`
	UsageCount       int          `json:"usageCount"`
}
