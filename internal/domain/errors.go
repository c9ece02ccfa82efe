package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// Cart and shipping validation.
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// Coupon evaluation.
	ErrCouponExpired       = errors.New("coupon expired")
	ErrCouponUsageExceeded = errors.New("coupon usage limit exceeded")

	// Reconciliation.
	ErrAmountMismatch   = errors.New("payment amount does not match order total")
	ErrAlreadyFinalized = errors.New("order already finalized")

	// Callback authenticity. Results failing verification are discarded and
	// never reach reconciliation.
	ErrInvalidSignature = errors.New("invalid callback signature")
)
