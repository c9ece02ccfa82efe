// Package reconcile is the sole writer of order status transitions out of
// pending/awaiting_payment. It applies a verified payment result to an order
// exactly once, no matter how many duplicated callbacks or concurrent status
// polls deliver it.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"ybt-digital/internal/domain"
	"ybt-digital/internal/payment"
)

// Outcome tells the caller whether this invocation applied the transition or
// found the order already finalized by an earlier (or concurrent) one.
type Outcome string

const (
	OutcomeApplied          Outcome = "applied"
	OutcomeAlreadyFinalized Outcome = "already_finalized"
)

type orderRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	TransitionStatus(ctx context.Context, id string, from []domain.OrderStatus, to domain.OrderStatus) (bool, error)
	Flag(ctx context.Context, id, reason string) error
	GetAttemptByReference(ctx context.Context, provider, reference string) (*domain.PaymentAttempt, error)
	FinalizeAttempt(ctx context.Context, attemptID string, status domain.PaymentStatus, confirmedAt time.Time) (bool, error)
}

type couponRedeemer interface {
	Redeem(ctx context.Context, code string) error
}

// Unlocker is the entitlement-unlock collaborator, fired exactly once per
// completed order.
type Unlocker interface {
	Unlock(ctx context.Context, order domain.Order) error
}

type UnlockerFunc func(ctx context.Context, order domain.Order) error

func (f UnlockerFunc) Unlock(ctx context.Context, order domain.Order) error { return f(ctx, order) }

type Service struct {
	orders   orderRepo
	coupons  couponRedeemer
	unlocker Unlocker
	logger   *log.Logger
	now      func() time.Time
}

func New(orders orderRepo, coupons couponRedeemer, unlocker Unlocker, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{
		orders:   orders,
		coupons:  coupons,
		unlocker: unlocker,
		logger:   logger,
		now:      time.Now,
	}
}

// openStatuses are the only statuses reconciliation may transition away from.
var openStatuses = []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusAwaitingPayment}

// ReconcileByReference resolves the order behind a provider reference and
// reconciles it. Webhook handlers use this, since provider callbacks carry
// their own reference, not our order ID.
func (s *Service) ReconcileByReference(ctx context.Context, result payment.Result) (*domain.Order, Outcome, error) {
	attempt, err := s.orders.GetAttemptByReference(ctx, result.Provider, result.Reference)
	if err != nil {
		return nil, "", fmt.Errorf("resolve attempt %s/%s: %w", result.Provider, result.Reference, err)
	}
	return s.Reconcile(ctx, attempt.OrderID, result)
}

// Reconcile applies a verified payment result to the order. Idempotent: a
// terminal order is returned unchanged regardless of the result's content.
// Exactly one concurrent caller wins the compare-and-transition; losers
// re-read the terminal state and report it without side effects.
func (s *Service) Reconcile(ctx context.Context, orderID string, result payment.Result) (*domain.Order, Outcome, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if order.Status.IsTerminal() {
		return order, OutcomeAlreadyFinalized, nil
	}

	target := domain.OrderStatusFailed
	flagReason := ""
	attemptStatus := domain.PaymentStatusFailed

	switch result.Status {
	case payment.ResultSucceeded:
		if err := amountMatches(result, *order); err != nil {
			// A mismatched amount is never accepted as success, whatever
			// the provider reported.
			flagReason = err.Error()
		} else {
			target = domain.OrderStatusCompleted
			attemptStatus = domain.PaymentStatusSucceeded
		}
	case payment.ResultCancelled:
		attemptStatus = domain.PaymentStatusCancelled
	case payment.ResultFailed:
		// defaults hold
	default:
		return nil, "", fmt.Errorf("unknown payment result status %q", result.Status)
	}

	applied, err := s.orders.TransitionStatus(ctx, orderID, openStatuses, target)
	if err != nil {
		return nil, "", fmt.Errorf("transition order %s: %w", orderID, err)
	}
	if !applied {
		// Lost the race: someone else finalized first. Not an error.
		current, err := s.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, "", err
		}
		s.logger.Printf("reconcile: order_id=%s already finalized as %s", orderID, current.Status)
		return current, OutcomeAlreadyFinalized, nil
	}

	s.finalizeAttempt(ctx, result, attemptStatus)

	if flagReason != "" {
		if err := s.orders.Flag(ctx, orderID, flagReason); err != nil {
			s.logger.Printf("reconcile: flag order_id=%s error=%v", orderID, err)
		}
		s.logger.Printf("reconcile: order_id=%s failed integrity check: %s", orderID, flagReason)
	}

	if target == domain.OrderStatusCompleted {
		s.redeemCoupon(ctx, *order)
		if err := s.unlocker.Unlock(ctx, *order); err != nil {
			// Payment is applied; entitlement delivery gets retried manually.
			s.logger.Printf("reconcile: entitlement unlock order_id=%s error=%v", orderID, err)
			if flagErr := s.orders.Flag(ctx, orderID, "entitlement unlock failed"); flagErr != nil {
				s.logger.Printf("reconcile: flag order_id=%s error=%v", orderID, flagErr)
			}
		}
	}

	final, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Printf("reconcile: order_id=%s applied status=%s provider=%s", orderID, final.Status, result.Provider)
	return final, OutcomeApplied, nil
}

func (s *Service) finalizeAttempt(ctx context.Context, result payment.Result, status domain.PaymentStatus) {
	attempt, err := s.orders.GetAttemptByReference(ctx, result.Provider, result.Reference)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Printf("reconcile: attempt lookup %s/%s error=%v", result.Provider, result.Reference, err)
		}
		return
	}
	applied, err := s.orders.FinalizeAttempt(ctx, attempt.ID, status, s.now())
	if err != nil {
		s.logger.Printf("reconcile: finalize attempt %s error=%v", attempt.ID, err)
		return
	}
	if !applied {
		s.logger.Printf("reconcile: attempt %s already finalized", attempt.ID)
	}
}

func (s *Service) redeemCoupon(ctx context.Context, order domain.Order) {
	if order.CouponCode == nil {
		return
	}
	if err := s.coupons.Redeem(ctx, *order.CouponCode); err != nil {
		s.logger.Printf("reconcile: redeem coupon %s order_id=%s error=%v", *order.CouponCode, order.ID, err)
		if flagErr := s.orders.Flag(ctx, order.ID, "coupon redemption failed: "+err.Error()); flagErr != nil {
			s.logger.Printf("reconcile: flag order_id=%s error=%v", order.ID, flagErr)
		}
	}
}

func amountMatches(result payment.Result, order domain.Order) error {
	if result.AmountCents != order.TotalCents {
		return fmt.Errorf("%w: provider reported %d, order total %d",
			domain.ErrAmountMismatch, result.AmountCents, order.TotalCents)
	}
	if !strings.EqualFold(result.Currency, order.Currency) {
		return fmt.Errorf("%w: provider reported %s, order currency %s",
			domain.ErrAmountMismatch, result.Currency, order.Currency)
	}
	return nil
}
