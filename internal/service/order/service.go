package order

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"ybt-digital/internal/domain"
	orderrepo "ybt-digital/internal/repository/order"
	couponsvc "ybt-digital/internal/service/coupon"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type productRepo interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

type orderRepo interface {
	Create(ctx context.Context, in orderrepo.CreateOrderInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	TransitionStatus(ctx context.Context, id string, from []domain.OrderStatus, to domain.OrderStatus) (bool, error)
}

type couponEvaluator interface {
	EvaluateCode(ctx context.Context, code string, subtotalCents int64, now time.Time) (couponsvc.Evaluation, error)
}

// Service is the only creation point for orders. Prices are re-resolved from
// the catalog at build time; client-echoed prices are never trusted.
type Service struct {
	products productRepo
	orders   orderRepo
	coupons  couponEvaluator
	taxRate  decimal.Decimal
	currency string
	logger   *log.Logger
	now      func() time.Time
}

func New(products productRepo, orders orderRepo, coupons couponEvaluator, taxRate decimal.Decimal, currencyCode string, logger *log.Logger) (*Service, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", currencyCode, err)
	}
	return &Service{
		products: products,
		orders:   orders,
		coupons:  coupons,
		taxRate:  taxRate,
		currency: unit.String(),
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Build converts a validated cart, shipping form, and optional coupon code
// into a persisted pending order with frozen line snapshots.
func (s *Service) Build(ctx context.Context, cart domain.CartSnapshot, shipping domain.ShippingInfo, couponCode string) (*domain.Order, error) {
	if err := cart.Validate(); err != nil {
		return nil, err
	}
	if err := shipping.Validate(); err != nil {
		return nil, err
	}

	ids := lo.Uniq(lo.Map(cart.Items, func(item domain.CartItem, _ int) string { return item.ProductID }))
	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve prices: %w", err)
	}

	var lines []orderrepo.LineInput
	var subtotal int64
	for _, item := range cart.Items {
		p, ok := products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, domain.ErrNotFound)
		}
		lines = append(lines, orderrepo.LineInput{
			ProductID:      p.ID,
			Title:          p.Title,
			Quantity:       item.Quantity,
			UnitPriceCents: p.PriceCents,
		})
		subtotal += p.PriceCents * int64(item.Quantity)
	}

	tax := decimal.NewFromInt(subtotal).Mul(s.taxRate).Round(0).IntPart()

	var discount int64
	var appliedCode *string
	if strings.TrimSpace(couponCode) != "" {
		eval, err := s.coupons.EvaluateCode(ctx, couponCode, subtotal, s.now())
		if err != nil {
			return nil, err
		}
		discount = eval.DiscountCents
		appliedCode = lo.ToPtr(eval.Coupon.Code)
	}

	total := subtotal + tax - discount
	if total < 0 {
		total = 0
	}

	created, err := s.orders.Create(ctx, orderrepo.CreateOrderInput{
		Lines:         lines,
		SubtotalCents: subtotal,
		TaxCents:      tax,
		DiscountCents: discount,
		TotalCents:    total,
		Currency:      s.currency,
		CouponCode:    appliedCode,
		Shipping:      shipping,
	})
	if err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	s.logger.Printf("order service: built order_id=%s subtotal=%d tax=%d discount=%d total=%d",
		created.ID, subtotal, tax, discount, total)
	return created, nil
}

// Get exposes the order for status polling by the presentation collaborator.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

// Cancel explicitly cancels a not-yet-paid order. Terminal orders never move.
func (s *Service) Cancel(ctx context.Context, id string) (*domain.Order, error) {
	applied, err := s.orders.TransitionStatus(ctx, id,
		[]domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusAwaitingPayment},
		domain.OrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !applied {
		current, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return current, domain.ErrAlreadyFinalized
	}
	return s.orders.GetByID(ctx, id)
}
