package checkout

import (
	"context"
	"errors"
	"testing"

	"ybt-digital/internal/domain"
)

type stubOrderGetter struct {
	order *domain.Order
	err   error
}

func (s *stubOrderGetter) GetByID(_ context.Context, _ string) (*domain.Order, error) {
	return s.order, s.err
}

func validCart() domain.CartSnapshot {
	return domain.CartSnapshot{Items: []domain.CartItem{{ProductID: "p1", Quantity: 2}}}
}

func validShipping() domain.ShippingInfo {
	return domain.ShippingInfo{
		Name:       "Ada Lovelace",
		Email:      "ada@example.com",
		Address:    "12 Analytical Row",
		City:       "London",
		Country:    "GB",
		PostalCode: "N1 9GU",
	}
}

func TestAdvanceEmptyCartStaysPut(t *testing.T) {
	m := NewManager(&stubOrderGetter{})
	session := m.Create(domain.CartSnapshot{})

	_, err := m.Advance(context.Background(), session.ID, StageInput{})
	if !errors.Is(err, domain.ErrEmptyCart) {
		t.Fatalf("expected empty cart error, got %v", err)
	}
	if session.Stage != StageCart {
		t.Fatalf("session must not advance on failed validation, at %s", session.Stage)
	}
}

func TestAdvanceInvalidQuantityStaysPut(t *testing.T) {
	m := NewManager(&stubOrderGetter{})
	session := m.Create(domain.CartSnapshot{Items: []domain.CartItem{{ProductID: "p1", Quantity: 0}}})

	_, err := m.Advance(context.Background(), session.ID, StageInput{})
	if !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Fatalf("expected quantity error, got %v", err)
	}
}

func TestAdvanceThroughShipping(t *testing.T) {
	m := NewManager(&stubOrderGetter{})
	session := m.Create(validCart())

	if _, err := m.Advance(context.Background(), session.ID, StageInput{}); err != nil {
		t.Fatalf("advance from cart: %v", err)
	}
	if session.Stage != StageShipping {
		t.Fatalf("expected shipping stage, got %s", session.Stage)
	}

	// Missing mandatory fields keep the session at Shipping.
	_, err := m.Advance(context.Background(), session.ID, StageInput{Shipping: &domain.ShippingInfo{Name: "Ada"}})
	var missing *domain.MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected missing fields error, got %v", err)
	}
	if session.Stage != StageShipping {
		t.Fatalf("expected shipping stage, got %s", session.Stage)
	}

	shipping := validShipping()
	if _, err := m.Advance(context.Background(), session.ID, StageInput{Shipping: &shipping}); err != nil {
		t.Fatalf("advance from shipping: %v", err)
	}
	if session.Stage != StagePayment {
		t.Fatalf("expected payment stage, got %s", session.Stage)
	}
}

func TestAdvanceFromPaymentRequiresProvider(t *testing.T) {
	m := NewManager(&stubOrderGetter{})
	session := m.Create(validCart())
	session.Stage = StagePayment

	_, err := m.Advance(context.Background(), session.ID, StageInput{})
	if !errors.Is(err, ErrProviderRequired) {
		t.Fatalf("expected provider required, got %v", err)
	}
}

func TestConfirmationRequiresCompletedOrder(t *testing.T) {
	pending := &domain.Order{ID: "o1", Status: domain.OrderStatusAwaitingPayment}
	getter := &stubOrderGetter{order: pending}
	m := NewManager(getter)
	session := m.Create(validCart())
	session.Stage = StagePayment
	session.Provider = "stripe"

	// No order attached: never optimistically confirmed.
	_, err := m.Advance(context.Background(), session.ID, StageInput{})
	if !errors.Is(err, ErrPaymentNotConfirmed) {
		t.Fatalf("expected payment not confirmed, got %v", err)
	}

	if err := m.AttachOrder(session.ID, "o1"); err != nil {
		t.Fatalf("attach order: %v", err)
	}

	// Order exists but payment has not landed.
	_, err = m.Advance(context.Background(), session.ID, StageInput{})
	if !errors.Is(err, ErrPaymentNotConfirmed) {
		t.Fatalf("expected payment not confirmed, got %v", err)
	}
	if session.Stage != StagePayment {
		t.Fatalf("expected payment stage, got %s", session.Stage)
	}

	getter.order = &domain.Order{ID: "o1", Status: domain.OrderStatusCompleted}
	if _, err := m.Advance(context.Background(), session.ID, StageInput{}); err != nil {
		t.Fatalf("advance to confirmation: %v", err)
	}
	if session.Stage != StageConfirmation {
		t.Fatalf("expected confirmation stage, got %s", session.Stage)
	}
}

func TestRetreatRules(t *testing.T) {
	m := NewManager(&stubOrderGetter{})
	session := m.Create(validCart())

	if _, err := m.Retreat(session.ID); !errors.Is(err, ErrAtFirstStage) {
		t.Fatalf("expected first stage error, got %v", err)
	}

	session.Stage = StagePayment
	if _, err := m.Retreat(session.ID); err != nil {
		t.Fatalf("retreat from payment: %v", err)
	}
	if session.Stage != StageShipping {
		t.Fatalf("expected shipping stage, got %s", session.Stage)
	}

	session.Stage = StageConfirmation
	if _, err := m.Retreat(session.ID); !errors.Is(err, ErrSessionConsumed) {
		t.Fatalf("expected consumed error, got %v", err)
	}
}

func TestManagerGetUnknownSession(t *testing.T) {
	m := NewManager(&stubOrderGetter{})
	if _, err := m.Get("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
