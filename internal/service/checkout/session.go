package checkout

import (
	"errors"
	"strings"
	"time"

	"ybt-digital/internal/domain"
)

type Stage string

const (
	StageCart         Stage = "cart"
	StageShipping     Stage = "shipping"
	StagePayment      Stage = "payment"
	StageConfirmation Stage = "confirmation"
)

// stageOrder is linear; there is no branching or skipping.
var stageOrder = []Stage{StageCart, StageShipping, StagePayment, StageConfirmation}

var (
	ErrAtFirstStage        = errors.New("already at the first checkout stage")
	ErrSessionConsumed     = errors.New("checkout session is consumed")
	ErrProviderRequired    = errors.New("payment provider selection required")
	ErrPaymentNotConfirmed = errors.New("payment not confirmed for this session's order")
)

// Session is the explicit per-shopper checkout context: one active stage,
// advanced synchronously one user action at a time.
type Session struct {
	ID        string              `json:"id"`
	Stage     Stage               `json:"stage"`
	Cart      domain.CartSnapshot `json:"cart"`
	Shipping  domain.ShippingInfo `json:"shipping"`
	Provider  string              `json:"provider,omitempty"`
	OrderID   string              `json:"orderId,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
}

// Advance runs the current stage's validator and, on success, moves to the
// next stage. It never advances on partial validation. Entering Confirmation
// additionally requires the session's order to be completed — a provider
// session alone is never enough.
func (s *Session) Advance(order *domain.Order) error {
	if err := s.validateStage(order); err != nil {
		return err
	}
	for i, stage := range stageOrder {
		if stage == s.Stage && i+1 < len(stageOrder) {
			s.Stage = stageOrder[i+1]
			return nil
		}
	}
	return ErrSessionConsumed
}

// Retreat steps back one stage. It is never permitted from Cart (nothing
// before it) or Confirmation (the session is consumed once payment landed).
func (s *Session) Retreat() error {
	switch s.Stage {
	case StageCart:
		return ErrAtFirstStage
	case StageConfirmation:
		return ErrSessionConsumed
	}
	for i, stage := range stageOrder {
		if stage == s.Stage {
			s.Stage = stageOrder[i-1]
			return nil
		}
	}
	return ErrSessionConsumed
}

func (s *Session) validateStage(order *domain.Order) error {
	switch s.Stage {
	case StageCart:
		return s.Cart.Validate()
	case StageShipping:
		return s.Shipping.Validate()
	case StagePayment:
		if strings.TrimSpace(s.Provider) == "" {
			return ErrProviderRequired
		}
		if order == nil || order.Status != domain.OrderStatusCompleted {
			return ErrPaymentNotConfirmed
		}
		return nil
	default:
		return ErrSessionConsumed
	}
}
