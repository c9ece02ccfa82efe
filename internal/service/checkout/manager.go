package checkout

import (
	"context"
	"sync"
	"time"

	"ybt-digital/internal/domain"
	"github.com/google/uuid"
)

type orderGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

// Manager stores checkout sessions in memory. Sessions are shopper-scoped and
// ephemeral; abandoning one needs no cleanup beyond eventual expiry.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	orders   orderGetter
}

func NewManager(orders orderGetter) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		orders:   orders,
	}
}

func (m *Manager) Create(cart domain.CartSnapshot) *Session {
	session := &Session{
		ID:        uuid.NewString(),
		Stage:     StageCart,
		Cart:      cart,
		CreatedAt: time.Now().UTC(),
	}
	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()
	return session
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	session, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

// Advance applies any stage inputs and runs the stage validator. At the
// Payment stage the session's order is re-read so Confirmation is gated on a
// reconciled, completed payment rather than on provider-session creation.
func (m *Manager) Advance(ctx context.Context, id string, in StageInput) (*Session, error) {
	session, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	var order *domain.Order
	if session.Stage == StagePayment && session.OrderID != "" {
		order, err = m.orders.GetByID(ctx, session.OrderID)
		if err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	in.apply(session)
	if err := session.Advance(order); err != nil {
		return nil, err
	}
	return session, nil
}

func (m *Manager) Retreat(id string) (*Session, error) {
	session, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := session.Retreat(); err != nil {
		return nil, err
	}
	return session, nil
}

// AttachOrder links the persisted order built for this session.
func (m *Manager) AttachOrder(id, orderID string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	session.OrderID = orderID
	m.mu.Unlock()
	return nil
}

// StageInput carries the optional per-stage form data submitted alongside an
// advance action.
type StageInput struct {
	Cart     *domain.CartSnapshot
	Shipping *domain.ShippingInfo
	Provider string
}

func (in StageInput) apply(s *Session) {
	if in.Cart != nil {
		s.Cart = *in.Cart
	}
	if in.Shipping != nil {
		s.Shipping = *in.Shipping
	}
	if in.Provider != "" {
		s.Provider = in.Provider
	}
}
