package reconcile

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ybt-digital/internal/domain"
	"ybt-digital/internal/payment"
)

// stubOrderRepo is an in-memory order store whose TransitionStatus has the
// same compare-and-set semantics as the SQL implementation.
type stubOrderRepo struct {
	mu       sync.Mutex
	orders   map[string]*domain.Order
	attempts map[string]*domain.PaymentAttempt
	flags    map[string][]string
}

func newStubOrderRepo(orders ...*domain.Order) *stubOrderRepo {
	r := &stubOrderRepo{
		orders:   map[string]*domain.Order{},
		attempts: map[string]*domain.PaymentAttempt{},
		flags:    map[string][]string{},
	}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *stubOrderRepo) addAttempt(a *domain.PaymentAttempt) {
	r.attempts[a.ID] = a
}

func (r *stubOrderRepo) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *stubOrderRepo) TransitionStatus(_ context.Context, id string, from []domain.OrderStatus, to domain.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if o.Status == f {
			o.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (r *stubOrderRepo) Flag(_ context.Context, id, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[id]; ok {
		o.Flagged = true
	}
	r.flags[id] = append(r.flags[id], reason)
	return nil
}

func (r *stubOrderRepo) GetAttemptByReference(_ context.Context, provider, reference string) (*domain.PaymentAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.Provider == provider && a.ProviderReference == reference {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *stubOrderRepo) FinalizeAttempt(_ context.Context, attemptID string, status domain.PaymentStatus, confirmedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[attemptID]
	if !ok || a.Status != domain.PaymentStatusInitiated {
		return false, nil
	}
	a.Status = status
	a.ConfirmedAt = &confirmedAt
	return true, nil
}

type stubRedeemer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (s *stubRedeemer) Redeem(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, code)
	return s.err
}

type countingUnlocker struct {
	mu    sync.Mutex
	count int
	err   error
}

func (u *countingUnlocker) Unlock(_ context.Context, _ domain.Order) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.count++
	return u.err
}

func awaitingOrder() *domain.Order {
	code := "SAVE20"
	return &domain.Order{
		ID:            "ord-1",
		Status:        domain.OrderStatusAwaitingPayment,
		TotalCents:    9500,
		Currency:      "USD",
		CouponCode:    &code,
		Shipping:      domain.ShippingInfo{Email: "jo@example.com"},
		CreatedAt:     time.Now(),
		SubtotalCents: 10000,
		TaxCents:      1000,
		DiscountCents: 1500,
	}
}

func successResult() payment.Result {
	return payment.Result{
		Provider:    "stripe",
		Reference:   "pi_123",
		AmountCents: 9500,
		Currency:    "USD",
		Status:      payment.ResultSucceeded,
	}
}

func TestReconcileSuccess(t *testing.T) {
	repo := newStubOrderRepo(awaitingOrder())
	repo.addAttempt(&domain.PaymentAttempt{
		ID:                "att-1",
		OrderID:           "ord-1",
		Provider:          "stripe",
		ProviderReference: "pi_123",
		AmountCents:       9500,
		Currency:          "USD",
		Status:            domain.PaymentStatusInitiated,
	})
	redeemer := &stubRedeemer{}
	unlocker := &countingUnlocker{}
	svc := New(repo, redeemer, unlocker, nil)

	order, outcome, err := svc.Reconcile(context.Background(), "ord-1", successResult())
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	assert.False(t, order.Flagged)
	assert.Equal(t, []string{"SAVE20"}, redeemer.calls)
	assert.Equal(t, 1, unlocker.count)

	att := repo.attempts["att-1"]
	assert.Equal(t, domain.PaymentStatusSucceeded, att.Status)
	require.NotNil(t, att.ConfirmedAt)
}

func TestReconcileDuplicateCallbackIsNoOp(t *testing.T) {
	repo := newStubOrderRepo(awaitingOrder())
	redeemer := &stubRedeemer{}
	unlocker := &countingUnlocker{}
	svc := New(repo, redeemer, unlocker, nil)

	_, outcome, err := svc.Reconcile(context.Background(), "ord-1", successResult())
	require.NoError(t, err)
	require.Equal(t, OutcomeApplied, outcome)

	order, outcome, err := svc.Reconcile(context.Background(), "ord-1", successResult())
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyFinalized, outcome)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	assert.Equal(t, 1, unlocker.count, "unlock must fire exactly once")
	assert.Len(t, redeemer.calls, 1)
}

func TestReconcileConcurrentCallbacksApplyOnce(t *testing.T) {
	repo := newStubOrderRepo(awaitingOrder())
	redeemer := &stubRedeemer{}
	unlocker := &countingUnlocker{}
	svc := New(repo, redeemer, unlocker, nil)

	const callers = 16
	outcomes := make(chan Outcome, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, outcome, err := svc.Reconcile(context.Background(), "ord-1", successResult())
			require.NoError(t, err)
			outcomes <- outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	applied := 0
	for outcome := range outcomes {
		if outcome == OutcomeApplied {
			applied++
		}
	}
	assert.Equal(t, 1, applied, "exactly one caller wins the transition")
	assert.Equal(t, 1, unlocker.count)
	assert.Len(t, redeemer.calls, 1)
}

func TestReconcileAmountMismatchFailsAndFlags(t *testing.T) {
	repo := newStubOrderRepo(awaitingOrder())
	repo.addAttempt(&domain.PaymentAttempt{
		ID:                "att-1",
		OrderID:           "ord-1",
		Provider:          "stripe",
		ProviderReference: "pi_123",
		Status:            domain.PaymentStatusInitiated,
	})
	redeemer := &stubRedeemer{}
	unlocker := &countingUnlocker{}
	svc := New(repo, redeemer, unlocker, nil)

	result := successResult()
	result.AmountCents = 100

	order, outcome, err := svc.Reconcile(context.Background(), "ord-1", result)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, domain.OrderStatusFailed, order.Status)
	assert.True(t, order.Flagged)
	assert.Equal(t, 0, unlocker.count)
	assert.Empty(t, redeemer.calls)
	assert.Equal(t, domain.PaymentStatusFailed, repo.attempts["att-1"].Status)
}

func TestReconcileCurrencyMismatchFailsAndFlags(t *testing.T) {
	repo := newStubOrderRepo(awaitingOrder())
	svc := New(repo, &stubRedeemer{}, &countingUnlocker{}, nil)

	result := successResult()
	result.Currency = "EUR"

	order, outcome, err := svc.Reconcile(context.Background(), "ord-1", result)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, domain.OrderStatusFailed, order.Status)
	assert.True(t, order.Flagged)
}

func TestReconcileCancelledResult(t *testing.T) {
	repo := newStubOrderRepo(awaitingOrder())
	repo.addAttempt(&domain.PaymentAttempt{
		ID:                "att-1",
		OrderID:           "ord-1",
		Provider:          "razorpay",
		ProviderReference: "order_abc",
		Status:            domain.PaymentStatusInitiated,
	})
	unlocker := &countingUnlocker{}
	svc := New(repo, &stubRedeemer{}, unlocker, nil)

	result := payment.Result{
		Provider:  "razorpay",
		Reference: "order_abc",
		Status:    payment.ResultCancelled,
	}
	order, outcome, err := svc.Reconcile(context.Background(), "ord-1", result)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, domain.OrderStatusFailed, order.Status)
	assert.False(t, order.Flagged)
	assert.Equal(t, 0, unlocker.count)
	assert.Equal(t, domain.PaymentStatusCancelled, repo.attempts["att-1"].Status)
}

func TestReconcileRedeemFailureKeepsOrderCompleted(t *testing.T) {
	repo := newStubOrderRepo(awaitingOrder())
	redeemer := &stubRedeemer{err: domain.ErrCouponUsageExceeded}
	unlocker := &countingUnlocker{}
	svc := New(repo, redeemer, unlocker, nil)

	order, outcome, err := svc.Reconcile(context.Background(), "ord-1", successResult())
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	assert.True(t, order.Flagged, "redeem failure is flagged for review")
	assert.Equal(t, 1, unlocker.count)
}

func TestReconcileUnlockFailureFlags(t *testing.T) {
	repo := newStubOrderRepo(awaitingOrder())
	unlocker := &countingUnlocker{err: context.DeadlineExceeded}
	svc := New(repo, &stubRedeemer{}, unlocker, nil)

	order, outcome, err := svc.Reconcile(context.Background(), "ord-1", successResult())
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status, "payment stays applied")
	assert.True(t, order.Flagged)
}

func TestReconcileByReference(t *testing.T) {
	repo := newStubOrderRepo(awaitingOrder())
	repo.addAttempt(&domain.PaymentAttempt{
		ID:                "att-1",
		OrderID:           "ord-1",
		Provider:          "stripe",
		ProviderReference: "pi_123",
		Status:            domain.PaymentStatusInitiated,
	})
	svc := New(repo, &stubRedeemer{}, &countingUnlocker{}, nil)

	order, outcome, err := svc.ReconcileByReference(context.Background(), successResult())
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	assert.Equal(t, "ord-1", order.ID)
}

func TestReconcileUnknownReference(t *testing.T) {
	repo := newStubOrderRepo(awaitingOrder())
	svc := New(repo, &stubRedeemer{}, &countingUnlocker{}, nil)

	_, _, err := svc.ReconcileByReference(context.Background(), successResult())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReconcileUnknownOrder(t *testing.T) {
	repo := newStubOrderRepo()
	svc := New(repo, &stubRedeemer{}, &countingUnlocker{}, nil)

	_, _, err := svc.Reconcile(context.Background(), "missing", successResult())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
