package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// InMemoryPaymentStore implements payment.Repository
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Payment]
	mu      sync.RWMutex
	refunds map[string]*payment.Refund
}

// NewInMemoryPaymentStore creates a new in-memory payment repository
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*payment.Payment](),
		refunds:       make(map[string]*payment.Refund),
	}
}

// Clear resets all stored data
func (m *InMemoryPaymentStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InMemoryStore.Clear()
	m.refunds = make(map[string]*payment.Refund)
}

func copyPayment(p *payment.Payment) *payment.Payment {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Refund = nil
	return &cp
}

func copyRefund(r *payment.Refund) *payment.Refund {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}

// refundFor picks the refund attached to a payment. The active refund
// wins over failed attempts; among failed attempts the newest wins.
// Callers must hold m.mu.
func (m *InMemoryPaymentStore) refundFor(paymentID string) *payment.Refund {
	var picked *payment.Refund
	for _, r := range m.refunds {
		if r.PaymentID != paymentID {
			continue
		}
		switch {
		case picked == nil:
			picked = r
		case picked.State == types.RefundStateFailed && r.State != types.RefundStateFailed:
			picked = r
		case picked.State == types.RefundStateFailed && r.State == types.RefundStateFailed && r.CreatedAt.After(picked.CreatedAt):
			picked = r
		}
	}
	return picked
}

// attachRefund hangs the refund sub-record off the payment, if one exists
func (m *InMemoryPaymentStore) attachRefund(p *payment.Payment) *payment.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r := m.refundFor(p.ID); r != nil {
		p.Refund = copyRefund(r)
	}
	return p
}

// Create stores a new payment
func (m *InMemoryPaymentStore) Create(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if p.ID == "" {
		return ierr.NewError("payment ID cannot be empty").
			WithHint("Payment ID cannot be empty").
			Mark(ierr.ErrValidation)
	}

	// The same merchant order id must not be reused for the same gateway
	existing, _ := m.InMemoryStore.List(ctx, nil, func(_ context.Context, item *payment.Payment, _ interface{}) bool {
		return item.MerchantID == p.MerchantID &&
			item.MerchantOrderID == p.MerchantOrderID &&
			item.Gateway == p.Gateway
	}, nil)
	if len(existing) > 0 {
		return ierr.NewError("payment already exists").
			WithHint("A payment with this order id already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	return m.InMemoryStore.Create(ctx, p.ID, copyPayment(p))
}

// Get retrieves a payment by ID
func (m *InMemoryPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, error) {
	p, err := m.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.attachRefund(copyPayment(p)), nil
}

// GetByOrderID resolves the internal or merchant order id for a gateway
func (m *InMemoryPaymentStore) GetByOrderID(ctx context.Context, orderID string, gateway types.PaymentGatewayType) (*payment.Payment, error) {
	matches, err := m.InMemoryStore.List(ctx, nil, func(_ context.Context, item *payment.Payment, _ interface{}) bool {
		return (item.OrderID == orderID || item.MerchantOrderID == orderID) && item.Gateway == gateway
	}, func(i, j *payment.Payment) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("payment not found").
			WithHint("No payment exists for this order id").
			Mark(ierr.ErrNotFound)
	}
	return m.attachRefund(copyPayment(matches[0])), nil
}

// GetByGatewayTxnID retrieves a payment by its gateway transaction id
func (m *InMemoryPaymentStore) GetByGatewayTxnID(ctx context.Context, gatewayTxnID string) (*payment.Payment, error) {
	matches, err := m.InMemoryStore.List(ctx, nil, func(_ context.Context, item *payment.Payment, _ interface{}) bool {
		return item.GatewayTxnID != nil && *item.GatewayTxnID == gatewayTxnID
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("payment not found").
			WithHint("No payment exists for this gateway transaction id").
			Mark(ierr.ErrNotFound)
	}
	return m.attachRefund(copyPayment(matches[0])), nil
}

// Update updates an existing payment
func (m *InMemoryPaymentStore) Update(ctx context.Context, p *payment.Payment) error {
	if p == nil {
		return ierr.NewError("payment cannot be nil").
			WithHint("Payment cannot be nil").
			Mark(ierr.ErrValidation)
	}
	p.UpdatedAt = time.Now().UTC()
	return m.InMemoryStore.Update(ctx, p.ID, copyPayment(p))
}

// List retrieves payments matching the filter, newest first
func (m *InMemoryPaymentStore) List(ctx context.Context, filter *payment.Filter) ([]*payment.Payment, error) {
	matches, err := m.InMemoryStore.List(ctx, filter, func(_ context.Context, item *payment.Payment, _ interface{}) bool {
		if filter == nil {
			return true
		}
		if filter.MerchantID != "" && item.MerchantID != filter.MerchantID {
			return false
		}
		if filter.Gateway != "" && item.Gateway != filter.Gateway {
			return false
		}
		if len(filter.States) > 0 {
			found := false
			for _, st := range filter.States {
				if item.State == st {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}, func(i, j *payment.Payment) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	start := filter.GetOffset()
	if start >= len(matches) {
		return []*payment.Payment{}, nil
	}
	end := start + filter.GetLimit()
	if end > len(matches) {
		end = len(matches)
	}

	result := make([]*payment.Payment, 0, end-start)
	for _, p := range matches[start:end] {
		result = append(result, m.attachRefund(copyPayment(p)))
	}
	return result, nil
}

// TransitionState applies the state change only while the payment is
// non-terminal. The first terminal write wins; later writers get
// (false, nil) and must treat it as a no-op.
func (m *InMemoryPaymentStore) TransitionState(ctx context.Context, id string, to types.PaymentState, utr *string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := m.InMemoryStore.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if p.State.IsTerminal() {
		return false, nil
	}

	now := time.Now().UTC()
	p.State = to
	if utr != nil {
		p.UTR = utr
	}
	if to.IsTerminal() {
		p.CompletedAt = &now
	}
	p.UpdatedAt = now
	return true, m.InMemoryStore.Update(ctx, id, p)
}

// CreateRefund stores a new refund; at most one non-failed refund exists
// per payment, matching the partial unique index in Postgres
func (m *InMemoryPaymentStore) CreateRefund(ctx context.Context, r *payment.Refund) error {
	if r == nil {
		return ierr.NewError("refund cannot be nil").
			WithHint("Refund cannot be nil").
			Mark(ierr.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.refunds {
		if existing.PaymentID == r.PaymentID && existing.State != types.RefundStateFailed {
			return ierr.NewError("refund already exists").
				WithHint("A refund already exists for this payment").
				Mark(ierr.ErrAlreadyExists)
		}
	}
	if _, exists := m.refunds[r.ID]; exists {
		return ierr.NewError("refund already exists").
			WithHint("A refund with this id already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	m.refunds[r.ID] = copyRefund(r)
	return nil
}

// GetRefund retrieves a refund by ID
func (m *InMemoryPaymentStore) GetRefund(ctx context.Context, refundID string) (*payment.Refund, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if r, exists := m.refunds[refundID]; exists {
		return copyRefund(r), nil
	}
	return nil, ierr.NewError("refund not found").
		WithHint("The requested refund does not exist").
		Mark(ierr.ErrNotFound)
}

// GetRefundByPaymentID retrieves the refund for a payment
func (m *InMemoryPaymentStore) GetRefundByPaymentID(ctx context.Context, paymentID string) (*payment.Refund, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if r := m.refundFor(paymentID); r != nil {
		return copyRefund(r), nil
	}
	return nil, ierr.NewError("refund not found").
		WithHint("No refund exists for this payment").
		Mark(ierr.ErrNotFound)
}

// UpdateRefund updates an existing refund
func (m *InMemoryPaymentStore) UpdateRefund(ctx context.Context, r *payment.Refund) error {
	if r == nil {
		return ierr.NewError("refund cannot be nil").
			WithHint("Refund cannot be nil").
			Mark(ierr.ErrValidation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.refunds[r.ID]; !exists {
		return ierr.NewError("refund not found").
			WithHint("The requested refund does not exist").
			Mark(ierr.ErrNotFound)
	}
	r.UpdatedAt = time.Now().UTC()
	m.refunds[r.ID] = copyRefund(r)
	return nil
}
