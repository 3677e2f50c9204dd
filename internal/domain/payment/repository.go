package payment

import (
	"context"

	"github.com/rai-abhi24/cgpey/internal/types"
)

// Repository defines the interface for payment persistence
type Repository interface {
	// Payment operations
	Create(ctx context.Context, payment *Payment) error
	Get(ctx context.Context, id string) (*Payment, error)
	// GetByOrderID resolves either the internal order id or the merchant
	// order id for the given gateway
	GetByOrderID(ctx context.Context, orderID string, gateway types.PaymentGatewayType) (*Payment, error)
	GetByGatewayTxnID(ctx context.Context, gatewayTxnID string) (*Payment, error)
	Update(ctx context.Context, payment *Payment) error
	List(ctx context.Context, filter *Filter) ([]*Payment, error)

	// TransitionState applies a state change only if the payment is
	// currently non-terminal. Returns (false, nil) when another writer
	// already reached a terminal state; the caller must treat that as a
	// no-op, not an error.
	TransitionState(ctx context.Context, id string, to types.PaymentState, utr *string) (bool, error)

	// Refund operations; at most one non-FAILED refund row per payment,
	// enforced at the store level. GetRefundByPaymentID returns the active
	// attempt when one exists.
	CreateRefund(ctx context.Context, refund *Refund) error
	GetRefund(ctx context.Context, refundID string) (*Refund, error)
	GetRefundByPaymentID(ctx context.Context, paymentID string) (*Refund, error)
	UpdateRefund(ctx context.Context, refund *Refund) error
}

// Filter narrows payment listings
type Filter struct {
	MerchantID string
	States     []types.PaymentState
	Gateway    types.PaymentGatewayType
	Limit      int
	Offset     int
}

// GetLimit returns the effective page size
func (f *Filter) GetLimit() int {
	if f == nil || f.Limit <= 0 {
		return 50
	}
	return f.Limit
}

// GetOffset returns the effective page offset
func (f *Filter) GetOffset() int {
	if f == nil || f.Offset < 0 {
		return 0
	}
	return f.Offset
}
