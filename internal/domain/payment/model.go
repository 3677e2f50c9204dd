package payment

import (
	"time"

	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/shopspring/decimal"
)

// Payment represents one checkout attempt and its lifecycle. Records are
// never deleted; they form an immutable audit trail.
type Payment struct {
	// Unique identifier for this payment, assigned at creation
	ID string `db:"id" json:"id"`
	// The merchant-supplied order reference. Unique within a
	// merchant+gateway combination, not globally
	MerchantOrderID string `db:"merchant_order_id" json:"merchant_order_id"`
	// Internal order id handed to the gateway (ord_ prefix). Distinct from
	// the merchant order id so that multiple gateway attempts can exist per
	// merchant order
	OrderID string `db:"order_id" json:"order_id"`
	// The owning merchant; never reassigned
	MerchantID string `db:"merchant_id" json:"merchant_id"`
	// The upstream provider, e.g. "phonepe"
	Gateway types.PaymentGatewayType `db:"gateway" json:"gateway"`
	// Assigned once the gateway acknowledges the transaction; unique when present
	GatewayTxnID *string `db:"gateway_txn_id" json:"gateway_txn_id,omitempty"`
	// Amount and currency are immutable once created
	Amount   decimal.Decimal `db:"amount" json:"amount"`
	Currency string          `db:"currency" json:"currency"`
	// Canonical, gateway-agnostic state
	State        types.PaymentState `db:"state" json:"state"`
	CheckoutType types.CheckoutType `db:"checkout_type" json:"checkout_type"`
	PaymentMode  types.PaymentMode  `db:"payment_mode" json:"payment_mode"`
	// Bank reference number, populated on success where applicable
	UTR                *string    `db:"utr" json:"utr,omitempty"`
	PaymentInitiatedAt time.Time  `db:"payment_initiated_at" json:"payment_initiated_at"`
	// Set only on terminal states
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	// The latest refund attempt, if any. At most one non-failed refund
	// exists per payment; failed attempts stay behind as history
	Refund *Refund `db:"-" json:"refund,omitempty"`

	types.BaseModel
}

// Refund is the refund sub-record of a payment. At most one non-failed
// refund exists per payment at a time; a FAILED attempt can be retried.
// REVERSED is an administratively triggered terminal override.
type Refund struct {
	// Client-generated at initiation time, used as the idempotency key
	// towards the gateway
	ID          string            `db:"id" json:"id"`
	PaymentID   string            `db:"payment_id" json:"payment_id"`
	Amount      decimal.Decimal   `db:"amount" json:"amount"`
	State       types.RefundState `db:"state" json:"state"`
	InitiatedAt time.Time         `db:"initiated_at" json:"initiated_at"`
	CompletedAt *time.Time        `db:"completed_at" json:"completed_at,omitempty"`

	types.BaseModel
}

// Validate validates the payment
func (p *Payment) Validate() error {
	if p.Amount.IsZero() || p.Amount.IsNegative() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if p.MerchantID == "" {
		return ierr.NewError("invalid merchant id").
			WithHint("Merchant id is required").
			Mark(ierr.ErrValidation)
	}
	if p.MerchantOrderID == "" {
		return ierr.NewError("invalid merchant order id").
			WithHint("Order id is required").
			Mark(ierr.ErrValidation)
	}
	if p.Currency == "" {
		return ierr.NewError("invalid currency").
			WithHint("Currency is required").
			Mark(ierr.ErrValidation)
	}
	if err := p.PaymentMode.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Payment mode is invalid").
			Mark(ierr.ErrValidation)
	}
	if err := p.Gateway.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Payment gateway is invalid").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Validate validates the refund against its parent payment
func (r *Refund) Validate(parent *Payment) error {
	if r.PaymentID == "" {
		return ierr.NewError("invalid payment id").
			WithHint("Payment id is required").
			Mark(ierr.ErrValidation)
	}
	if r.Amount.IsZero() || r.Amount.IsNegative() {
		return ierr.NewError("invalid refund amount").
			WithHint("Refund amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if parent != nil && r.Amount.GreaterThan(parent.Amount) {
		return ierr.NewError("refund amount exceeds payment amount").
			WithHint("Refund amount must not exceed the original payment amount").
			WithReportableDetails(map[string]any{
				"refund_amount":  r.Amount,
				"payment_amount": parent.Amount,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// HasActiveRefund reports whether a non-failed refund already exists
func (p *Payment) HasActiveRefund() bool {
	return p.Refund != nil && p.Refund.State != types.RefundStateFailed
}

// TableName returns the table name for the payment
func (p *Payment) TableName() string {
	return "payments"
}

// TableName returns the table name for the refund
func (r *Refund) TableName() string {
	return "refunds"
}
