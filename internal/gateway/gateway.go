package gateway

import (
	"context"

	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/shopspring/decimal"
)

// InitiateRequest is the gateway-agnostic payment initiation request
type InitiateRequest struct {
	OrderID     string
	Amount      decimal.Decimal
	Currency    string
	PaymentMode types.PaymentMode
	// VPA is the payer's UPI id for collect flows
	VPA         string
	RedirectURL string
	CallbackURL string
}

// InitiateResponse carries the handoff target for the chosen instrument.
// Exactly one of the three URLs is set depending on the payment mode.
type InitiateResponse struct {
	GatewayTxnID string
	// CheckoutURL is the hosted page for UPI collect and QR flows
	CheckoutURL string
	// IntentURL is the UPI deep link handed to an installed app
	IntentURL string
	// RedirectURL is the upstream hosted page for card and net banking
	RedirectURL string
	State       types.PaymentState
}

// VerifyResponse is the normalized result of a status check
type VerifyResponse struct {
	// RawState is the state string exactly as the gateway returned it
	RawState string
	State    types.PaymentState
	// UTR is the bank reference number, present on success where applicable
	UTR          string
	GatewayTxnID string
}

// RefundRequest initiates a refund; RefundID doubles as the idempotency
// token so a client retry does not create two refunds upstream
type RefundRequest struct {
	RefundID string
	OrderID  string
	Amount   decimal.Decimal
}

// RefundStatusResponse is the normalized result of a refund status check
type RefundStatusResponse struct {
	RawState string
	State    types.RefundState
}

// CallbackEvent is a normalized inbound gateway callback
type CallbackEvent struct {
	// EventID uniquely identifies this callback at the gateway. Gateways
	// without explicit ids get a digest of the raw payload, so a re-sent
	// callback still deduplicates.
	EventID string
	// Event is the gateway's event code, e.g. PAYMENT_SUCCESS
	Event string
	// OrderID is the transaction reference we handed to the gateway. For
	// refund callbacks this carries the refund id instead.
	OrderID      string
	GatewayTxnID string
	RawState     string
	State        types.PaymentState
	UTR          string
	// Verified reports whether the callback signature checked out
	Verified bool
	// Parsed is the decoded callback body, retained for audit
	Parsed []byte
}

// Client is the interface to an upstream payment gateway
type Client interface {
	InitiatePayment(ctx context.Context, req *InitiateRequest) (*InitiateResponse, error)
	VerifyVPA(ctx context.Context, vpa string) (bool, error)
	VerifyPayment(ctx context.Context, orderID string) (*VerifyResponse, error)
	InitiateRefund(ctx context.Context, req *RefundRequest) error
	RefundStatus(ctx context.Context, refundID string) (*RefundStatusResponse, error)
	// ParseCallback decodes and verifies an inbound webhook body. A bad
	// signature is reported through CallbackEvent.Verified, not an error,
	// so the callback can still be stored for audit.
	ParseCallback(raw []byte, signature string) (*CallbackEvent, error)
}
