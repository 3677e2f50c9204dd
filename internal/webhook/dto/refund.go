package dto

import (
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/shopspring/decimal"
)

// InternalRefundEvent is the bus envelope for refund lifecycle events
type InternalRefundEvent struct {
	RefundID   string `json:"refund_id"`
	PaymentID  string `json:"payment_id"`
	MerchantID string `json:"merchant_id"`
}

// RefundWebhookPayload is the body POSTed to the merchant endpoint for
// refund lifecycle events
type RefundWebhookPayload struct {
	EventType string          `json:"event_type"`
	Timestamp time.Time       `json:"timestamp"`
	Refund    *RefundSnapshot `json:"refund"`
}

// RefundSnapshot is the safe projection of a refund
type RefundSnapshot struct {
	RefundID    string            `json:"refund_id"`
	PaymentID   string            `json:"payment_id"`
	Amount      decimal.Decimal   `json:"amount"`
	State       types.RefundState `json:"state"`
	InitiatedAt time.Time         `json:"initiated_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// NewRefundWebhookPayload creates the merchant-facing payload for a refund
// event
func NewRefundWebhookPayload(r *payment.Refund, eventType string) *RefundWebhookPayload {
	return &RefundWebhookPayload{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Refund: &RefundSnapshot{
			RefundID:    r.ID,
			PaymentID:   r.PaymentID,
			Amount:      r.Amount,
			State:       r.State,
			InitiatedAt: r.InitiatedAt,
			CompletedAt: r.CompletedAt,
		},
	}
}
