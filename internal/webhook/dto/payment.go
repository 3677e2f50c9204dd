package dto

import (
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/shopspring/decimal"
)

// InternalPaymentEvent is the minimal envelope published on the bus; the
// payload builder re-reads the payment so merchants always receive the
// current record, not a stale snapshot
type InternalPaymentEvent struct {
	PaymentID  string `json:"payment_id"`
	MerchantID string `json:"merchant_id"`
}

// PaymentWebhookPayload is the body POSTed to the merchant endpoint for
// payment lifecycle events. Raw gateway responses are deliberately excluded.
type PaymentWebhookPayload struct {
	EventType string           `json:"event_type"`
	Timestamp time.Time        `json:"timestamp"`
	Payment   *PaymentSnapshot `json:"payment"`
}

// PaymentSnapshot is the safe projection of a payment
type PaymentSnapshot struct {
	PaymentID       string             `json:"payment_id"`
	OrderID         string             `json:"order_id"`
	MerchantOrderID string             `json:"merchant_order_id"`
	Amount          decimal.Decimal    `json:"amount"`
	Currency        string             `json:"currency"`
	State           types.PaymentState `json:"state"`
	PaymentMode     types.PaymentMode  `json:"payment_mode"`
	UTR             *string            `json:"utr,omitempty"`
	CompletedAt     *time.Time         `json:"completed_at,omitempty"`
}

// NewPaymentWebhookPayload creates the merchant-facing payload for a
// payment event
func NewPaymentWebhookPayload(p *payment.Payment, eventType string) *PaymentWebhookPayload {
	return &PaymentWebhookPayload{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Payment: &PaymentSnapshot{
			PaymentID:       p.ID,
			OrderID:         p.OrderID,
			MerchantOrderID: p.MerchantOrderID,
			Amount:          p.Amount,
			Currency:        p.Currency,
			State:           p.State,
			PaymentMode:     p.PaymentMode,
			UTR:             p.UTR,
			CompletedAt:     p.CompletedAt,
		},
	}
}
