package webhookevent

import (
	"encoding/json"
	"time"

	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// InboundWebhookEvent is one gateway callback as received. Events are
// retained indefinitely for audit and replay. No two stored events share
// (gateway, gateway_webhook_id).
type InboundWebhookEvent struct {
	ID               string                   `db:"id" json:"id"`
	Gateway          types.PaymentGatewayType `db:"gateway" json:"gateway"`
	Event            string                   `db:"event" json:"event"`
	GatewayWebhookID string                   `db:"gateway_webhook_id" json:"gateway_webhook_id"`

	RawPayload        []byte          `db:"raw_payload" json:"-"`
	ParsedPayload     json.RawMessage `db:"parsed_payload" json:"parsed_payload,omitempty"`
	Signature         string          `db:"signature" json:"-"`
	SignatureVerified bool            `db:"signature_verified" json:"signature_verified"`

	Status    types.InboundWebhookStatus `db:"status" json:"status"`
	Retries   int                        `db:"retries" json:"retries"`
	LastError *string                    `db:"last_error" json:"last_error,omitempty"`

	// Weak back-references used for correlation lookups only
	PaymentID  *string `db:"payment_id" json:"payment_id,omitempty"`
	RefundID   *string `db:"refund_id" json:"refund_id,omitempty"`
	MerchantID *string `db:"merchant_id" json:"merchant_id,omitempty"`

	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`

	types.BaseModel
}

// Validate validates the inbound webhook event
func (e *InboundWebhookEvent) Validate() error {
	if e.GatewayWebhookID == "" {
		return ierr.NewError("invalid gateway webhook id").
			WithHint("Gateway webhook id is required").
			Mark(ierr.ErrValidation)
	}
	if err := e.Gateway.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Gateway is invalid").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// MarkProcessed records a successful application of this event
func (e *InboundWebhookEvent) MarkProcessed(now time.Time) {
	e.Status = types.InboundWebhookStatusProcessed
	e.LastError = nil
	e.ProcessedAt = &now
}

// MarkIgnored records that the referenced payment could not be resolved.
// This is an expected race, not an error.
func (e *InboundWebhookEvent) MarkIgnored() {
	e.Status = types.InboundWebhookStatusIgnored
}

// MarkFailed records a processing failure
func (e *InboundWebhookEvent) MarkFailed(err error) {
	e.Status = types.InboundWebhookStatusFailed
	msg := err.Error()
	e.LastError = &msg
}

// ResetForReplay re-queues the event for the processing path
func (e *InboundWebhookEvent) ResetForReplay() {
	e.Retries++
	e.LastError = nil
	e.ProcessedAt = nil
	e.Status = types.InboundWebhookStatusPending
}

// TableName returns the table name for inbound webhook events
func (e *InboundWebhookEvent) TableName() string {
	return "inbound_webhook_events"
}
