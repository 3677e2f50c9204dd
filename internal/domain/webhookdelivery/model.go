package webhookdelivery

import (
	"encoding/json"
	"time"

	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// WebhookDelivery is one outbound merchant notification record. Retries and
// replays mutate the same record; a new record is only ever created for a
// new idempotency key.
type WebhookDelivery struct {
	ID         string `db:"id" json:"id"`
	MerchantID string `db:"merchant_id" json:"merchant_id"`
	EventType  string `db:"event_type" json:"event_type"`
	PaymentID  string `db:"payment_id" json:"payment_id"`

	URL       string          `db:"url" json:"url"`
	Payload   json.RawMessage `db:"payload" json:"payload"`
	Signature string          `db:"signature" json:"signature"`

	Status      types.DeliveryStatus `db:"status" json:"status"`
	Attempts    int                  `db:"attempts" json:"attempts"`
	MaxAttempts int                  `db:"max_attempts" json:"max_attempts"`
	NextRetryAt *time.Time           `db:"next_retry_at" json:"next_retry_at,omitempty"`
	RetryDelay  time.Duration        `db:"-" json:"retry_delay_ms"`
	LastError   *string              `db:"last_error" json:"last_error,omitempty"`

	// Deterministic hash of (merchant, payment, event type); retries never
	// create duplicate records for the same logical event
	IdempotencyKey string `db:"idempotency_key" json:"idempotency_key"`

	types.BaseModel
}

// Validate validates the delivery record
func (d *WebhookDelivery) Validate() error {
	if d.MerchantID == "" {
		return ierr.NewError("invalid merchant id").
			WithHint("Merchant id is required").
			Mark(ierr.ErrValidation)
	}
	if d.URL == "" {
		return ierr.NewError("invalid url").
			WithHint("Webhook URL is required").
			Mark(ierr.ErrValidation)
	}
	if d.IdempotencyKey == "" {
		return ierr.NewError("invalid idempotency key").
			WithHint("Idempotency key is required").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Exhausted reports whether the automatic retry budget is spent
func (d *WebhookDelivery) Exhausted() bool {
	return d.Attempts >= d.MaxAttempts
}

// RecordAttemptFailure mutates the record after a failed attempt
func (d *WebhookDelivery) RecordAttemptFailure(err error, now time.Time) {
	d.Attempts++
	msg := err.Error()
	d.LastError = &msg
	if d.Exhausted() {
		d.Status = types.DeliveryStatusFailed
		d.NextRetryAt = nil
		return
	}
	d.Status = types.DeliveryStatusRetrying
	next := now.Add(d.RetryDelay)
	d.NextRetryAt = &next
}

// RecordAttemptSuccess mutates the record after a 2xx response
func (d *WebhookDelivery) RecordAttemptSuccess() {
	d.Attempts++
	d.Status = types.DeliveryStatusDelivered
	d.LastError = nil
	d.NextRetryAt = nil
}

// ResetForReplay arms exactly one more attempt on the same record. Called
// only on explicit operator action. The attempt counter is cumulative
// across replays; only the budget moves.
func (d *WebhookDelivery) ResetForReplay() {
	d.MaxAttempts = d.Attempts + 1
	d.LastError = nil
	d.NextRetryAt = nil
	d.Status = types.DeliveryStatusPending
}

// TableName returns the table name for webhook deliveries
func (d *WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}
