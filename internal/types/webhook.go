package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"
)

// WebhookEvent represents an outbound webhook event to be delivered to a
// merchant's configured endpoint
type WebhookEvent struct {
	ID         string          `json:"id"`
	EventName  string          `json:"event_name"`
	MerchantID string          `json:"merchant_id"`
	PaymentID  string          `json:"payment_id"`
	Timestamp  time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload"`
}

// payment event names
const (
	WebhookEventPaymentSuccess   = "payment.success"
	WebhookEventPaymentFailed    = "payment.failed"
	WebhookEventPaymentExpired   = "payment.expired"
	WebhookEventPaymentCancelled = "payment.cancelled"
)

// refund event names
const (
	WebhookEventRefundInitiated = "refund.initiated"
	WebhookEventRefundCompleted = "refund.completed"
	WebhookEventRefundFailed    = "refund.failed"
)

// settlement and dispute event names
const (
	WebhookEventSettlementCompleted = "settlement.completed"
	WebhookEventChargebackCreated   = "chargeback.created"
)

// WebhookEventForPaymentState maps a terminal payment state to its
// outbound event name
func WebhookEventForPaymentState(state PaymentState) (string, bool) {
	switch state {
	case PaymentStateSuccess:
		return WebhookEventPaymentSuccess, true
	case PaymentStateFailed:
		return WebhookEventPaymentFailed, true
	case PaymentStateExpired:
		return WebhookEventPaymentExpired, true
	case PaymentStateCancelled:
		return WebhookEventPaymentCancelled, true
	}
	return "", false
}

// WebhookEventForRefundState maps a refund state change to its outbound
// event name
func WebhookEventForRefundState(state RefundState) (string, bool) {
	switch state {
	case RefundStatePending:
		return WebhookEventRefundInitiated, true
	case RefundStateCompleted:
		return WebhookEventRefundCompleted, true
	case RefundStateFailed:
		return WebhookEventRefundFailed, true
	}
	return "", false
}

// InboundWebhookStatus is the processing status of a stored gateway callback
type InboundWebhookStatus string

const (
	InboundWebhookStatusPending   InboundWebhookStatus = "PENDING"
	InboundWebhookStatusProcessed InboundWebhookStatus = "PROCESSED"
	InboundWebhookStatusFailed    InboundWebhookStatus = "FAILED"
	InboundWebhookStatusIgnored   InboundWebhookStatus = "IGNORED"
)

func (s InboundWebhookStatus) String() string {
	return string(s)
}

func (s InboundWebhookStatus) Validate() error {
	allowed := []InboundWebhookStatus{
		InboundWebhookStatusPending,
		InboundWebhookStatusProcessed,
		InboundWebhookStatusFailed,
		InboundWebhookStatusIgnored,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid inbound webhook status: %s", s)
	}
	return nil
}

// DeliveryStatus is the status of an outbound webhook delivery record
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusSent      DeliveryStatus = "SENT"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
	DeliveryStatusRetrying  DeliveryStatus = "RETRYING"
)

func (s DeliveryStatus) String() string {
	return string(s)
}

func (s DeliveryStatus) Validate() error {
	allowed := []DeliveryStatus{
		DeliveryStatusPending,
		DeliveryStatusSent,
		DeliveryStatusDelivered,
		DeliveryStatusFailed,
		DeliveryStatusRetrying,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid delivery status: %s", s)
	}
	return nil
}
