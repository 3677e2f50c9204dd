package dto

import (
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/webhookdelivery"
	"github.com/rai-abhi24/cgpey/internal/domain/webhookevent"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// InboundWebhookAck is returned to the gateway for every accepted callback.
// Gateways only care that we answered 200; processing outcome is internal.
type InboundWebhookAck struct {
	Success bool   `json:"success"`
	EventID string `json:"event_id"`
	// Duplicate is true when this callback was already received
	Duplicate bool `json:"duplicate"`
}

// InboundWebhookEventResponse is the operator view of a stored callback
type InboundWebhookEventResponse struct {
	ID               string                     `json:"id"`
	Gateway          types.PaymentGatewayType   `json:"gateway"`
	Event            string                     `json:"event"`
	GatewayWebhookID string                     `json:"gateway_webhook_id"`
	Status           types.InboundWebhookStatus `json:"status"`
	Retries          int                        `json:"retries"`
	LastError        *string                    `json:"last_error,omitempty"`
	PaymentID        *string                    `json:"payment_id,omitempty"`
	ProcessedAt      *time.Time                 `json:"processed_at,omitempty"`
	CreatedAt        time.Time                  `json:"created_at"`
}

// NewInboundWebhookEventResponse projects a stored callback for operators
func NewInboundWebhookEventResponse(e *webhookevent.InboundWebhookEvent) *InboundWebhookEventResponse {
	return &InboundWebhookEventResponse{
		ID:               e.ID,
		Gateway:          e.Gateway,
		Event:            e.Event,
		GatewayWebhookID: e.GatewayWebhookID,
		Status:           e.Status,
		Retries:          e.Retries,
		LastError:        e.LastError,
		PaymentID:        e.PaymentID,
		ProcessedAt:      e.ProcessedAt,
		CreatedAt:        e.CreatedAt,
	}
}

// WebhookDeliveryResponse is the operator view of an outbound delivery
type WebhookDeliveryResponse struct {
	ID          string               `json:"id"`
	MerchantID  string               `json:"merchant_id"`
	EventType   string               `json:"event_type"`
	PaymentID   string               `json:"payment_id"`
	URL         string               `json:"url"`
	Status      types.DeliveryStatus `json:"status"`
	Attempts    int                  `json:"attempts"`
	MaxAttempts int                  `json:"max_attempts"`
	NextRetryAt *time.Time           `json:"next_retry_at,omitempty"`
	LastError   *string              `json:"last_error,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
}

// NewWebhookDeliveryResponse projects a delivery record for operators
func NewWebhookDeliveryResponse(d *webhookdelivery.WebhookDelivery) *WebhookDeliveryResponse {
	return &WebhookDeliveryResponse{
		ID:          d.ID,
		MerchantID:  d.MerchantID,
		EventType:   d.EventType,
		PaymentID:   d.PaymentID,
		URL:         d.URL,
		Status:      d.Status,
		Attempts:    d.Attempts,
		MaxAttempts: d.MaxAttempts,
		NextRetryAt: d.NextRetryAt,
		LastError:   d.LastError,
		CreatedAt:   d.CreatedAt,
	}
}

// UpdateWebhookConfigRequest updates a merchant's outbound webhook settings
type UpdateWebhookConfigRequest struct {
	URL     string `json:"url"`
	Secret  string `json:"secret"`
	Enabled *bool  `json:"enabled"`
}

// Validate validates the webhook config update
func (r *UpdateWebhookConfigRequest) Validate() error {
	if r.Enabled != nil && *r.Enabled && r.URL == "" {
		return ierr.NewError("missing webhook url").
			WithHint("A webhook URL is required to enable deliveries").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// WebhookConfigResponse is the merchant webhook configuration view
type WebhookConfigResponse struct {
	URL     string `json:"url"`
	Enabled bool   `json:"enabled"`
}
