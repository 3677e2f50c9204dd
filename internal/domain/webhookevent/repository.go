package webhookevent

import (
	"context"

	"github.com/rai-abhi24/cgpey/internal/types"
)

// Repository defines the interface for inbound webhook event persistence
type Repository interface {
	// Create stores a freshly received event. A second insert with the
	// same (gateway, gateway_webhook_id) fails with ErrAlreadyExists.
	Create(ctx context.Context, event *InboundWebhookEvent) error
	Get(ctx context.Context, id string) (*InboundWebhookEvent, error)
	GetByGatewayEventID(ctx context.Context, gateway types.PaymentGatewayType, gatewayWebhookID string) (*InboundWebhookEvent, error)
	Update(ctx context.Context, event *InboundWebhookEvent) error
	List(ctx context.Context, filter *Filter) ([]*InboundWebhookEvent, error)
}

// Filter narrows inbound event listings
type Filter struct {
	Gateway    types.PaymentGatewayType
	Status     types.InboundWebhookStatus
	MerchantID string
	Limit      int
	Offset     int
}
