package webhookdelivery

import (
	"context"
	"time"

	"github.com/rai-abhi24/cgpey/internal/types"
)

// Repository defines the interface for outbound delivery persistence
type Repository interface {
	// Create stores a new delivery record. A second insert with the same
	// idempotency key fails with ErrAlreadyExists.
	Create(ctx context.Context, delivery *WebhookDelivery) error
	Get(ctx context.Context, id string) (*WebhookDelivery, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*WebhookDelivery, error)
	Update(ctx context.Context, delivery *WebhookDelivery) error
	// ListPendingRetries returns RETRYING records whose next_retry_at has
	// passed, for a restart-safe sweep
	ListPendingRetries(ctx context.Context, before time.Time, limit int) ([]*WebhookDelivery, error)
	List(ctx context.Context, filter *Filter) ([]*WebhookDelivery, error)
}

// Filter narrows delivery listings
type Filter struct {
	MerchantID string
	PaymentID  string
	Status     types.DeliveryStatus
	Limit      int
	Offset     int
}
