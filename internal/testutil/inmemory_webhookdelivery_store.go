package testutil

import (
	"context"
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/webhookdelivery"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// InMemoryWebhookDeliveryStore implements webhookdelivery.Repository
type InMemoryWebhookDeliveryStore struct {
	*InMemoryStore[*webhookdelivery.WebhookDelivery]
}

// NewInMemoryWebhookDeliveryStore creates a new in-memory delivery repository
func NewInMemoryWebhookDeliveryStore() *InMemoryWebhookDeliveryStore {
	return &InMemoryWebhookDeliveryStore{
		InMemoryStore: NewInMemoryStore[*webhookdelivery.WebhookDelivery](),
	}
}

func copyDelivery(d *webhookdelivery.WebhookDelivery) *webhookdelivery.WebhookDelivery {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

// Create stores a new delivery record. A second insert with the same
// idempotency key fails with ErrAlreadyExists.
func (m *InMemoryWebhookDeliveryStore) Create(ctx context.Context, delivery *webhookdelivery.WebhookDelivery) error {
	if delivery == nil {
		return ierr.NewError("delivery cannot be nil").
			WithHint("Delivery cannot be nil").
			Mark(ierr.ErrValidation)
	}

	duplicates, _ := m.InMemoryStore.List(ctx, nil, func(_ context.Context, item *webhookdelivery.WebhookDelivery, _ interface{}) bool {
		return item.IdempotencyKey == delivery.IdempotencyKey
	}, nil)
	if len(duplicates) > 0 {
		return ierr.NewError("delivery already exists").
			WithHint("A delivery for this event already exists").
			Mark(ierr.ErrAlreadyExists)
	}

	return m.InMemoryStore.Create(ctx, delivery.ID, copyDelivery(delivery))
}

// Get retrieves a delivery by ID
func (m *InMemoryWebhookDeliveryStore) Get(ctx context.Context, id string) (*webhookdelivery.WebhookDelivery, error) {
	d, err := m.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyDelivery(d), nil
}

// GetByIdempotencyKey retrieves a delivery by its idempotency key
func (m *InMemoryWebhookDeliveryStore) GetByIdempotencyKey(ctx context.Context, key string) (*webhookdelivery.WebhookDelivery, error) {
	matches, err := m.InMemoryStore.List(ctx, nil, func(_ context.Context, item *webhookdelivery.WebhookDelivery, _ interface{}) bool {
		return item.IdempotencyKey == key
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("delivery not found").
			WithHint("No delivery exists for this idempotency key").
			Mark(ierr.ErrNotFound)
	}
	return copyDelivery(matches[0]), nil
}

// Update updates an existing delivery
func (m *InMemoryWebhookDeliveryStore) Update(ctx context.Context, delivery *webhookdelivery.WebhookDelivery) error {
	if delivery == nil {
		return ierr.NewError("delivery cannot be nil").
			WithHint("Delivery cannot be nil").
			Mark(ierr.ErrValidation)
	}
	delivery.UpdatedAt = time.Now().UTC()
	return m.InMemoryStore.Update(ctx, delivery.ID, copyDelivery(delivery))
}

// ListPendingRetries returns RETRYING records whose next_retry_at has passed
func (m *InMemoryWebhookDeliveryStore) ListPendingRetries(ctx context.Context, before time.Time, limit int) ([]*webhookdelivery.WebhookDelivery, error) {
	matches, err := m.InMemoryStore.List(ctx, nil, func(_ context.Context, item *webhookdelivery.WebhookDelivery, _ interface{}) bool {
		return item.Status == types.DeliveryStatusRetrying &&
			item.NextRetryAt != nil && !item.NextRetryAt.After(before)
	}, func(i, j *webhookdelivery.WebhookDelivery) bool {
		return i.NextRetryAt.Before(*j.NextRetryAt)
	})
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	result := make([]*webhookdelivery.WebhookDelivery, 0, len(matches))
	for _, d := range matches {
		result = append(result, copyDelivery(d))
	}
	return result, nil
}

// List retrieves deliveries matching the filter, newest first
func (m *InMemoryWebhookDeliveryStore) List(ctx context.Context, filter *webhookdelivery.Filter) ([]*webhookdelivery.WebhookDelivery, error) {
	matches, err := m.InMemoryStore.List(ctx, filter, func(_ context.Context, item *webhookdelivery.WebhookDelivery, _ interface{}) bool {
		if filter == nil {
			return true
		}
		if filter.MerchantID != "" && item.MerchantID != filter.MerchantID {
			return false
		}
		if filter.PaymentID != "" && item.PaymentID != filter.PaymentID {
			return false
		}
		if filter.Status != "" && item.Status != filter.Status {
			return false
		}
		return true
	}, func(i, j *webhookdelivery.WebhookDelivery) bool {
		return i.CreatedAt.After(j.CreatedAt)
	})
	if err != nil {
		return nil, err
	}

	limit, offset := 50, 0
	if filter != nil {
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		if filter.Offset > 0 {
			offset = filter.Offset
		}
	}
	if offset >= len(matches) {
		return []*webhookdelivery.WebhookDelivery{}, nil
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}

	result := make([]*webhookdelivery.WebhookDelivery, 0, end-offset)
	for _, d := range matches[offset:end] {
		result = append(result, copyDelivery(d))
	}
	return result, nil
}
