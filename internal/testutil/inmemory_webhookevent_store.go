package testutil

import (
	"context"
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/webhookevent"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// InMemoryWebhookEventStore implements webhookevent.Repository
type InMemoryWebhookEventStore struct {
	*InMemoryStore[*webhookevent.InboundWebhookEvent]
}

// NewInMemoryWebhookEventStore creates a new in-memory inbound event repository
func NewInMemoryWebhookEventStore() *InMemoryWebhookEventStore {
	return &InMemoryWebhookEventStore{
		InMemoryStore: NewInMemoryStore[*webhookevent.InboundWebhookEvent](),
	}
}

func copyInboundEvent(e *webhookevent.InboundWebhookEvent) *webhookevent.InboundWebhookEvent {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}

// Create stores a freshly received event. A second insert with the same
// (gateway, gateway_webhook_id) fails with ErrAlreadyExists.
func (m *InMemoryWebhookEventStore) Create(ctx context.Context, event *webhookevent.InboundWebhookEvent) error {
	if event == nil {
		return ierr.NewError("event cannot be nil").
			WithHint("Event cannot be nil").
			Mark(ierr.ErrValidation)
	}

	duplicates, _ := m.InMemoryStore.List(ctx, nil, func(_ context.Context, item *webhookevent.InboundWebhookEvent, _ interface{}) bool {
		return item.Gateway == event.Gateway && item.GatewayWebhookID == event.GatewayWebhookID
	}, nil)
	if len(duplicates) > 0 {
		return ierr.NewError("webhook event already exists").
			WithHint("This gateway callback was already recorded").
			Mark(ierr.ErrAlreadyExists)
	}

	return m.InMemoryStore.Create(ctx, event.ID, copyInboundEvent(event))
}

// Get retrieves an event by ID
func (m *InMemoryWebhookEventStore) Get(ctx context.Context, id string) (*webhookevent.InboundWebhookEvent, error) {
	e, err := m.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyInboundEvent(e), nil
}

// GetByGatewayEventID retrieves an event by its gateway-side identity
func (m *InMemoryWebhookEventStore) GetByGatewayEventID(ctx context.Context, gateway types.PaymentGatewayType, gatewayWebhookID string) (*webhookevent.InboundWebhookEvent, error) {
	matches, err := m.InMemoryStore.List(ctx, nil, func(_ context.Context, item *webhookevent.InboundWebhookEvent, _ interface{}) bool {
		return item.Gateway == gateway && item.GatewayWebhookID == gatewayWebhookID
	}, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ierr.NewError("webhook event not found").
			WithHint("No event exists for this gateway callback id").
			Mark(ierr.ErrNotFound)
	}
	return copyInboundEvent(matches[0]), nil
}

// Update updates an existing event
func (m *InMemoryWebhookEventStore) Update(ctx context.Context, event *webhookevent.InboundWebhookEvent) error {
	if event == nil {
		return ierr.NewError("event cannot be nil").
			WithHint("Event cannot be nil").
			Mark(ierr.ErrValidation)
	}
	event.UpdatedAt = time.Now().UTC()
	return m.InMemoryStore.Update(ctx, event.ID, copyInboundEvent(event))
}

// List retrieves events matching the filter, newest first
func (m *InMemoryWebhookEventStore) List(ctx context.Context, filter *webhookevent.Filter) ([]*webhookevent.InboundWebhookEvent, error) {
	matches, err := m.InMemoryStore.List(ctx, filter, func(_ context.Context, item *webhookevent.InboundWebhookEvent, _ interface{}) bool {
		if filter == nil {
			return true
		}
		if filter.Gateway != "" && item.Gateway != filter.Gateway {
			return false
		}
		if filter.Status != "" && item.Status != filter.Status {
			return false
		}
		if filter.MerchantID != "" && (item.MerchantID == nil || *item.MerchantID != filter.MerchantID) {
			return false
		}
		return true
	}, func(i, j *webhookevent.InboundWebhookEvent) bool {
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
		return []*webhookevent.InboundWebhookEvent{}, nil
	}
	end := offset + limit
	if end > len(matches) {
		end = len(matches)
	}

	result := make([]*webhookevent.InboundWebhookEvent, 0, end-offset)
	for _, e := range matches[offset:end] {
		result = append(result, copyInboundEvent(e))
	}
	return result, nil
}
