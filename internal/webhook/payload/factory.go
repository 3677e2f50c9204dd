package payload

import (
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// PayloadBuilderFactory interface for getting event-specific payload builders
type PayloadBuilderFactory interface {
	GetBuilder(eventType string) (PayloadBuilder, error)
}

type payloadBuilderFactory struct {
	builders map[string]func() PayloadBuilder
	services *Services
}

// NewPayloadBuilderFactory creates a new factory with registered builders
func NewPayloadBuilderFactory(services *Services) PayloadBuilderFactory {
	f := &payloadBuilderFactory{
		builders: make(map[string]func() PayloadBuilder),
		services: services,
	}

	// Register payment builders
	for _, event := range []string{
		types.WebhookEventPaymentSuccess,
		types.WebhookEventPaymentFailed,
		types.WebhookEventPaymentExpired,
		types.WebhookEventPaymentCancelled,
	} {
		f.builders[event] = func() PayloadBuilder {
			return NewPaymentPayloadBuilder(f.services)
		}
	}

	// Register refund builders
	for _, event := range []string{
		types.WebhookEventRefundInitiated,
		types.WebhookEventRefundCompleted,
		types.WebhookEventRefundFailed,
	} {
		f.builders[event] = func() PayloadBuilder {
			return NewRefundPayloadBuilder(f.services)
		}
	}

	return f
}

// GetBuilder returns the builder registered for the event type
func (f *payloadBuilderFactory) GetBuilder(eventType string) (PayloadBuilder, error) {
	builderFn, ok := f.builders[eventType]
	if !ok {
		return nil, ierr.NewError("no payload builder registered").
			WithHint("Unsupported webhook event type").
			WithReportableDetails(map[string]any{"event_type": eventType}).
			Mark(ierr.ErrInvalidOperation)
	}
	return builderFn(), nil
}
