package payload

import (
	"context"
	"encoding/json"

	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	webhookDto "github.com/rai-abhi24/cgpey/internal/webhook/dto"
)

type PaymentPayloadBuilder struct {
	services *Services
}

func NewPaymentPayloadBuilder(services *Services) PayloadBuilder {
	return &PaymentPayloadBuilder{services: services}
}

func (b *PaymentPayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var parsedPayload webhookDto.InternalPaymentEvent

	err := json.Unmarshal(data, &parsedPayload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to unmarshal payment event payload").
			Mark(ierr.ErrInvalidOperation)
	}

	if parsedPayload.PaymentID == "" {
		return nil, ierr.NewError("invalid payment event").
			WithHint("Please provide a valid payment ID").
			Mark(ierr.ErrInvalidOperation)
	}

	payment, err := b.services.PaymentRepo.Get(ctx, parsedPayload.PaymentID)
	if err != nil {
		return nil, err
	}

	payload := webhookDto.NewPaymentWebhookPayload(payment, eventType)

	return json.Marshal(payload)
}
