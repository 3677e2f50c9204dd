package payload

import (
	"context"
	"encoding/json"

	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	webhookDto "github.com/rai-abhi24/cgpey/internal/webhook/dto"
)

type RefundPayloadBuilder struct {
	services *Services
}

func NewRefundPayloadBuilder(services *Services) PayloadBuilder {
	return &RefundPayloadBuilder{services: services}
}

func (b *RefundPayloadBuilder) BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error) {
	var parsedPayload webhookDto.InternalRefundEvent

	err := json.Unmarshal(data, &parsedPayload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Unable to unmarshal refund event payload").
			Mark(ierr.ErrInvalidOperation)
	}

	if parsedPayload.RefundID == "" {
		return nil, ierr.NewError("invalid refund event").
			WithHint("Please provide a valid refund ID").
			Mark(ierr.ErrInvalidOperation)
	}

	refund, err := b.services.PaymentRepo.GetRefund(ctx, parsedPayload.RefundID)
	if err != nil {
		return nil, err
	}

	payload := webhookDto.NewRefundWebhookPayload(refund, eventType)

	return json.Marshal(payload)
}
