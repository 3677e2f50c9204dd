package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	"github.com/rai-abhi24/cgpey/internal/types"
	webhookDto "github.com/rai-abhi24/cgpey/internal/webhook/dto"
)

// publishPaymentEvent puts a payment lifecycle event on the delivery bus.
// Publish failures are logged, never propagated; the state change already
// happened and must not be rolled back because notification lagged.
func (p ServiceParams) publishPaymentEvent(ctx context.Context, eventName string, pmt *payment.Payment) {
	if p.WebhookPublisher == nil {
		return
	}

	data, err := json.Marshal(webhookDto.InternalPaymentEvent{
		PaymentID:  pmt.ID,
		MerchantID: pmt.MerchantID,
	})
	if err != nil {
		p.Logger.Errorw("failed to marshal payment event", "error", err, "payment_id", pmt.ID)
		return
	}

	event := &types.WebhookEvent{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName:  eventName,
		MerchantID: pmt.MerchantID,
		PaymentID:  pmt.ID,
		Timestamp:  time.Now().UTC(),
		Payload:    data,
	}

	if err := p.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		p.Logger.Errorw("failed to publish payment event",
			"error", err,
			"event_name", eventName,
			"payment_id", pmt.ID,
		)
	}
}

// publishRefundEvent puts a refund lifecycle event on the delivery bus
func (p ServiceParams) publishRefundEvent(ctx context.Context, eventName string, refund *payment.Refund, merchantID string) {
	if p.WebhookPublisher == nil {
		return
	}

	data, err := json.Marshal(webhookDto.InternalRefundEvent{
		RefundID:   refund.ID,
		PaymentID:  refund.PaymentID,
		MerchantID: merchantID,
	})
	if err != nil {
		p.Logger.Errorw("failed to marshal refund event", "error", err, "refund_id", refund.ID)
		return
	}

	event := &types.WebhookEvent{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName:  eventName,
		MerchantID: merchantID,
		PaymentID:  refund.PaymentID,
		Timestamp:  time.Now().UTC(),
		Payload:    data,
	}

	if err := p.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		p.Logger.Errorw("failed to publish refund event",
			"error", err,
			"event_name", eventName,
			"refund_id", refund.ID,
		)
	}
}
