package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rai-abhi24/cgpey/internal/config"
	"github.com/rai-abhi24/cgpey/internal/domain/merchant"
	"github.com/rai-abhi24/cgpey/internal/domain/webhookdelivery"
	"github.com/rai-abhi24/cgpey/internal/email"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/httpclient"
	"github.com/rai-abhi24/cgpey/internal/idempotency"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/pubsub"
	pubsubRouter "github.com/rai-abhi24/cgpey/internal/pubsub/router"
	"github.com/rai-abhi24/cgpey/internal/security"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/rai-abhi24/cgpey/internal/webhook/payload"
)

// Handler interface for processing webhook events
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
	// Attempt performs one delivery attempt against the merchant endpoint
	// and records the outcome. Used by both the consumer and manual replay.
	Attempt(ctx context.Context, delivery *webhookdelivery.WebhookDelivery) error
}

type handler struct {
	pubSub       pubsub.PubSub
	config       *config.Webhook
	factory      payload.PayloadBuilderFactory
	client       httpclient.Client
	merchantRepo merchant.Repository
	deliveryRepo webhookdelivery.Repository
	idempGen     *idempotency.Generator
	signer       security.Signer
	email        *email.Service
	logger       *logger.Logger
}

// NewHandler creates the outbound delivery handler
func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	factory payload.PayloadBuilderFactory,
	client httpclient.Client,
	merchantRepo merchant.Repository,
	deliveryRepo webhookdelivery.Repository,
	signer security.Signer,
	emailService *email.Service,
	logger *logger.Logger,
) (Handler, error) {
	return &handler{
		pubSub:       pubSub,
		config:       &cfg.Webhook,
		factory:      factory,
		client:       client,
		merchantRepo: merchantRepo,
		deliveryRepo: deliveryRepo,
		idempGen:     idempotency.NewGenerator(),
		signer:       signer,
		email:        emailService,
		logger:       logger,
	}, nil
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"webhook_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

// processMessage processes a single webhook message. Returning an error
// triggers the router's retry middleware; returning nil acks the message.
func (h *handler) processMessage(msg *message.Message) error {
	ctx := msg.Context()

	var event types.WebhookEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal webhook event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil // Don't retry on unmarshal errors
	}

	ctx = context.WithValue(ctx, types.CtxMerchantID, event.MerchantID)

	delivery, err := h.getOrCreateDelivery(ctx, &event)
	if err != nil {
		if ierr.IsNotFound(err) || ierr.IsInvalidOperation(err) {
			// Merchant gone or event unsupported; retrying cannot help
			h.logger.Warnw("dropping undeliverable webhook event",
				"error", err,
				"event_id", event.ID,
				"event_name", event.EventName,
			)
			return nil
		}
		return err
	}
	if delivery == nil {
		// Webhooks disabled for this merchant, or already delivered
		return nil
	}

	return h.deliver(ctx, delivery)
}

// getOrCreateDelivery resolves the merchant, builds the signed payload and
// returns the delivery record for this logical event. Returns (nil, nil)
// when nothing should be sent.
func (h *handler) getOrCreateDelivery(ctx context.Context, event *types.WebhookEvent) (*webhookdelivery.WebhookDelivery, error) {
	m, err := h.merchantRepo.Get(ctx, event.MerchantID)
	if err != nil {
		return nil, err
	}

	if !m.WebhookEnabled || m.WebhookURL == "" {
		h.logger.Debugw("webhooks disabled for merchant",
			"merchant_id", m.ID,
			"event_name", event.EventName,
		)
		return nil, nil
	}

	key := h.idempGen.GenerateKey(idempotency.ScopeWebhookDelivery, map[string]interface{}{
		"merchant_id": event.MerchantID,
		"payment_id":  event.PaymentID,
		"event_type":  event.EventName,
	})

	existing, err := h.deliveryRepo.GetByIdempotencyKey(ctx, key)
	if err != nil && !ierr.IsNotFound(err) {
		return nil, err
	}
	if existing != nil {
		switch existing.Status {
		case types.DeliveryStatusDelivered:
			h.logger.Debugw("webhook already delivered, skipping",
				"delivery_id", existing.ID,
				"idempotency_key", key,
			)
			return nil, nil
		case types.DeliveryStatusFailed:
			// Exhausted record waiting on manual replay
			return nil, nil
		}
		return existing, nil
	}

	builder, err := h.factory.GetBuilder(event.EventName)
	if err != nil {
		return nil, err
	}

	webhookPayload, err := builder.BuildPayload(ctx, event.EventName, event.Payload)
	if err != nil {
		return nil, err
	}

	delivery := &webhookdelivery.WebhookDelivery{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_DELIVERY),
		MerchantID:     m.ID,
		EventType:      event.EventName,
		PaymentID:      event.PaymentID,
		URL:            m.WebhookURL,
		Payload:        webhookPayload,
		Signature:      h.signer.Sign(webhookPayload, m.WebhookSecret),
		Status:         types.DeliveryStatusPending,
		MaxAttempts:    h.config.MaxRetries,
		RetryDelay:     h.config.InitialInterval,
		IdempotencyKey: key,
		BaseModel:      types.GetDefaultBaseModel(),
	}

	if err := h.deliveryRepo.Create(ctx, delivery); err != nil {
		if ierr.IsAlreadyExists(err) {
			// Lost the race against a concurrent consumer
			return h.deliveryRepo.GetByIdempotencyKey(ctx, key)
		}
		return nil, err
	}

	return delivery, nil
}

// deliver makes one attempt and records the outcome. On exhaustion it marks
// the record FAILED, alerts the operator and acks so the router stops
// retrying.
func (h *handler) deliver(ctx context.Context, delivery *webhookdelivery.WebhookDelivery) error {
	err := h.Attempt(ctx, delivery)
	if err == nil {
		return nil
	}

	if delivery.Status == types.DeliveryStatusFailed {
		lastErr := ""
		if delivery.LastError != nil {
			lastErr = *delivery.LastError
		}
		h.email.SendDeliveryExhaustedAlert(ctx, delivery.MerchantID, delivery.ID, delivery.EventType, lastErr)
		h.logger.Errorw("webhook delivery exhausted, awaiting manual replay",
			"delivery_id", delivery.ID,
			"merchant_id", delivery.MerchantID,
			"attempts", delivery.Attempts,
		)
		return nil
	}

	return err
}

func (h *handler) Attempt(ctx context.Context, delivery *webhookdelivery.WebhookDelivery) error {
	attemptCtx, cancel := context.WithTimeout(ctx, h.config.DeliveryTimeout)
	defer cancel()

	req := &httpclient.Request{
		Method: "POST",
		URL:    delivery.URL,
		Headers: map[string]string{
			"Content-Type":        "application/json",
			types.HeaderSignature: delivery.Signature,
			types.HeaderEvent:     delivery.EventType,
		},
		Body: delivery.Payload,
	}

	resp, sendErr := h.client.Send(attemptCtx, req)
	if sendErr == nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		delivery.RecordAttemptSuccess()
		if err := h.deliveryRepo.Update(ctx, delivery); err != nil {
			return err
		}
		h.logger.Infow("webhook delivered",
			"delivery_id", delivery.ID,
			"merchant_id", delivery.MerchantID,
			"event", delivery.EventType,
			"status_code", resp.StatusCode,
			"attempts", delivery.Attempts,
		)
		return nil
	}

	if sendErr == nil {
		sendErr = ierr.NewError("merchant endpoint returned non-2xx status").
			WithReportableDetails(map[string]any{"status_code": resp.StatusCode}).
			Mark(ierr.ErrHTTPClient)
	}

	delivery.RecordAttemptFailure(sendErr, time.Now().UTC())
	if err := h.deliveryRepo.Update(ctx, delivery); err != nil {
		return err
	}

	h.logger.Warnw("webhook delivery attempt failed",
		"error", sendErr,
		"delivery_id", delivery.ID,
		"merchant_id", delivery.MerchantID,
		"attempts", delivery.Attempts,
		"max_attempts", delivery.MaxAttempts,
	)

	return sendErr
}
