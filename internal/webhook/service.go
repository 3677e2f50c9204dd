package webhook

import (
	"context"

	"github.com/rai-abhi24/cgpey/internal/config"
	"github.com/rai-abhi24/cgpey/internal/domain/webhookdelivery"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/logger"
	pubsubRouter "github.com/rai-abhi24/cgpey/internal/pubsub/router"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/rai-abhi24/cgpey/internal/webhook/handler"
	"github.com/rai-abhi24/cgpey/internal/webhook/publisher"
)

// WebhookService orchestrates outbound webhook delivery and replay
type WebhookService struct {
	config       *config.Configuration
	publisher    publisher.WebhookPublisher
	handler      handler.Handler
	router       *pubsubRouter.Router
	deliveryRepo webhookdelivery.Repository
	logger       *logger.Logger
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	cfg *config.Configuration,
	publisher publisher.WebhookPublisher,
	h handler.Handler,
	router *pubsubRouter.Router,
	deliveryRepo webhookdelivery.Repository,
	l *logger.Logger,
) *WebhookService {
	return &WebhookService{
		config:       cfg,
		publisher:    publisher,
		handler:      h,
		router:       router,
		deliveryRepo: deliveryRepo,
		logger:       l,
	}
}

// Start registers the delivery handler and runs the message router
func (s *WebhookService) Start(ctx context.Context) error {
	if !s.config.Webhook.Enabled {
		s.logger.Info("webhook service disabled")
		return nil
	}

	s.handler.RegisterHandler(s.router)

	go func() {
		if err := s.router.Run(); err != nil {
			s.logger.Errorw("webhook router stopped", "error", err)
		}
	}()

	s.logger.Info("webhook service started successfully")
	return nil
}

// Stop stops the webhook service
func (s *WebhookService) Stop() error {
	s.logger.Debug("stopping webhook service")

	if err := s.router.Close(); err != nil {
		s.logger.Errorw("failed to close webhook router", "error", err)
		return err
	}

	if err := s.publisher.Close(); err != nil {
		s.logger.Errorw("failed to close webhook publisher", "error", err)
		return err
	}

	s.logger.Info("webhook service stopped successfully")
	return nil
}

// PublishEvent publishes an event onto the delivery pipeline
func (s *WebhookService) PublishEvent(ctx context.Context, event *types.WebhookEvent) error {
	if !s.config.Webhook.Enabled {
		return nil
	}
	return s.publisher.PublishWebhook(ctx, event)
}

// ReplayDelivery re-attempts a permanently failed delivery on explicit
// operator action. Only FAILED records can be replayed.
func (s *WebhookService) ReplayDelivery(ctx context.Context, deliveryID string) (*webhookdelivery.WebhookDelivery, error) {
	delivery, err := s.deliveryRepo.Get(ctx, deliveryID)
	if err != nil {
		return nil, err
	}

	if delivery.Status != types.DeliveryStatusFailed {
		return nil, ierr.NewError("delivery is not in a failed state").
			WithHint("Only permanently failed deliveries can be replayed").
			WithReportableDetails(map[string]any{
				"delivery_id": deliveryID,
				"status":      delivery.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	delivery.ResetForReplay()
	if err := s.deliveryRepo.Update(ctx, delivery); err != nil {
		return nil, err
	}

	s.logger.Infow("replaying webhook delivery",
		"delivery_id", delivery.ID,
		"merchant_id", delivery.MerchantID,
		"event", delivery.EventType,
	)

	// Replay is a single attempt; a failure marks the record for another
	// manual replay rather than re-entering the automatic retry cycle
	if err := s.handler.Attempt(ctx, delivery); err != nil {
		delivery.Status = types.DeliveryStatusFailed
		delivery.NextRetryAt = nil
		if updateErr := s.deliveryRepo.Update(ctx, delivery); updateErr != nil {
			return nil, updateErr
		}
	}

	return delivery, nil
}

// ListDeliveries lists outbound delivery records for inspection
func (s *WebhookService) ListDeliveries(ctx context.Context, filter *webhookdelivery.Filter) ([]*webhookdelivery.WebhookDelivery, error) {
	return s.deliveryRepo.List(ctx, filter)
}
