package email

import (
	"context"
	"fmt"

	"github.com/rai-abhi24/cgpey/internal/logger"
)

// Service sends operator alerts. Delivery failures never propagate to the
// caller; an alert that cannot be sent is logged and dropped.
type Service struct {
	client *EmailClient
	logger *logger.Logger
}

// NewService creates a new email service
func NewService(client *EmailClient, logger *logger.Logger) *Service {
	return &Service{
		client: client,
		logger: logger,
	}
}

// SendDeliveryExhaustedAlert notifies the operator that an outbound webhook
// exhausted its retry budget and needs manual replay
func (s *Service) SendDeliveryExhaustedAlert(ctx context.Context, merchantID, deliveryID, eventType string, lastError string) {
	if !s.client.IsEnabled() {
		s.logger.Warnw("email client disabled, skipping delivery alert",
			"merchant_id", merchantID,
			"delivery_id", deliveryID,
		)
		return
	}

	subject := fmt.Sprintf("Webhook delivery %s failed permanently", deliveryID)
	body := fmt.Sprintf(
		"Webhook delivery exhausted all retry attempts.\n\n"+
			"Delivery ID: %s\nMerchant ID: %s\nEvent: %s\nLast error: %s\n\n"+
			"Replay it from the dashboard once the merchant endpoint recovers.",
		deliveryID, merchantID, eventType, lastError,
	)

	messageID, err := s.client.SendEmail(ctx, s.client.GetFromAddress(), s.client.GetAlertTo(), subject, body)
	if err != nil {
		s.logger.Errorw("failed to send delivery alert email",
			"error", err,
			"delivery_id", deliveryID,
		)
		return
	}

	s.logger.Infow("delivery alert email sent",
		"message_id", messageID,
		"delivery_id", deliveryID,
	)
}
