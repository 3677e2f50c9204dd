package service

import (
	"github.com/rai-abhi24/cgpey/internal/config"
	"github.com/rai-abhi24/cgpey/internal/domain/merchant"
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	"github.com/rai-abhi24/cgpey/internal/domain/webhookdelivery"
	"github.com/rai-abhi24/cgpey/internal/domain/webhookevent"
	"github.com/rai-abhi24/cgpey/internal/gateway"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/postgres"
	"github.com/rai-abhi24/cgpey/internal/security"
	webhookPublisher "github.com/rai-abhi24/cgpey/internal/webhook/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     *postgres.DB

	// Repositories
	PaymentRepo         payment.Repository
	MerchantRepo        merchant.Repository
	WebhookEventRepo    webhookevent.Repository
	WebhookDeliveryRepo webhookdelivery.Repository

	// External collaborators
	GatewayClient    gateway.Client
	WebhookPublisher webhookPublisher.WebhookPublisher
	Signer           security.Signer
}

// NewServiceParams wires common service dependencies
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db *postgres.DB,
	paymentRepo payment.Repository,
	merchantRepo merchant.Repository,
	webhookEventRepo webhookevent.Repository,
	webhookDeliveryRepo webhookdelivery.Repository,
	gatewayClient gateway.Client,
	webhookPub webhookPublisher.WebhookPublisher,
	signer security.Signer,
) ServiceParams {
	return ServiceParams{
		Logger:              logger,
		Config:              config,
		DB:                  db,
		PaymentRepo:         paymentRepo,
		MerchantRepo:        merchantRepo,
		WebhookEventRepo:    webhookEventRepo,
		WebhookDeliveryRepo: webhookDeliveryRepo,
		GatewayClient:       gatewayClient,
		WebhookPublisher:    webhookPub,
		Signer:              signer,
	}
}
