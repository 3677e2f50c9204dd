package webhook

import (
	"github.com/rai-abhi24/cgpey/internal/config"
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/pubsub"
	"github.com/rai-abhi24/cgpey/internal/pubsub/memory"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/rai-abhi24/cgpey/internal/webhook/handler"
	"github.com/rai-abhi24/cgpey/internal/webhook/payload"
	"github.com/rai-abhi24/cgpey/internal/webhook/publisher"
	"go.uber.org/fx"
)

// Module provides all webhook-related dependencies
var Module = fx.Options(
	fx.Provide(
		// PubSub for the webhook event bus
		providePubSub,

		// Publisher for sending webhook events
		publisher.NewPublisher,

		// Handler for processing webhook events
		handler.NewHandler,

		// Payload builder factory and services
		providePayloadBuilderFactory,

		// Main webhook service
		NewWebhookService,
	),
)

func providePayloadBuilderFactory(paymentRepo payment.Repository) payload.PayloadBuilderFactory {
	services := payload.NewServices(paymentRepo)
	return payload.NewPayloadBuilderFactory(services)
}

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) pubsub.PubSub {
	switch cfg.Webhook.PubSub {
	case types.MemoryPubSub:
		return memory.NewPubSub(cfg, logger)
	}
	panic("unsupported pubsub type")
}
