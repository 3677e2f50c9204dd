package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rai-abhi24/cgpey/internal/api"
	v1 "github.com/rai-abhi24/cgpey/internal/api/v1"
	"github.com/rai-abhi24/cgpey/internal/config"
	"github.com/rai-abhi24/cgpey/internal/domain/merchant"
	"github.com/rai-abhi24/cgpey/internal/email"
	"github.com/rai-abhi24/cgpey/internal/gateway/phonepe"
	"github.com/rai-abhi24/cgpey/internal/httpclient"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/postgres"
	pubsubRouter "github.com/rai-abhi24/cgpey/internal/pubsub/router"
	"github.com/rai-abhi24/cgpey/internal/repository"
	"github.com/rai-abhi24/cgpey/internal/security"
	"github.com/rai-abhi24/cgpey/internal/service"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/rai-abhi24/cgpey/internal/webhook"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Postgres
			postgres.NewDB,

			// HTTP client
			httpclient.NewDefaultClient,

			// Gateway
			phonepe.NewClient,

			// Signing
			security.NewSigner,

			// Email alerts
			email.NewEmailClient,
			email.NewService,

			// Repositories
			repository.NewPaymentRepository,
			repository.NewMerchantRepository,
			repository.NewWebhookEventRepository,
			repository.NewWebhookDeliveryRepository,

			// Message router
			pubsubRouter.NewRouter,
		),
	)

	// Webhook module (must be initialised before services)
	opts = append(opts, webhook.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewCheckoutService,
			service.NewReconciliationService,
			service.NewRefundService,
			service.NewMerchantService,
		),
	)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(startServer),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	checkoutService service.CheckoutService,
	reconciliationService service.ReconciliationService,
	refundService service.RefundService,
	merchantService service.MerchantService,
	webhookService *webhook.WebhookService,
) api.Handlers {
	return api.Handlers{
		Health:  v1.NewHealthHandler(logger),
		Payment: v1.NewPaymentHandler(checkoutService, reconciliationService, logger),
		Refund:  v1.NewRefundHandler(refundService, logger),
		Webhook: v1.NewWebhookHandler(reconciliationService, merchantService, webhookService, logger),
	}
}

func provideRouter(handlers api.Handlers, merchantRepo merchant.Repository, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, merchantRepo, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	webhookService *webhook.WebhookService,
	db *postgres.DB,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startDeliveryWorker(lc, webhookService, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeWorker:
		startDeliveryWorker(lc, webhookService, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infof("Starting API server on %s", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}

func startDeliveryWorker(
	lc fx.Lifecycle,
	webhookService *webhook.WebhookService,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting webhook delivery worker...")
			return webhookService.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return webhookService.Stop()
		},
	})
}
