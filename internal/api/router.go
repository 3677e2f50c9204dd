package api

import (
	"github.com/gin-gonic/gin"
	v1 "github.com/rai-abhi24/cgpey/internal/api/v1"
	"github.com/rai-abhi24/cgpey/internal/domain/merchant"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/rest/middleware"
)

type Handlers struct {
	Health  *v1.HealthHandler
	Payment *v1.PaymentHandler
	Refund  *v1.RefundHandler
	Webhook *v1.WebhookHandler
}

func NewRouter(handlers Handlers, merchantRepo merchant.Repository, logger *logger.Logger) *gin.Engine {
	router := gin.New()

	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.ErrorHandler(),
	)

	router.GET("/health", handlers.Health.Health)

	apiGroup := router.Group("/api")

	// Gateway callbacks are authenticated by checksum, not API keys
	apiGroup.POST("/webhooks/gateway/:gateway", handlers.Webhook.HandleGatewayWebhook)

	authed := apiGroup.Group("")
	authed.Use(middleware.MerchantAuthMiddleware(merchantRepo, logger))
	registerMerchantRoutes(authed, handlers)

	return router
}

func registerMerchantRoutes(router *gin.RouterGroup, handlers Handlers) {
	// Payment routes
	payments := router.Group("/payments")
	{
		payments.POST("/checkout", handlers.Payment.InitiateCheckout)
		payments.GET("", handlers.Payment.ListPayments)
		payments.GET("/:orderId", handlers.Payment.GetPayment)
		payments.POST("/:orderId/verify", handlers.Payment.VerifyPayment)
		payments.POST("/:orderId/refund", handlers.Refund.InitiateRefund)
	}

	// Refund routes
	refunds := router.Group("/refunds")
	{
		refunds.GET("/:refundId", handlers.Refund.GetRefund)
		refunds.POST("/:refundId/status", handlers.Refund.CheckRefundStatus)
		refunds.POST("/:refundId/reverse", handlers.Refund.ReverseRefund)
	}

	// Webhook inspection and replay
	webhooks := router.Group("/webhooks")
	{
		webhooks.GET("/config", handlers.Webhook.GetWebhookConfig)
		webhooks.PUT("/config", handlers.Webhook.UpdateWebhookConfig)
		webhooks.GET("/events", handlers.Webhook.ListInboundWebhooks)
		webhooks.POST("/events/:id/replay", handlers.Webhook.ReplayInboundWebhook)
		webhooks.GET("/deliveries", handlers.Webhook.ListDeliveries)
		webhooks.POST("/deliveries/:id/replay", handlers.Webhook.ReplayDelivery)
	}
}
