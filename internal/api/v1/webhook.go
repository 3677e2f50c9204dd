package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rai-abhi24/cgpey/internal/api/dto"
	"github.com/rai-abhi24/cgpey/internal/domain/webhookdelivery"
	"github.com/rai-abhi24/cgpey/internal/domain/webhookevent"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/service"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/rai-abhi24/cgpey/internal/webhook"
)

type WebhookHandler struct {
	reconciliation service.ReconciliationService
	merchants      service.MerchantService
	deliveries     *webhook.WebhookService
	log            *logger.Logger
}

func NewWebhookHandler(
	reconciliation service.ReconciliationService,
	merchants service.MerchantService,
	deliveries *webhook.WebhookService,
	log *logger.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		reconciliation: reconciliation,
		merchants:      merchants,
		deliveries:     deliveries,
		log:            log,
	}
}

// HandleGatewayWebhook ingests a server-to-server callback from a gateway.
// The route is unauthenticated; trust comes from the checksum header.
func (h *WebhookHandler) HandleGatewayWebhook(c *gin.Context) {
	gw := types.PaymentGatewayType(c.Param("gateway"))
	if err := gw.Validate(); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Unknown payment gateway").
			Mark(ierr.ErrValidation))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Unable to read webhook body").
			Mark(ierr.ErrValidation))
		return
	}

	ack, err := h.reconciliation.ProcessInboundWebhook(c.Request.Context(), gw, body, c.GetHeader("X-VERIFY"))
	if err != nil {
		h.log.Error("Failed to process gateway webhook", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, ack)
}

func (h *WebhookHandler) ListInboundWebhooks(c *gin.Context) {
	filter := &webhookevent.Filter{
		MerchantID: types.GetMerchantID(c.Request.Context()),
		Status:     types.InboundWebhookStatus(c.Query("status")),
	}

	resp, err := h.reconciliation.ListInboundWebhooks(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("Failed to list inbound webhooks", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": resp})
}

// ReplayInboundWebhook re-processes a stored gateway callback
func (h *WebhookHandler) ReplayInboundWebhook(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.Error(ierr.NewError("event id is required").
			WithHint("Webhook event ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.reconciliation.ReplayInboundWebhook(c.Request.Context(), eventID)
	if err != nil {
		h.log.Error("Failed to replay inbound webhook", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *WebhookHandler) GetWebhookConfig(c *gin.Context) {
	resp, err := h.merchants.GetWebhookConfig(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *WebhookHandler) UpdateWebhookConfig(c *gin.Context) {
	var req dto.UpdateWebhookConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.merchants.UpdateWebhookConfig(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to update webhook config", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *WebhookHandler) ListDeliveries(c *gin.Context) {
	filter := &webhookdelivery.Filter{
		MerchantID: types.GetMerchantID(c.Request.Context()),
		Status:     types.DeliveryStatus(c.Query("status")),
		PaymentID:  c.Query("payment_id"),
	}

	deliveries, err := h.deliveries.ListDeliveries(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("Failed to list webhook deliveries", "error", err)
		c.Error(err)
		return
	}

	items := make([]*dto.WebhookDeliveryResponse, 0, len(deliveries))
	for _, d := range deliveries {
		items = append(items, dto.NewWebhookDeliveryResponse(d))
	}

	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ReplayDelivery re-attempts a permanently failed outbound delivery
func (h *WebhookHandler) ReplayDelivery(c *gin.Context) {
	deliveryID := c.Param("id")
	if deliveryID == "" {
		c.Error(ierr.NewError("delivery id is required").
			WithHint("Delivery ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	delivery, err := h.deliveries.ReplayDelivery(c.Request.Context(), deliveryID)
	if err != nil {
		h.log.Error("Failed to replay webhook delivery", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewWebhookDeliveryResponse(delivery))
}
