package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rai-abhi24/cgpey/internal/api/dto"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/service"
)

type RefundHandler struct {
	service service.RefundService
	log     *logger.Logger
}

func NewRefundHandler(service service.RefundService, log *logger.Logger) *RefundHandler {
	return &RefundHandler{service: service, log: log}
}

// @Summary Initiate a refund
// @Description Refund a successful payment, fully or partially
// @Tags Refunds
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param orderId path string true "Order ID"
// @Param refund body dto.RefundRequest true "Refund request"
// @Success 201 {object} dto.RefundResponse
// @Router /payments/{orderId}/refund [post]
func (h *RefundHandler) InitiateRefund(c *gin.Context) {
	orderID := c.Param("orderId")
	if orderID == "" {
		c.Error(ierr.NewError("order id is required").
			WithHint("Order ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	var req dto.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.InitiateRefund(c.Request.Context(), orderID, &req)
	if err != nil {
		h.log.Error("Failed to initiate refund", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *RefundHandler) GetRefund(c *gin.Context) {
	refundID := c.Param("refundId")
	if refundID == "" {
		c.Error(ierr.NewError("refund id is required").
			WithHint("Refund ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetRefund(c.Request.Context(), refundID)
	if err != nil {
		h.log.Error("Failed to get refund", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Reconcile a refund against the gateway
// @Tags Refunds
// @Produce json
// @Security ApiKeyAuth
// @Param refundId path string true "Refund ID"
// @Success 200 {object} dto.RefundResponse
// @Router /refunds/{refundId}/status [post]
func (h *RefundHandler) CheckRefundStatus(c *gin.Context) {
	refundID := c.Param("refundId")
	if refundID == "" {
		c.Error(ierr.NewError("refund id is required").
			WithHint("Refund ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CheckRefundStatus(c.Request.Context(), refundID)
	if err != nil {
		h.log.Error("Failed to check refund status", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Reverse a completed refund
// @Description Administrative override marking a settled refund as recalled
// @Tags Refunds
// @Produce json
// @Security ApiKeyAuth
// @Param refundId path string true "Refund ID"
// @Success 200 {object} dto.RefundResponse
// @Router /refunds/{refundId}/reverse [post]
func (h *RefundHandler) ReverseRefund(c *gin.Context) {
	refundID := c.Param("refundId")
	if refundID == "" {
		c.Error(ierr.NewError("refund id is required").
			WithHint("Refund ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.ReverseRefund(c.Request.Context(), refundID)
	if err != nil {
		h.log.Error("Failed to reverse refund", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
