package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rai-abhi24/cgpey/internal/api/dto"
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/service"
	"github.com/rai-abhi24/cgpey/internal/types"
)

type PaymentHandler struct {
	checkout       service.CheckoutService
	reconciliation service.ReconciliationService
	log            *logger.Logger
}

func NewPaymentHandler(checkout service.CheckoutService, reconciliation service.ReconciliationService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{checkout: checkout, reconciliation: reconciliation, log: log}
}

// @Summary Initiate a checkout
// @Description Create a payment and hand off to the gateway
// @Tags Payments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param checkout body dto.CheckoutRequest true "Checkout request"
// @Success 201 {object} dto.CheckoutResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /payments/checkout [post]
func (h *PaymentHandler) InitiateCheckout(c *gin.Context) {
	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.checkout.InitiateCheckout(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to initiate checkout", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a payment by order id
// @Tags Payments
// @Produce json
// @Security ApiKeyAuth
// @Param orderId path string true "Order ID"
// @Success 200 {object} dto.PaymentResponse
// @Router /payments/{orderId} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	orderID := c.Param("orderId")
	if orderID == "" {
		c.Error(ierr.NewError("order id is required").
			WithHint("Order ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.checkout.GetPayment(c.Request.Context(), orderID)
	if err != nil {
		h.log.Error("Failed to get payment", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Verify and reconcile a payment
// @Description Poll the gateway until the payment reaches a terminal state
// @Tags Payments
// @Produce json
// @Security ApiKeyAuth
// @Param orderId path string true "Order ID"
// @Success 200 {object} dto.VerifyPaymentResponse
// @Router /payments/{orderId}/verify [post]
func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	orderID := c.Param("orderId")
	if orderID == "" {
		c.Error(ierr.NewError("order id is required").
			WithHint("Order ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.reconciliation.PollUntilTerminal(c.Request.Context(), orderID)
	if err != nil {
		h.log.Error("Failed to verify payment", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *PaymentHandler) ListPayments(c *gin.Context) {
	filter := &payment.Filter{}
	if state := c.Query("state"); state != "" {
		filter.States = []types.PaymentState{types.PaymentState(state)}
	}

	resp, err := h.checkout.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.log.Error("Failed to list payments", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
