package dto

import (
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/shopspring/decimal"
)

// CheckoutRequest initiates a payment for a merchant order
type CheckoutRequest struct {
	MerchantOrderID string            `json:"merchant_order_id" binding:"required"`
	Amount          decimal.Decimal   `json:"amount" binding:"required"`
	Currency        string            `json:"currency"`
	PaymentMode     types.PaymentMode `json:"payment_mode" binding:"required"`
	CheckoutType    types.CheckoutType `json:"checkout_type"`
	// VPA is required only for UPI collect
	VPA         string `json:"vpa"`
	RedirectURL string `json:"redirect_url"`
}

// Validate validates the checkout request beyond binding tags
func (r *CheckoutRequest) Validate() error {
	if r.Amount.IsZero() || r.Amount.IsNegative() {
		return ierr.NewError("invalid amount").
			WithHint("Amount must be greater than 0").
			Mark(ierr.ErrValidation)
	}
	if err := r.PaymentMode.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Payment mode is invalid").
			Mark(ierr.ErrValidation)
	}
	if r.CheckoutType != "" {
		if err := r.CheckoutType.Validate(); err != nil {
			return ierr.WithError(err).
				WithHint("Checkout type is invalid").
				Mark(ierr.ErrValidation)
		}
	}
	if r.PaymentMode == types.PaymentModeUPICollect && r.VPA == "" {
		return ierr.NewError("missing vpa").
			WithHint("VPA is required for UPI collect").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CheckoutData is the handoff payload returned to the merchant frontend
type CheckoutData struct {
	OrderID       string          `json:"orderId"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	// Exactly one of the following is set depending on the payment mode
	CheckoutURL string `json:"checkoutUrl,omitempty"`
	IntentURL   string `json:"intentUrl,omitempty"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}

// CheckoutResponse wraps the checkout handoff
type CheckoutResponse struct {
	Success bool          `json:"success"`
	Data    *CheckoutData `json:"data"`
}
