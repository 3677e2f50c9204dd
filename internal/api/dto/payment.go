package dto

import (
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/shopspring/decimal"
)

// PaymentResponse is the merchant-facing projection of a payment record
type PaymentResponse struct {
	ID              string                   `json:"id"`
	OrderID         string                   `json:"order_id"`
	MerchantOrderID string                   `json:"merchant_order_id"`
	Gateway         types.PaymentGatewayType `json:"gateway"`
	Amount          decimal.Decimal          `json:"amount"`
	Currency        string                   `json:"currency"`
	State           types.PaymentState       `json:"state"`
	PaymentMode     types.PaymentMode        `json:"payment_mode"`
	UTR             *string                  `json:"utr,omitempty"`
	CompletedAt     *time.Time               `json:"completed_at,omitempty"`
	Refund          *RefundResponse          `json:"refund,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
}

// NewPaymentResponse projects a payment for the API surface
func NewPaymentResponse(p *payment.Payment) *PaymentResponse {
	resp := &PaymentResponse{
		ID:              p.ID,
		OrderID:         p.OrderID,
		MerchantOrderID: p.MerchantOrderID,
		Gateway:         p.Gateway,
		Amount:          p.Amount,
		Currency:        p.Currency,
		State:           p.State,
		PaymentMode:     p.PaymentMode,
		UTR:             p.UTR,
		CompletedAt:     p.CompletedAt,
		CreatedAt:       p.CreatedAt,
	}
	if p.Refund != nil {
		resp.Refund = NewRefundResponse(p.Refund)
	}
	return resp
}

// VerifyPaymentResponse reports the reconciliation outcome for one payment
type VerifyPaymentResponse struct {
	Payment *PaymentResponse `json:"payment"`
	// Outcome is "terminal", "timed_out" or "cancelled"
	Outcome string `json:"outcome"`
	// Attempts is the number of gateway status calls made
	Attempts int `json:"attempts"`
}

// ListPaymentsResponse is a paginated payment listing
type ListPaymentsResponse struct {
	Items  []*PaymentResponse `json:"items"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}
