package dto

import (
	"time"

	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/shopspring/decimal"
)

// RefundRequest initiates a refund against a successful payment. A zero
// amount means a full refund.
type RefundRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}

// Validate validates the refund request
func (r *RefundRequest) Validate() error {
	if r.Amount.IsNegative() {
		return ierr.NewError("invalid refund amount").
			WithHint("Refund amount must not be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// RefundResponse is the merchant-facing projection of a refund record
type RefundResponse struct {
	ID          string            `json:"id"`
	PaymentID   string            `json:"payment_id"`
	Amount      decimal.Decimal   `json:"amount"`
	State       types.RefundState `json:"state"`
	InitiatedAt time.Time         `json:"initiated_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
}

// NewRefundResponse projects a refund for the API surface
func NewRefundResponse(r *payment.Refund) *RefundResponse {
	return &RefundResponse{
		ID:          r.ID,
		PaymentID:   r.PaymentID,
		Amount:      r.Amount,
		State:       r.State,
		InitiatedAt: r.InitiatedAt,
		CompletedAt: r.CompletedAt,
	}
}
