package service

import (
	"context"
	"time"

	"github.com/rai-abhi24/cgpey/internal/api/dto"
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/gateway"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// RefundService handles the refund lifecycle
type RefundService interface {
	// InitiateRefund starts a refund for a successful payment. A zero
	// amount refunds the full payment.
	InitiateRefund(ctx context.Context, orderID string, req *dto.RefundRequest) (*dto.RefundResponse, error)
	GetRefund(ctx context.Context, refundID string) (*dto.RefundResponse, error)
	// CheckRefundStatus reconciles the refund against the gateway
	CheckRefundStatus(ctx context.Context, refundID string) (*dto.RefundResponse, error)
	// ReverseRefund administratively overrides a refund to REVERSED
	ReverseRefund(ctx context.Context, refundID string) (*dto.RefundResponse, error)
}

type refundService struct {
	ServiceParams
}

// NewRefundService creates a new refund service
func NewRefundService(params ServiceParams) RefundService {
	return &refundService{ServiceParams: params}
}

func (s *refundService) InitiateRefund(ctx context.Context, orderID string, req *dto.RefundRequest) (*dto.RefundResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, err := s.PaymentRepo.GetByOrderID(ctx, orderID, types.PaymentGatewayTypePhonePe)
	if err != nil {
		return nil, err
	}

	if merchantID := types.GetMerchantID(ctx); merchantID != "" && p.MerchantID != merchantID {
		return nil, ierr.NewError("payment not found").
			WithHint("No payment exists for this order").
			Mark(ierr.ErrNotFound)
	}

	if p.State != types.PaymentStateSuccess {
		return nil, ierr.NewError("payment is not refundable").
			WithHint("Only successful payments can be refunded").
			WithReportableDetails(map[string]any{
				"order_id": orderID,
				"state":    p.State,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if p.HasActiveRefund() {
		return nil, ierr.NewError("refund already exists").
			WithHint("A refund for this payment is already in progress or completed").
			WithReportableDetails(map[string]any{"refund_id": p.Refund.ID}).
			Mark(ierr.ErrAlreadyExists)
	}

	amount := req.Amount
	if amount.IsZero() {
		amount = p.Amount
	}

	refund := &payment.Refund{
		ID:          types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REFUND),
		PaymentID:   p.ID,
		Amount:      amount,
		State:       types.RefundStatePending,
		InitiatedAt: time.Now().UTC(),
		BaseModel:   types.GetDefaultBaseModel(),
	}

	if err := refund.Validate(p); err != nil {
		return nil, err
	}

	if err := s.PaymentRepo.CreateRefund(ctx, refund); err != nil {
		return nil, err
	}

	if err := s.GatewayClient.InitiateRefund(ctx, &gateway.RefundRequest{
		RefundID: refund.ID,
		OrderID:  p.OrderID,
		Amount:   amount,
	}); err != nil {
		// The gateway refused the refund; close the record so the
		// merchant can try again
		refund.State = types.RefundStateFailed
		now := time.Now().UTC()
		refund.CompletedAt = &now
		if updateErr := s.PaymentRepo.UpdateRefund(ctx, refund); updateErr != nil {
			s.Logger.Errorw("failed to mark refund failed after gateway rejection",
				"error", updateErr,
				"refund_id", refund.ID,
			)
		}
		return nil, err
	}

	s.Logger.Infow("refund initiated",
		"refund_id", refund.ID,
		"payment_id", p.ID,
		"amount", amount,
	)

	s.publishRefundEvent(ctx, types.WebhookEventRefundInitiated, refund, p.MerchantID)

	return dto.NewRefundResponse(refund), nil
}

func (s *refundService) GetRefund(ctx context.Context, refundID string) (*dto.RefundResponse, error) {
	refund, err := s.getScopedRefund(ctx, refundID)
	if err != nil {
		return nil, err
	}
	return dto.NewRefundResponse(refund), nil
}

func (s *refundService) CheckRefundStatus(ctx context.Context, refundID string) (*dto.RefundResponse, error) {
	refund, err := s.getScopedRefund(ctx, refundID)
	if err != nil {
		return nil, err
	}

	if refund.State.IsTerminal() {
		return dto.NewRefundResponse(refund), nil
	}

	statusResp, err := s.GatewayClient.RefundStatus(ctx, refund.ID)
	if err != nil {
		return nil, err
	}

	parent, err := s.PaymentRepo.Get(ctx, refund.PaymentID)
	if err != nil {
		return nil, err
	}

	if _, err := s.applyRefundState(ctx, refund, statusResp.State, parent.MerchantID); err != nil {
		return nil, err
	}

	return dto.NewRefundResponse(refund), nil
}

func (s *refundService) ReverseRefund(ctx context.Context, refundID string) (*dto.RefundResponse, error) {
	refund, err := s.PaymentRepo.GetRefund(ctx, refundID)
	if err != nil {
		return nil, err
	}

	if refund.State == types.RefundStateReversed {
		return dto.NewRefundResponse(refund), nil
	}

	// Administrative override; this is the only path that moves a refund
	// out of a terminal state
	refund.State = types.RefundStateReversed
	now := time.Now().UTC()
	refund.CompletedAt = &now
	if err := s.PaymentRepo.UpdateRefund(ctx, refund); err != nil {
		return nil, err
	}

	s.Logger.Infow("refund reversed", "refund_id", refund.ID)

	return dto.NewRefundResponse(refund), nil
}

func (s *refundService) getScopedRefund(ctx context.Context, refundID string) (*payment.Refund, error) {
	refund, err := s.PaymentRepo.GetRefund(ctx, refundID)
	if err != nil {
		return nil, err
	}

	if merchantID := types.GetMerchantID(ctx); merchantID != "" {
		parent, err := s.PaymentRepo.Get(ctx, refund.PaymentID)
		if err != nil {
			return nil, err
		}
		if parent.MerchantID != merchantID {
			return nil, ierr.NewError("refund not found").
				WithHint("No refund exists with this id").
				Mark(ierr.ErrNotFound)
		}
	}

	return refund, nil
}

// applyRefundState moves a refund forward. Terminal refund states are
// sinks; the first terminal write wins and later writes no-op.
func (p ServiceParams) applyRefundState(ctx context.Context, refund *payment.Refund, to types.RefundState, merchantID string) (bool, error) {
	if refund.State.IsTerminal() || to == refund.State || to == types.RefundStatePending {
		return false, nil
	}

	refund.State = to
	if to.IsTerminal() {
		now := time.Now().UTC()
		refund.CompletedAt = &now
	}

	if err := p.PaymentRepo.UpdateRefund(ctx, refund); err != nil {
		return false, err
	}

	p.Logger.Infow("refund state applied",
		"refund_id", refund.ID,
		"state", to,
	)

	if eventName, ok := types.WebhookEventForRefundState(to); ok {
		p.publishRefundEvent(ctx, eventName, refund, merchantID)
	}

	return true, nil
}
