package service

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rai-abhi24/cgpey/internal/api/dto"
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/gateway"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// checkout sessions are short-lived; a repeated initiation for the same
// order inside this window returns the original handoff instead of hitting
// the gateway again
const checkoutSessionTTL = 15 * time.Minute

// CheckoutService handles payment initiation
type CheckoutService interface {
	InitiateCheckout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	GetPayment(ctx context.Context, orderID string) (*dto.PaymentResponse, error)
	ListPayments(ctx context.Context, filter *payment.Filter) (*dto.ListPaymentsResponse, error)
}

type checkoutService struct {
	ServiceParams
	sessions *cache.Cache
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(params ServiceParams) CheckoutService {
	return &checkoutService{
		ServiceParams: params,
		sessions:      cache.New(checkoutSessionTTL, 2*checkoutSessionTTL),
	}
}

func (s *checkoutService) InitiateCheckout(ctx context.Context, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	merchantID := types.GetMerchantID(ctx)
	m, err := s.MerchantRepo.Get(ctx, merchantID)
	if err != nil {
		return nil, err
	}

	if m.Status != types.MerchantStatusApproved {
		return nil, ierr.NewError("merchant is not approved").
			WithHint("Merchant account must be approved before accepting payments").
			Mark(ierr.ErrPermissionDenied)
	}

	if m.PerTransactionLimit.IsPositive() && req.Amount.GreaterThan(m.PerTransactionLimit) {
		return nil, ierr.NewError("amount exceeds per transaction limit").
			WithHint("Transaction amount exceeds the configured limit").
			WithReportableDetails(map[string]any{
				"amount": req.Amount,
				"limit":  m.PerTransactionLimit,
			}).
			Mark(ierr.ErrLimitExceeded)
	}

	sessionKey := merchantID + ":" + req.MerchantOrderID
	if cached, ok := s.sessions.Get(sessionKey); ok {
		return cached.(*dto.CheckoutResponse), nil
	}

	if req.PaymentMode == types.PaymentModeUPICollect {
		valid, err := s.GatewayClient.VerifyVPA(ctx, req.VPA)
		if err != nil {
			return nil, err
		}
		if !valid {
			return nil, ierr.NewError("invalid vpa").
				WithHint("The provided VPA could not be validated").
				Mark(ierr.ErrValidation)
		}
	}

	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	checkoutType := req.CheckoutType
	if checkoutType == "" {
		checkoutType = types.CheckoutTypeStandard
	}

	p := &payment.Payment{
		ID:                 types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT),
		MerchantOrderID:    req.MerchantOrderID,
		OrderID:            types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_ORDER),
		MerchantID:         m.ID,
		Gateway:            types.PaymentGatewayTypePhonePe,
		Amount:             req.Amount,
		Currency:           currency,
		State:              types.PaymentStateCreated,
		CheckoutType:       checkoutType,
		PaymentMode:        req.PaymentMode,
		PaymentInitiatedAt: time.Now().UTC(),
		BaseModel:          types.GetDefaultBaseModel(),
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.PaymentRepo.Create(ctx, p); err != nil {
		if ierr.IsAlreadyExists(err) {
			return nil, ierr.WithError(err).
				WithHint("A payment for this order already exists").
				WithReportableDetails(map[string]any{
					"merchant_order_id": req.MerchantOrderID,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
		return nil, err
	}

	data := &dto.CheckoutData{
		OrderID: p.OrderID,
		Amount:  p.Amount,
	}

	// COD never touches the gateway; the order is settled offline and the
	// record moves straight to PENDING awaiting fulfilment
	if req.PaymentMode == types.PaymentModeCOD {
		if _, err := s.PaymentRepo.TransitionState(ctx, p.ID, types.PaymentStatePending, nil); err != nil {
			return nil, err
		}
		data.TransactionID = p.ID
		resp := &dto.CheckoutResponse{Success: true, Data: data}
		s.sessions.Set(sessionKey, resp, cache.DefaultExpiration)
		return resp, nil
	}

	redirectURL := req.RedirectURL
	if redirectURL == "" {
		redirectURL = s.Config.Gateway.RedirectURL
	}

	initResp, err := s.GatewayClient.InitiatePayment(ctx, &gateway.InitiateRequest{
		OrderID:     p.OrderID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		PaymentMode: p.PaymentMode,
		VPA:         req.VPA,
		RedirectURL: redirectURL,
		CallbackURL: s.Config.Gateway.CallbackURL,
	})
	if err != nil {
		// The gateway rejected the initiation outright; the record is dead
		if _, txErr := s.PaymentRepo.TransitionState(ctx, p.ID, types.PaymentStateFailed, nil); txErr != nil {
			s.Logger.Errorw("failed to mark payment failed after gateway rejection",
				"error", txErr,
				"payment_id", p.ID,
			)
		}
		return nil, err
	}

	p.GatewayTxnID = &initResp.GatewayTxnID
	p.State = types.PaymentStatePending
	if err := s.PaymentRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.Logger.Infow("checkout initiated",
		"payment_id", p.ID,
		"order_id", p.OrderID,
		"merchant_id", m.ID,
		"payment_mode", p.PaymentMode,
		"amount", p.Amount,
	)

	data.TransactionID = initResp.GatewayTxnID
	data.CheckoutURL = initResp.CheckoutURL
	data.IntentURL = initResp.IntentURL
	data.RedirectURL = initResp.RedirectURL

	resp := &dto.CheckoutResponse{Success: true, Data: data}
	s.sessions.Set(sessionKey, resp, cache.DefaultExpiration)
	return resp, nil
}

func (s *checkoutService) GetPayment(ctx context.Context, orderID string) (*dto.PaymentResponse, error) {
	p, err := s.PaymentRepo.GetByOrderID(ctx, orderID, types.PaymentGatewayTypePhonePe)
	if err != nil {
		return nil, err
	}

	if merchantID := types.GetMerchantID(ctx); merchantID != "" && p.MerchantID != merchantID {
		return nil, ierr.NewError("payment not found").
			WithHint("No payment exists for this order").
			Mark(ierr.ErrNotFound)
	}

	return dto.NewPaymentResponse(p), nil
}

func (s *checkoutService) ListPayments(ctx context.Context, filter *payment.Filter) (*dto.ListPaymentsResponse, error) {
	if filter == nil {
		filter = &payment.Filter{}
	}
	if merchantID := types.GetMerchantID(ctx); merchantID != "" {
		filter.MerchantID = merchantID
	}

	payments, err := s.PaymentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		items = append(items, dto.NewPaymentResponse(p))
	}

	return &dto.ListPaymentsResponse{
		Items:  items,
		Limit:  filter.GetLimit(),
		Offset: filter.GetOffset(),
	}, nil
}
