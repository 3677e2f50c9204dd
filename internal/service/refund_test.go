package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rai-abhi24/cgpey/internal/api/dto"
	"github.com/rai-abhi24/cgpey/internal/domain/merchant"
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/testutil"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type RefundServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  RefundService
	testData struct {
		merchant *merchant.Merchant
		payment  *payment.Payment
	}
}

func TestRefundService(t *testing.T) {
	suite.Run(t, new(RefundServiceSuite))
}

func (s *RefundServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *RefundServiceSuite) serviceParams() ServiceParams {
	return ServiceParams{
		Logger:              s.GetLogger(),
		Config:              s.GetConfig(),
		PaymentRepo:         s.GetStores().PaymentRepo,
		MerchantRepo:        s.GetStores().MerchantRepo,
		WebhookEventRepo:    s.GetStores().WebhookEventRepo,
		WebhookDeliveryRepo: s.GetStores().WebhookDeliveryRepo,
		GatewayClient:       s.GetGateway(),
		WebhookPublisher:    s.GetWebhookPublisher(),
	}
}

func (s *RefundServiceSuite) setupService() {
	s.service = NewRefundService(s.serviceParams())
}

func (s *RefundServiceSuite) setupTestData() {
	s.testData.merchant = &merchant.Merchant{
		ID:        types.DefaultMerchantID,
		Name:      "Test Merchant",
		Status:    types.MerchantStatusApproved,
		BaseModel: types.GetDefaultBaseModel(),
	}
	s.NoError(s.GetStores().MerchantRepo.Create(s.GetContext(), s.testData.merchant))

	s.testData.payment = &payment.Payment{
		ID:                 "pay_test_refund",
		MerchantOrderID:    "ORDER-REFUND",
		OrderID:            "ord_refund1",
		MerchantID:         s.testData.merchant.ID,
		Gateway:            types.PaymentGatewayTypePhonePe,
		GatewayTxnID:       lo.ToPtr("GW_ord_refund1"),
		Amount:             decimal.NewFromInt(2500),
		Currency:           "INR",
		State:              types.PaymentStateSuccess,
		CheckoutType:       types.CheckoutTypeStandard,
		PaymentMode:        types.PaymentModeUPIIntent,
		UTR:                lo.ToPtr("UTR999"),
		PaymentInitiatedAt: time.Now().UTC(),
		CompletedAt:        lo.ToPtr(time.Now().UTC()),
		BaseModel:          types.GetDefaultBaseModel(),
	}
	s.NoError(s.GetStores().PaymentRepo.Create(s.GetContext(), s.testData.payment))
}

func (s *RefundServiceSuite) TestInitiateRefund_FullAmount() {
	resp, err := s.service.InitiateRefund(s.GetContext(), s.testData.payment.OrderID, &dto.RefundRequest{})
	s.NoError(err)
	s.NotNil(resp)
	s.Equal(types.RefundStatePending, resp.State)
	s.True(resp.Amount.Equal(s.testData.payment.Amount))
	s.Equal(s.testData.payment.ID, resp.PaymentID)

	// the refund id doubles as the gateway idempotency token
	calls := s.GetGateway().RefundCalls()
	s.Len(calls, 1)
	s.Equal(resp.ID, calls[0].RefundID)
	s.Equal(s.testData.payment.OrderID, calls[0].OrderID)

	// refund.initiated went out on the bus
	msgs := s.GetPubSub().GetMessages(s.GetConfig().Webhook.Topic)
	s.Len(msgs, 1)
	var event types.WebhookEvent
	s.NoError(json.Unmarshal(msgs[0].Payload, &event))
	s.Equal(types.WebhookEventRefundInitiated, event.EventName)
}

func (s *RefundServiceSuite) TestInitiateRefund_PartialAmount() {
	resp, err := s.service.InitiateRefund(s.GetContext(), s.testData.payment.OrderID, &dto.RefundRequest{
		Amount: decimal.NewFromInt(1000),
	})
	s.NoError(err)
	s.True(resp.Amount.Equal(decimal.NewFromInt(1000)))
}

func (s *RefundServiceSuite) TestInitiateRefund_PaymentNotSuccessful() {
	pending := &payment.Payment{
		ID:                 "pay_pending",
		MerchantOrderID:    "ORDER-PENDING",
		OrderID:            "ord_pending1",
		MerchantID:         s.testData.merchant.ID,
		Gateway:            types.PaymentGatewayTypePhonePe,
		Amount:             decimal.NewFromInt(100),
		Currency:           "INR",
		State:              types.PaymentStatePending,
		CheckoutType:       types.CheckoutTypeStandard,
		PaymentMode:        types.PaymentModeUPIIntent,
		PaymentInitiatedAt: time.Now().UTC(),
		BaseModel:          types.GetDefaultBaseModel(),
	}
	s.NoError(s.GetStores().PaymentRepo.Create(s.GetContext(), pending))

	_, err := s.service.InitiateRefund(s.GetContext(), pending.OrderID, &dto.RefundRequest{})
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}

func (s *RefundServiceSuite) TestInitiateRefund_Duplicate() {
	_, err := s.service.InitiateRefund(s.GetContext(), s.testData.payment.OrderID, &dto.RefundRequest{})
	s.NoError(err)

	_, err = s.service.InitiateRefund(s.GetContext(), s.testData.payment.OrderID, &dto.RefundRequest{})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *RefundServiceSuite) TestInitiateRefund_AmountExceedsPayment() {
	_, err := s.service.InitiateRefund(s.GetContext(), s.testData.payment.OrderID, &dto.RefundRequest{
		Amount: decimal.NewFromInt(5000),
	})
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *RefundServiceSuite) TestInitiateRefund_GatewayRejection() {
	s.GetGateway().RefundErr = ierr.NewError("refund rejected").
		WithHint("The gateway declined the refund").
		Mark(ierr.ErrGateway)

	_, err := s.service.InitiateRefund(s.GetContext(), s.testData.payment.OrderID, &dto.RefundRequest{})
	s.Error(err)

	// the record is closed so the merchant can try again later
	refund, getErr := s.GetStores().PaymentRepo.GetRefundByPaymentID(s.GetContext(), s.testData.payment.ID)
	s.NoError(getErr)
	s.Equal(types.RefundStateFailed, refund.State)
	s.NotNil(refund.CompletedAt)
}

func (s *RefundServiceSuite) TestInitiateRefund_RetryAfterFailure() {
	s.GetGateway().RefundErr = ierr.NewError("refund rejected").
		WithHint("The gateway declined the refund").
		Mark(ierr.ErrGateway)
	_, err := s.service.InitiateRefund(s.GetContext(), s.testData.payment.OrderID, &dto.RefundRequest{})
	s.Error(err)

	// the failed attempt does not block a fresh refund once the gateway
	// accepts again
	s.GetGateway().RefundErr = nil
	resp, err := s.service.InitiateRefund(s.GetContext(), s.testData.payment.OrderID, &dto.RefundRequest{})
	s.NoError(err)
	s.Equal(types.RefundStatePending, resp.State)

	// the payment now carries the live attempt, not the failed one
	refund, err := s.GetStores().PaymentRepo.GetRefundByPaymentID(s.GetContext(), s.testData.payment.ID)
	s.NoError(err)
	s.Equal(resp.ID, refund.ID)
	s.Equal(types.RefundStatePending, refund.State)

	// only one live refund at a time
	_, err = s.service.InitiateRefund(s.GetContext(), s.testData.payment.OrderID, &dto.RefundRequest{})
	s.Error(err)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *RefundServiceSuite) TestCheckRefundStatus_Completed() {
	resp, err := s.service.InitiateRefund(s.GetContext(), s.testData.payment.OrderID, &dto.RefundRequest{})
	s.NoError(err)

	s.GetGateway().SetRefundState(resp.ID, types.RefundStateCompleted)

	checked, err := s.service.CheckRefundStatus(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.RefundStateCompleted, checked.State)
	s.NotNil(checked.CompletedAt)

	// refund.initiated + refund.completed
	s.Len(s.GetPubSub().GetMessages(s.GetConfig().Webhook.Topic), 2)
}

func (s *RefundServiceSuite) TestCheckRefundStatus_TerminalShortCircuit() {
	resp, err := s.service.InitiateRefund(s.GetContext(), s.testData.payment.OrderID, &dto.RefundRequest{})
	s.NoError(err)

	s.GetGateway().SetRefundState(resp.ID, types.RefundStateCompleted)
	_, err = s.service.CheckRefundStatus(s.GetContext(), resp.ID)
	s.NoError(err)

	// a later gateway FAILED must not overwrite the terminal state
	s.GetGateway().SetRefundState(resp.ID, types.RefundStateFailed)
	checked, err := s.service.CheckRefundStatus(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.RefundStateCompleted, checked.State)
}

func (s *RefundServiceSuite) TestReverseRefund() {
	resp, err := s.service.InitiateRefund(s.GetContext(), s.testData.payment.OrderID, &dto.RefundRequest{})
	s.NoError(err)

	s.GetGateway().SetRefundState(resp.ID, types.RefundStateCompleted)
	_, err = s.service.CheckRefundStatus(s.GetContext(), resp.ID)
	s.NoError(err)

	reversed, err := s.service.ReverseRefund(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.RefundStateReversed, reversed.State)

	// reversing again is a no-op
	again, err := s.service.ReverseRefund(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(types.RefundStateReversed, again.State)
}

func (s *RefundServiceSuite) TestGetRefund_ScopedToMerchant() {
	resp, err := s.service.InitiateRefund(s.GetContext(), s.testData.payment.OrderID, &dto.RefundRequest{})
	s.NoError(err)

	got, err := s.service.GetRefund(s.GetContext(), resp.ID)
	s.NoError(err)
	s.Equal(resp.ID, got.ID)

	otherCtx := testutil.SetupContext("mer_other")
	_, err = s.service.GetRefund(otherCtx, resp.ID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}
