package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/merchant"
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/gateway"
	"github.com/rai-abhi24/cgpey/internal/testutil"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ReconciliationServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  ReconciliationService
	testData struct {
		merchant *merchant.Merchant
		payment  *payment.Payment
	}
}

func TestReconciliationService(t *testing.T) {
	suite.Run(t, new(ReconciliationServiceSuite))
}

func (s *ReconciliationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *ReconciliationServiceSuite) serviceParams() ServiceParams {
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

func (s *ReconciliationServiceSuite) setupService() {
	s.service = NewReconciliationService(s.serviceParams())
}

func (s *ReconciliationServiceSuite) setupTestData() {
	s.testData.merchant = &merchant.Merchant{
		ID:        types.DefaultMerchantID,
		Name:      "Test Merchant",
		Status:    types.MerchantStatusApproved,
		BaseModel: types.GetDefaultBaseModel(),
	}
	s.NoError(s.GetStores().MerchantRepo.Create(s.GetContext(), s.testData.merchant))

	s.testData.payment = &payment.Payment{
		ID:                 "pay_test_recon",
		MerchantOrderID:    "ORDER-RECON",
		OrderID:            "ord_recon1",
		MerchantID:         s.testData.merchant.ID,
		Gateway:            types.PaymentGatewayTypePhonePe,
		GatewayTxnID:       lo.ToPtr("GW_ord_recon1"),
		Amount:             decimal.NewFromInt(1000),
		Currency:           "INR",
		State:              types.PaymentStatePending,
		CheckoutType:       types.CheckoutTypeStandard,
		PaymentMode:        types.PaymentModeUPIIntent,
		PaymentInitiatedAt: time.Now().UTC(),
		BaseModel:          types.GetDefaultBaseModel(),
	}
	s.NoError(s.GetStores().PaymentRepo.Create(s.GetContext(), s.testData.payment))

	// callbacks in these tests are plain CallbackEvent JSON; "valid" is
	// the only accepted signature
	s.GetGateway().ParseCallbackFn = func(raw []byte, signature string) (*gateway.CallbackEvent, error) {
		var ev gateway.CallbackEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			return nil, err
		}
		sum := sha256.Sum256(raw)
		ev.EventID = hex.EncodeToString(sum[:16])
		ev.Verified = signature == "valid"
		ev.Parsed = raw
		return &ev, nil
	}
}

func (s *ReconciliationServiceSuite) callbackBody(ev gateway.CallbackEvent) []byte {
	raw, err := json.Marshal(ev)
	s.NoError(err)
	return raw
}

func (s *ReconciliationServiceSuite) TestPollUntilTerminal_SuccessOnSecondAttempt() {
	orderID := s.testData.payment.OrderID
	s.GetGateway().QueueVerifyResponse(orderID, &gateway.VerifyResponse{
		RawState: "PAYMENT_PENDING",
		State:    types.PaymentStatePending,
	})
	s.GetGateway().QueueVerifyResponse(orderID, &gateway.VerifyResponse{
		RawState: "PAYMENT_SUCCESS",
		State:    types.PaymentStateSuccess,
		UTR:      "UTR123456",
	})

	resp, err := s.service.PollUntilTerminal(s.GetContext(), orderID)
	s.NoError(err)
	s.Equal(PollOutcomeTerminal, resp.Outcome)
	s.Equal(2, resp.Attempts)
	s.Equal(types.PaymentStateSuccess, resp.Payment.State)
	s.NotNil(resp.Payment.UTR)
	s.Equal("UTR123456", *resp.Payment.UTR)

	p, err := s.GetStores().PaymentRepo.Get(s.GetContext(), s.testData.payment.ID)
	s.NoError(err)
	s.Equal(types.PaymentStateSuccess, p.State)
	s.NotNil(p.CompletedAt)

	// the terminal transition produced exactly one outbound event
	msgs := s.GetPubSub().GetMessages(s.GetConfig().Webhook.Topic)
	s.Len(msgs, 1)
	var event types.WebhookEvent
	s.NoError(json.Unmarshal(msgs[0].Payload, &event))
	s.Equal(types.WebhookEventPaymentSuccess, event.EventName)
	s.Equal(s.testData.payment.ID, event.PaymentID)
}

func (s *ReconciliationServiceSuite) TestPollUntilTerminal_TimedOut() {
	// no scripted responses; the mock keeps answering PENDING
	resp, err := s.service.PollUntilTerminal(s.GetContext(), s.testData.payment.OrderID)
	s.NoError(err)
	s.Equal(PollOutcomeTimedOut, resp.Outcome)
	s.Equal(s.GetConfig().Gateway.PollAttempts, resp.Attempts)
	s.Equal(types.PaymentStatePending, resp.Payment.State)

	p, err := s.GetStores().PaymentRepo.Get(s.GetContext(), s.testData.payment.ID)
	s.NoError(err)
	s.Equal(types.PaymentStatePending, p.State)
	s.Empty(s.GetPubSub().GetMessages(s.GetConfig().Webhook.Topic))
}

func (s *ReconciliationServiceSuite) TestPollUntilTerminal_AlreadyTerminal() {
	applied, err := s.GetStores().PaymentRepo.TransitionState(s.GetContext(), s.testData.payment.ID, types.PaymentStateSuccess, nil)
	s.NoError(err)
	s.True(applied)

	resp, err := s.service.PollUntilTerminal(s.GetContext(), s.testData.payment.OrderID)
	s.NoError(err)
	s.Equal(PollOutcomeTerminal, resp.Outcome)
	s.Zero(resp.Attempts)
	s.Zero(s.GetGateway().VerifyCallCount(s.testData.payment.OrderID))
}

func (s *ReconciliationServiceSuite) TestPollUntilTerminal_GatewayErrors() {
	// gateway errors burn attempts like PENDING answers; exhaustion is a
	// soft timeout, never a hard failure
	s.GetGateway().QueueVerifyError(s.testData.payment.OrderID, ierr.NewError("upstream unavailable").
		WithHint("The payment gateway could not be reached").
		Mark(ierr.ErrGateway))

	resp, err := s.service.PollUntilTerminal(s.GetContext(), s.testData.payment.OrderID)
	s.NoError(err)
	s.Equal(PollOutcomeTimedOut, resp.Outcome)
	s.Equal(s.GetConfig().Gateway.PollAttempts, resp.Attempts)

	p, getErr := s.GetStores().PaymentRepo.Get(s.GetContext(), s.testData.payment.ID)
	s.NoError(getErr)
	s.Equal(types.PaymentStatePending, p.State)
}

func (s *ReconciliationServiceSuite) TestPollUntilTerminal_ErrorOnFinalAttempt() {
	orderID := s.testData.payment.OrderID
	for i := 0; i < s.GetConfig().Gateway.PollAttempts-1; i++ {
		s.GetGateway().QueueVerifyResponse(orderID, &gateway.VerifyResponse{
			RawState: "PAYMENT_PENDING",
			State:    types.PaymentStatePending,
		})
	}
	s.GetGateway().QueueVerifyError(orderID, ierr.NewError("connection reset").
		Mark(ierr.ErrGateway))

	resp, err := s.service.PollUntilTerminal(s.GetContext(), orderID)
	s.NoError(err)
	s.Equal(PollOutcomeTimedOut, resp.Outcome)
	s.Equal(s.GetConfig().Gateway.PollAttempts, resp.Attempts)
	s.Equal(types.PaymentStatePending, resp.Payment.State)
	s.Empty(s.GetPubSub().GetMessages(s.GetConfig().Webhook.Topic))
}

func (s *ReconciliationServiceSuite) TestPollUntilTerminal_Cancelled() {
	orig := s.GetConfig().Gateway.PollInterval
	s.GetConfig().Gateway.PollInterval = 20 * time.Millisecond
	defer func() { s.GetConfig().Gateway.PollInterval = orig }()

	ctx, cancel := context.WithTimeout(s.GetContext(), 30*time.Millisecond)
	defer cancel()

	resp, err := s.service.PollUntilTerminal(ctx, s.testData.payment.OrderID)
	s.NoError(err)
	s.Equal(PollOutcomeCancelled, resp.Outcome)
	s.Equal(types.PaymentStatePending, resp.Payment.State)
}

func (s *ReconciliationServiceSuite) TestPollUntilTerminal_ConcurrentGuard() {
	orig := s.GetConfig().Gateway.PollInterval
	s.GetConfig().Gateway.PollInterval = 50 * time.Millisecond
	defer func() { s.GetConfig().Gateway.PollInterval = orig }()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.service.PollUntilTerminal(s.GetContext(), s.testData.payment.OrderID)
	}()

	// give the first session time to register its in-flight guard; it
	// keeps polling for several intervals after that
	time.Sleep(20 * time.Millisecond)

	_, err := s.service.PollUntilTerminal(s.GetContext(), s.testData.payment.OrderID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))

	<-done
}

func (s *ReconciliationServiceSuite) TestApplyGatewayState_FirstTerminalWriteWins() {
	applied, err := s.GetStores().PaymentRepo.TransitionState(s.GetContext(), s.testData.payment.ID, types.PaymentStateFailed, nil)
	s.NoError(err)
	s.True(applied)

	p, err := s.GetStores().PaymentRepo.Get(s.GetContext(), s.testData.payment.ID)
	s.NoError(err)

	applied, err = s.service.ApplyGatewayState(s.GetContext(), p, types.PaymentStateSuccess, nil)
	s.NoError(err)
	s.False(applied)

	p, err = s.GetStores().PaymentRepo.Get(s.GetContext(), s.testData.payment.ID)
	s.NoError(err)
	s.Equal(types.PaymentStateFailed, p.State)
	s.Empty(s.GetPubSub().GetMessages(s.GetConfig().Webhook.Topic))
}

func (s *ReconciliationServiceSuite) TestApplyGatewayState_NonTerminalIgnored() {
	p, err := s.GetStores().PaymentRepo.Get(s.GetContext(), s.testData.payment.ID)
	s.NoError(err)

	applied, err := s.service.ApplyGatewayState(s.GetContext(), p, types.PaymentStateUnknown, nil)
	s.NoError(err)
	s.False(applied)
	s.Zero(s.GetGateway().VerifyCallCount(s.testData.payment.OrderID))
}

func (s *ReconciliationServiceSuite) TestProcessInboundWebhook_Success() {
	raw := s.callbackBody(gateway.CallbackEvent{
		Event:        "PAYMENT_SUCCESS",
		OrderID:      s.testData.payment.OrderID,
		GatewayTxnID: *s.testData.payment.GatewayTxnID,
		RawState:     "COMPLETED",
		State:        types.PaymentStateSuccess,
		UTR:          "UTR777",
	})

	ack, err := s.service.ProcessInboundWebhook(s.GetContext(), types.PaymentGatewayTypePhonePe, raw, "valid")
	s.NoError(err)
	s.True(ack.Success)
	s.False(ack.Duplicate)
	s.NotEmpty(ack.EventID)

	p, err := s.GetStores().PaymentRepo.Get(s.GetContext(), s.testData.payment.ID)
	s.NoError(err)
	s.Equal(types.PaymentStateSuccess, p.State)
	s.NotNil(p.UTR)
	s.Equal("UTR777", *p.UTR)

	event, err := s.GetStores().WebhookEventRepo.Get(s.GetContext(), ack.EventID)
	s.NoError(err)
	s.Equal(types.InboundWebhookStatusProcessed, event.Status)
	s.True(event.SignatureVerified)
	s.NotNil(event.PaymentID)
	s.Equal(s.testData.payment.ID, *event.PaymentID)
}

func (s *ReconciliationServiceSuite) TestProcessInboundWebhook_Duplicate() {
	raw := s.callbackBody(gateway.CallbackEvent{
		Event:        "PAYMENT_SUCCESS",
		OrderID:      s.testData.payment.OrderID,
		GatewayTxnID: *s.testData.payment.GatewayTxnID,
		RawState:     "COMPLETED",
		State:        types.PaymentStateSuccess,
	})

	first, err := s.service.ProcessInboundWebhook(s.GetContext(), types.PaymentGatewayTypePhonePe, raw, "valid")
	s.NoError(err)
	s.False(first.Duplicate)

	second, err := s.service.ProcessInboundWebhook(s.GetContext(), types.PaymentGatewayTypePhonePe, raw, "valid")
	s.NoError(err)
	s.True(second.Duplicate)
	s.Equal(first.EventID, second.EventID)

	events, err := s.service.ListInboundWebhooks(s.GetContext(), nil)
	s.NoError(err)
	s.Len(events, 1)
}

func (s *ReconciliationServiceSuite) TestListInboundWebhooks_ScopedToMerchant() {
	raw := s.callbackBody(gateway.CallbackEvent{
		Event:        "PAYMENT_SUCCESS",
		OrderID:      s.testData.payment.OrderID,
		GatewayTxnID: *s.testData.payment.GatewayTxnID,
		RawState:     "COMPLETED",
		State:        types.PaymentStateSuccess,
	})
	_, err := s.service.ProcessInboundWebhook(s.GetContext(), types.PaymentGatewayTypePhonePe, raw, "valid")
	s.NoError(err)

	events, err := s.service.ListInboundWebhooks(s.GetContext(), nil)
	s.NoError(err)
	s.Len(events, 1)

	// another merchant's key sees nothing
	otherCtx := testutil.SetupContext("mer_other")
	events, err = s.service.ListInboundWebhooks(otherCtx, nil)
	s.NoError(err)
	s.Empty(events)
}

func (s *ReconciliationServiceSuite) TestProcessInboundWebhook_BadSignature() {
	raw := s.callbackBody(gateway.CallbackEvent{
		Event:    "PAYMENT_SUCCESS",
		OrderID:  s.testData.payment.OrderID,
		RawState: "COMPLETED",
		State:    types.PaymentStateSuccess,
	})

	ack, err := s.service.ProcessInboundWebhook(s.GetContext(), types.PaymentGatewayTypePhonePe, raw, "tampered")
	s.Error(err)
	s.Nil(ack)
	s.True(ierr.IsUnauthorized(err))

	// the callback is still stored for audit, marked FAILED. It was never
	// attributed to a merchant, so only the raw store sees it
	events, listErr := s.GetStores().WebhookEventRepo.List(s.GetContext(), nil)
	s.NoError(listErr)
	s.Len(events, 1)
	s.Equal(types.InboundWebhookStatusFailed, events[0].Status)

	// the payment is untouched
	p, getErr := s.GetStores().PaymentRepo.Get(s.GetContext(), s.testData.payment.ID)
	s.NoError(getErr)
	s.Equal(types.PaymentStatePending, p.State)
}

func (s *ReconciliationServiceSuite) TestProcessInboundWebhook_UnknownPayment() {
	raw := s.callbackBody(gateway.CallbackEvent{
		Event:        "PAYMENT_SUCCESS",
		OrderID:      "ord_unknown",
		GatewayTxnID: "GW_unknown",
		RawState:     "COMPLETED",
		State:        types.PaymentStateSuccess,
	})

	ack, err := s.service.ProcessInboundWebhook(s.GetContext(), types.PaymentGatewayTypePhonePe, raw, "valid")
	s.NoError(err)
	s.True(ack.Success)

	event, err := s.GetStores().WebhookEventRepo.Get(s.GetContext(), ack.EventID)
	s.NoError(err)
	s.Equal(types.InboundWebhookStatusIgnored, event.Status)
}

func (s *ReconciliationServiceSuite) TestProcessInboundWebhook_RefundCallback() {
	refund := &payment.Refund{
		ID:          "ref_test_cb",
		PaymentID:   s.testData.payment.ID,
		Amount:      decimal.NewFromInt(1000),
		State:       types.RefundStatePending,
		InitiatedAt: time.Now().UTC(),
		BaseModel:   types.GetDefaultBaseModel(),
	}
	s.NoError(s.GetStores().PaymentRepo.CreateRefund(s.GetContext(), refund))

	raw := s.callbackBody(gateway.CallbackEvent{
		Event:    "REFUND_SUCCESS",
		OrderID:  refund.ID,
		RawState: "COMPLETED",
	})

	ack, err := s.service.ProcessInboundWebhook(s.GetContext(), types.PaymentGatewayTypePhonePe, raw, "valid")
	s.NoError(err)
	s.True(ack.Success)

	got, err := s.GetStores().PaymentRepo.GetRefund(s.GetContext(), refund.ID)
	s.NoError(err)
	s.Equal(types.RefundStateCompleted, got.State)
	s.NotNil(got.CompletedAt)

	event, err := s.GetStores().WebhookEventRepo.Get(s.GetContext(), ack.EventID)
	s.NoError(err)
	s.Equal(types.InboundWebhookStatusProcessed, event.Status)
	s.NotNil(event.RefundID)
	s.Equal(refund.ID, *event.RefundID)
}

func (s *ReconciliationServiceSuite) TestReplayInboundWebhook() {
	// first delivery races ahead of checkout and gets ignored
	raw := s.callbackBody(gateway.CallbackEvent{
		Event:        "PAYMENT_SUCCESS",
		OrderID:      "ord_late",
		GatewayTxnID: "GW_ord_late",
		RawState:     "COMPLETED",
		State:        types.PaymentStateSuccess,
	})

	ack, err := s.service.ProcessInboundWebhook(s.GetContext(), types.PaymentGatewayTypePhonePe, raw, "valid")
	s.NoError(err)

	event, err := s.GetStores().WebhookEventRepo.Get(s.GetContext(), ack.EventID)
	s.NoError(err)
	s.Equal(types.InboundWebhookStatusIgnored, event.Status)

	// checkout catches up
	late := &payment.Payment{
		ID:                 "pay_late",
		MerchantOrderID:    "ORDER-LATE",
		OrderID:            "ord_late",
		MerchantID:         s.testData.merchant.ID,
		Gateway:            types.PaymentGatewayTypePhonePe,
		GatewayTxnID:       lo.ToPtr("GW_ord_late"),
		Amount:             decimal.NewFromInt(200),
		Currency:           "INR",
		State:              types.PaymentStatePending,
		CheckoutType:       types.CheckoutTypeStandard,
		PaymentMode:        types.PaymentModeUPIIntent,
		PaymentInitiatedAt: time.Now().UTC(),
		BaseModel:          types.GetDefaultBaseModel(),
	}
	s.NoError(s.GetStores().PaymentRepo.Create(s.GetContext(), late))

	replayed, err := s.service.ReplayInboundWebhook(s.GetContext(), ack.EventID)
	s.NoError(err)
	s.Equal(types.InboundWebhookStatusProcessed, replayed.Status)

	p, err := s.GetStores().PaymentRepo.Get(s.GetContext(), late.ID)
	s.NoError(err)
	s.Equal(types.PaymentStateSuccess, p.State)
}

func (s *ReconciliationServiceSuite) TestReplayInboundWebhook_ProcessedRejected() {
	raw := s.callbackBody(gateway.CallbackEvent{
		Event:        "PAYMENT_SUCCESS",
		OrderID:      s.testData.payment.OrderID,
		GatewayTxnID: *s.testData.payment.GatewayTxnID,
		RawState:     "COMPLETED",
		State:        types.PaymentStateSuccess,
	})

	ack, err := s.service.ProcessInboundWebhook(s.GetContext(), types.PaymentGatewayTypePhonePe, raw, "valid")
	s.NoError(err)

	_, err = s.service.ReplayInboundWebhook(s.GetContext(), ack.EventID)
	s.Error(err)
	s.True(ierr.IsInvalidOperation(err))
}
