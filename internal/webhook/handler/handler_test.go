package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rai-abhi24/cgpey/internal/config"
	"github.com/rai-abhi24/cgpey/internal/domain/merchant"
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	"github.com/rai-abhi24/cgpey/internal/domain/webhookdelivery"
	"github.com/rai-abhi24/cgpey/internal/email"
	"github.com/rai-abhi24/cgpey/internal/httpclient"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/security"
	"github.com/rai-abhi24/cgpey/internal/testutil"
	"github.com/rai-abhi24/cgpey/internal/types"
	webhookDto "github.com/rai-abhi24/cgpey/internal/webhook/dto"
	"github.com/rai-abhi24/cgpey/internal/webhook/payload"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type HandlerSuite struct {
	suite.Suite
	handler      *handler
	payments     *testutil.InMemoryPaymentStore
	merchants    *testutil.InMemoryMerchantStore
	deliveries   *testutil.InMemoryWebhookDeliveryStore
	signer       security.Signer
	config       *config.Configuration
	server       *httptest.Server
	serverStatus atomic.Int64
	serverHits   atomic.Int64
	lastHeaders  http.Header
	lastBody     []byte

	testData struct {
		merchant *merchant.Merchant
		payment  *payment.Payment
	}
}

func TestHandler(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.config = config.GetDefaultConfig()
	s.config.Webhook.Enabled = true
	s.config.Webhook.MaxRetries = 3

	log, err := logger.NewLogger(s.config)
	s.Require().NoError(err)

	s.payments = testutil.NewInMemoryPaymentStore()
	s.merchants = testutil.NewInMemoryMerchantStore()
	s.deliveries = testutil.NewInMemoryWebhookDeliveryStore()
	s.signer = security.NewSigner()

	s.serverStatus.Store(http.StatusOK)
	s.serverHits.Store(0)
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.serverHits.Add(1)
		s.lastHeaders = r.Header.Clone()
		body, _ := io.ReadAll(r.Body)
		s.lastBody = body
		w.WriteHeader(int(s.serverStatus.Load()))
	}))

	factory := payload.NewPayloadBuilderFactory(payload.NewServices(s.payments))
	emailService := email.NewService(email.NewEmailClient(s.config), log)

	h, err := NewHandler(
		testutil.NewInMemoryPubSub(),
		s.config,
		factory,
		httpclient.NewDefaultClient(),
		s.merchants,
		s.deliveries,
		s.signer,
		emailService,
		log,
	)
	s.Require().NoError(err)
	s.handler = h.(*handler)

	s.setupTestData()
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
}

func (s *HandlerSuite) setupTestData() {
	ctx := testutil.SetupContext(types.DefaultMerchantID)

	s.testData.merchant = &merchant.Merchant{
		ID:             types.DefaultMerchantID,
		Name:           "Test Merchant",
		Status:         types.MerchantStatusApproved,
		WebhookURL:     s.server.URL,
		WebhookSecret:  "whsec_test",
		WebhookEnabled: true,
		BaseModel:      types.GetDefaultBaseModel(),
	}
	s.Require().NoError(s.merchants.Create(ctx, s.testData.merchant))

	s.testData.payment = &payment.Payment{
		ID:                 "pay_test_delivery",
		MerchantOrderID:    "ORDER-DELIVERY",
		OrderID:            "ord_delivery1",
		MerchantID:         s.testData.merchant.ID,
		Gateway:            types.PaymentGatewayTypePhonePe,
		Amount:             decimal.NewFromInt(900),
		Currency:           "INR",
		State:              types.PaymentStateSuccess,
		CheckoutType:       types.CheckoutTypeStandard,
		PaymentMode:        types.PaymentModeUPIIntent,
		UTR:                lo.ToPtr("UTR555"),
		PaymentInitiatedAt: time.Now().UTC(),
		CompletedAt:        lo.ToPtr(time.Now().UTC()),
		BaseModel:          types.GetDefaultBaseModel(),
	}
	s.Require().NoError(s.payments.Create(ctx, s.testData.payment))
}

func (s *HandlerSuite) eventMessage(eventName string) *message.Message {
	data, err := json.Marshal(webhookDto.InternalPaymentEvent{
		PaymentID:  s.testData.payment.ID,
		MerchantID: s.testData.merchant.ID,
	})
	s.Require().NoError(err)

	event := &types.WebhookEvent{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName:  eventName,
		MerchantID: s.testData.merchant.ID,
		PaymentID:  s.testData.payment.ID,
		Timestamp:  time.Now().UTC(),
		Payload:    data,
	}
	raw, err := json.Marshal(event)
	s.Require().NoError(err)

	return message.NewMessage(event.ID, raw)
}

func (s *HandlerSuite) findDelivery() *webhookdelivery.WebhookDelivery {
	ctx := testutil.SetupContext(types.DefaultMerchantID)
	deliveries, err := s.deliveries.List(ctx, nil)
	s.Require().NoError(err)
	s.Require().Len(deliveries, 1)
	return deliveries[0]
}

func (s *HandlerSuite) TestProcessMessage_DeliversAndSigns() {
	err := s.handler.processMessage(s.eventMessage(types.WebhookEventPaymentSuccess))
	s.NoError(err)
	s.Equal(int64(1), s.serverHits.Load())

	delivery := s.findDelivery()
	s.Equal(types.DeliveryStatusDelivered, delivery.Status)
	s.Equal(1, delivery.Attempts)
	s.Equal(types.WebhookEventPaymentSuccess, delivery.EventType)

	// the signature header matches the body under the merchant secret
	s.Equal(delivery.Signature, s.lastHeaders.Get(types.HeaderSignature))
	s.Equal(types.WebhookEventPaymentSuccess, s.lastHeaders.Get(types.HeaderEvent))
	s.True(s.signer.Verify(s.lastBody, "whsec_test", s.lastHeaders.Get(types.HeaderSignature)))

	// merchants receive a snapshot, not the raw bus envelope
	var body webhookDto.PaymentWebhookPayload
	s.NoError(json.Unmarshal(s.lastBody, &body))
	s.Equal(s.testData.payment.ID, body.Payment.PaymentID)
	s.Equal(types.PaymentStateSuccess, body.Payment.State)
}

func (s *HandlerSuite) TestProcessMessage_RetriesThenExhausts() {
	s.serverStatus.Store(http.StatusInternalServerError)
	msg := s.eventMessage(types.WebhookEventPaymentSuccess)

	// first two attempts fail and stay in the retry cycle
	s.Error(s.handler.processMessage(msg))
	s.Equal(types.DeliveryStatusRetrying, s.findDelivery().Status)
	s.Error(s.handler.processMessage(msg))

	// third failure exhausts the budget; the message is acked so the
	// router stops retrying
	s.NoError(s.handler.processMessage(msg))

	delivery := s.findDelivery()
	s.Equal(types.DeliveryStatusFailed, delivery.Status)
	s.Equal(3, delivery.Attempts)
	s.NotNil(delivery.LastError)
	s.Nil(delivery.NextRetryAt)
	s.Equal(int64(3), s.serverHits.Load())

	// a further message for the same event is dropped without a new attempt
	s.NoError(s.handler.processMessage(msg))
	s.Equal(int64(3), s.serverHits.Load())
}

func (s *HandlerSuite) TestProcessMessage_AlreadyDeliveredSkipped() {
	msg := s.eventMessage(types.WebhookEventPaymentSuccess)
	s.NoError(s.handler.processMessage(msg))
	s.NoError(s.handler.processMessage(msg))
	s.Equal(int64(1), s.serverHits.Load())

	delivery := s.findDelivery()
	s.Equal(1, delivery.Attempts)
}

func (s *HandlerSuite) TestProcessMessage_WebhooksDisabled() {
	ctx := testutil.SetupContext(types.DefaultMerchantID)
	s.testData.merchant.WebhookEnabled = false
	s.Require().NoError(s.merchants.Update(ctx, s.testData.merchant))

	s.NoError(s.handler.processMessage(s.eventMessage(types.WebhookEventPaymentSuccess)))
	s.Zero(s.serverHits.Load())

	deliveries, err := s.deliveries.List(ctx, nil)
	s.NoError(err)
	s.Empty(deliveries)
}

func (s *HandlerSuite) TestProcessMessage_MalformedPayloadAcked() {
	s.NoError(s.handler.processMessage(message.NewMessage("bad", []byte("not json"))))
	s.Zero(s.serverHits.Load())
}

func (s *HandlerSuite) TestAttempt_ManualReplayAfterExhaustion() {
	ctx := testutil.SetupContext(types.DefaultMerchantID)
	s.serverStatus.Store(http.StatusInternalServerError)
	msg := s.eventMessage(types.WebhookEventPaymentSuccess)
	for i := 0; i < 3; i++ {
		_ = s.handler.processMessage(msg)
	}
	s.Equal(types.DeliveryStatusFailed, s.findDelivery().Status)

	// the endpoint recovers and an operator replays the record
	s.serverStatus.Store(http.StatusOK)
	delivery := s.findDelivery()
	delivery.ResetForReplay()
	s.Require().NoError(s.deliveries.Update(ctx, delivery))

	s.NoError(s.handler.Attempt(ctx, delivery))

	// the replay counts as attempt four; history is never rewound
	replayed := s.findDelivery()
	s.Equal(types.DeliveryStatusDelivered, replayed.Status)
	s.Equal(4, replayed.Attempts)
}

func (s *HandlerSuite) TestAttempt_ReplayFailureFailsAgain() {
	ctx := testutil.SetupContext(types.DefaultMerchantID)
	s.serverStatus.Store(http.StatusInternalServerError)
	msg := s.eventMessage(types.WebhookEventPaymentSuccess)
	for i := 0; i < 3; i++ {
		_ = s.handler.processMessage(msg)
	}

	// the endpoint is still down; a replay buys exactly one more attempt
	delivery := s.findDelivery()
	delivery.ResetForReplay()
	s.Require().NoError(s.deliveries.Update(ctx, delivery))

	s.Error(s.handler.Attempt(ctx, delivery))

	failed := s.findDelivery()
	s.Equal(types.DeliveryStatusFailed, failed.Status)
	s.Equal(4, failed.Attempts)
	s.Nil(failed.NextRetryAt)
}
