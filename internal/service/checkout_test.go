package service

import (
	"testing"

	"github.com/rai-abhi24/cgpey/internal/api/dto"
	"github.com/rai-abhi24/cgpey/internal/domain/merchant"
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/testutil"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type CheckoutServiceSuite struct {
	testutil.BaseServiceTestSuite
	service  CheckoutService
	testData struct {
		merchant *merchant.Merchant
	}
}

func TestCheckoutService(t *testing.T) {
	suite.Run(t, new(CheckoutServiceSuite))
}

func (s *CheckoutServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.setupService()
	s.setupTestData()
}

func (s *CheckoutServiceSuite) serviceParams() ServiceParams {
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

func (s *CheckoutServiceSuite) setupService() {
	s.service = NewCheckoutService(s.serviceParams())
}

func (s *CheckoutServiceSuite) setupTestData() {
	s.testData.merchant = &merchant.Merchant{
		ID:                  types.DefaultMerchantID,
		Name:                "Test Merchant",
		Status:              types.MerchantStatusApproved,
		PerTransactionLimit: decimal.NewFromInt(100000),
		UATKeys:             merchant.KeyPair{APIKey: "uat_key", SecretKey: "uat_secret"},
		ProdKeys:            merchant.KeyPair{APIKey: "prod_key", SecretKey: "prod_secret"},
		BaseModel:           types.GetDefaultBaseModel(),
	}
	s.NoError(s.GetStores().MerchantRepo.Create(s.GetContext(), s.testData.merchant))
}

func (s *CheckoutServiceSuite) TestInitiateCheckout_UPIIntent() {
	req := &dto.CheckoutRequest{
		MerchantOrderID: "ORDER-001",
		Amount:          decimal.NewFromInt(500),
		PaymentMode:     types.PaymentModeUPIIntent,
	}

	resp, err := s.service.InitiateCheckout(s.GetContext(), req)
	s.NoError(err)
	s.NotNil(resp)
	s.True(resp.Success)
	s.NotEmpty(resp.Data.OrderID)
	s.NotEmpty(resp.Data.IntentURL)
	s.Empty(resp.Data.CheckoutURL)

	p, err := s.GetStores().PaymentRepo.GetByOrderID(s.GetContext(), resp.Data.OrderID, types.PaymentGatewayTypePhonePe)
	s.NoError(err)
	s.Equal(types.PaymentStatePending, p.State)
	s.NotNil(p.GatewayTxnID)
	s.Equal("INR", p.Currency)
}

func (s *CheckoutServiceSuite) TestInitiateCheckout_LimitExceeded() {
	req := &dto.CheckoutRequest{
		MerchantOrderID: "ORDER-002",
		Amount:          decimal.NewFromInt(500000),
		PaymentMode:     types.PaymentModeUPIIntent,
	}

	resp, err := s.service.InitiateCheckout(s.GetContext(), req)
	s.Error(err)
	s.Nil(resp)
	s.True(ierr.IsLimitExceeded(err))

	// nothing was persisted
	payments, listErr := s.GetStores().PaymentRepo.List(s.GetContext(), &payment.Filter{})
	s.NoError(listErr)
	s.Empty(payments)
}

func (s *CheckoutServiceSuite) TestInitiateCheckout_MerchantNotApproved() {
	s.testData.merchant.Status = types.MerchantStatusPending
	s.NoError(s.GetStores().MerchantRepo.Update(s.GetContext(), s.testData.merchant))

	req := &dto.CheckoutRequest{
		MerchantOrderID: "ORDER-003",
		Amount:          decimal.NewFromInt(500),
		PaymentMode:     types.PaymentModeUPIIntent,
	}

	_, err := s.service.InitiateCheckout(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsPermissionDenied(err))
}

func (s *CheckoutServiceSuite) TestInitiateCheckout_CollectRequiresVPA() {
	req := &dto.CheckoutRequest{
		MerchantOrderID: "ORDER-004",
		Amount:          decimal.NewFromInt(500),
		PaymentMode:     types.PaymentModeUPICollect,
	}

	_, err := s.service.InitiateCheckout(s.GetContext(), req)
	s.Error(err)
	s.True(ierr.IsValidation(err))
}

func (s *CheckoutServiceSuite) TestInitiateCheckout_SessionReuse() {
	req := &dto.CheckoutRequest{
		MerchantOrderID: "ORDER-005",
		Amount:          decimal.NewFromInt(500),
		PaymentMode:     types.PaymentModeUPIQR,
	}

	first, err := s.service.InitiateCheckout(s.GetContext(), req)
	s.NoError(err)

	// a retry inside the session window returns the original handoff
	// without creating a second payment
	second, err := s.service.InitiateCheckout(s.GetContext(), req)
	s.NoError(err)
	s.Equal(first.Data.OrderID, second.Data.OrderID)
	s.Equal(first.Data.TransactionID, second.Data.TransactionID)

	payments, err := s.GetStores().PaymentRepo.List(s.GetContext(), &payment.Filter{})
	s.NoError(err)
	s.Len(payments, 1)
}

func (s *CheckoutServiceSuite) TestInitiateCheckout_COD() {
	req := &dto.CheckoutRequest{
		MerchantOrderID: "ORDER-006",
		Amount:          decimal.NewFromInt(750),
		PaymentMode:     types.PaymentModeCOD,
	}

	resp, err := s.service.InitiateCheckout(s.GetContext(), req)
	s.NoError(err)
	s.True(resp.Success)
	s.Empty(resp.Data.CheckoutURL)
	s.Empty(resp.Data.IntentURL)

	p, err := s.GetStores().PaymentRepo.GetByOrderID(s.GetContext(), resp.Data.OrderID, types.PaymentGatewayTypePhonePe)
	s.NoError(err)
	s.Equal(types.PaymentStatePending, p.State)
	s.Nil(p.GatewayTxnID)
}

func (s *CheckoutServiceSuite) TestInitiateCheckout_GatewayRejection() {
	s.GetGateway().InitiateErr = ierr.NewError("gateway unavailable").
		WithHint("The payment gateway could not be reached").
		Mark(ierr.ErrGateway)

	req := &dto.CheckoutRequest{
		MerchantOrderID: "ORDER-007",
		Amount:          decimal.NewFromInt(500),
		PaymentMode:     types.PaymentModeUPIIntent,
	}

	_, err := s.service.InitiateCheckout(s.GetContext(), req)
	s.Error(err)

	// the record is closed, not left dangling in CREATED
	payments, listErr := s.GetStores().PaymentRepo.List(s.GetContext(), &payment.Filter{})
	s.NoError(listErr)
	s.Len(payments, 1)
	s.Equal(types.PaymentStateFailed, payments[0].State)
}

func (s *CheckoutServiceSuite) TestGetPayment_ScopedToMerchant() {
	req := &dto.CheckoutRequest{
		MerchantOrderID: "ORDER-008",
		Amount:          decimal.NewFromInt(500),
		PaymentMode:     types.PaymentModeUPIIntent,
	}
	resp, err := s.service.InitiateCheckout(s.GetContext(), req)
	s.NoError(err)

	got, err := s.service.GetPayment(s.GetContext(), resp.Data.OrderID)
	s.NoError(err)
	s.Equal(resp.Data.OrderID, got.OrderID)

	// merchant order id resolves too
	got, err = s.service.GetPayment(s.GetContext(), "ORDER-008")
	s.NoError(err)
	s.Equal(resp.Data.OrderID, got.OrderID)

	// another merchant cannot see it
	otherCtx := testutil.SetupContext("mer_other")
	_, err = s.service.GetPayment(otherCtx, resp.Data.OrderID)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *CheckoutServiceSuite) TestListPayments_StateFilter() {
	for _, orderID := range []string{"ORDER-A", "ORDER-B"} {
		_, err := s.service.InitiateCheckout(s.GetContext(), &dto.CheckoutRequest{
			MerchantOrderID: orderID,
			Amount:          decimal.NewFromInt(100),
			PaymentMode:     types.PaymentModeUPIIntent,
		})
		s.NoError(err)
	}

	resp, err := s.service.ListPayments(s.GetContext(), &payment.Filter{
		States: []types.PaymentState{types.PaymentStatePending},
	})
	s.NoError(err)
	s.Len(resp.Items, 2)

	resp, err = s.service.ListPayments(s.GetContext(), &payment.Filter{
		States: []types.PaymentState{types.PaymentStateSuccess},
	})
	s.NoError(err)
	s.Empty(resp.Items)
}
