package testutil

import (
	"context"
	"time"

	"github.com/rai-abhi24/cgpey/internal/config"
	"github.com/rai-abhi24/cgpey/internal/domain/merchant"
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	"github.com/rai-abhi24/cgpey/internal/domain/webhookdelivery"
	"github.com/rai-abhi24/cgpey/internal/domain/webhookevent"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/types"
	webhookPublisher "github.com/rai-abhi24/cgpey/internal/webhook/publisher"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	PaymentRepo         payment.Repository
	MerchantRepo        merchant.Repository
	WebhookEventRepo    webhookevent.Repository
	WebhookDeliveryRepo webhookdelivery.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx              context.Context
	stores           Stores
	gateway          *MockGatewayClient
	pubsub           *InMemoryPubSub
	webhookPublisher webhookPublisher.WebhookPublisher
	logger           *logger.Logger
	config           *config.Configuration
	now              time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	cfg := config.GetDefaultConfig()
	cfg.Webhook.Enabled = true
	// keep poll loops fast in tests
	cfg.Gateway.PollInterval = 5 * time.Millisecond
	cfg.Gateway.PollAttempts = 4

	var err error
	s.config = cfg
	s.logger, err = logger.NewLogger(cfg)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.setupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupContext() {
	s.ctx = SetupContext(types.DefaultMerchantID)
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		PaymentRepo:         NewInMemoryPaymentStore(),
		MerchantRepo:        NewInMemoryMerchantStore(),
		WebhookEventRepo:    NewInMemoryWebhookEventStore(),
		WebhookDeliveryRepo: NewInMemoryWebhookDeliveryStore(),
	}

	s.gateway = NewMockGatewayClient()
	s.pubsub = NewInMemoryPubSub()

	publisher, err := webhookPublisher.NewPublisher(s.pubsub, s.config, s.logger)
	if err != nil {
		s.T().Fatalf("failed to create webhook publisher: %v", err)
	}
	s.webhookPublisher = publisher
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.PaymentRepo.(*InMemoryPaymentStore).Clear()
	s.stores.MerchantRepo.(*InMemoryMerchantStore).Clear()
	s.stores.WebhookEventRepo.(*InMemoryWebhookEventStore).Clear()
	s.stores.WebhookDeliveryRepo.(*InMemoryWebhookDeliveryStore).Clear()
	s.pubsub.ClearMessages()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetGateway returns the scriptable gateway client
func (s *BaseServiceTestSuite) GetGateway() *MockGatewayClient {
	return s.gateway
}

// GetPubSub returns the in-memory pubsub backing the webhook publisher
func (s *BaseServiceTestSuite) GetPubSub() *InMemoryPubSub {
	return s.pubsub
}

// GetWebhookPublisher returns the test webhook publisher
func (s *BaseServiceTestSuite) GetWebhookPublisher() webhookPublisher.WebhookPublisher {
	return s.webhookPublisher
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}
