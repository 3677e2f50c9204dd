package repository

import (
	"github.com/rai-abhi24/cgpey/internal/domain/merchant"
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
	"github.com/rai-abhi24/cgpey/internal/domain/webhookdelivery"
	"github.com/rai-abhi24/cgpey/internal/domain/webhookevent"
	"github.com/rai-abhi24/cgpey/internal/logger"
	"github.com/rai-abhi24/cgpey/internal/postgres"
	postgresRepo "github.com/rai-abhi24/cgpey/internal/repository/postgres"
)

func NewPaymentRepository(db *postgres.DB, logger *logger.Logger) payment.Repository {
	return postgresRepo.NewPaymentRepository(db, logger)
}

func NewMerchantRepository(db *postgres.DB, logger *logger.Logger) merchant.Repository {
	return postgresRepo.NewMerchantRepository(db, logger)
}

func NewWebhookEventRepository(db *postgres.DB, logger *logger.Logger) webhookevent.Repository {
	return postgresRepo.NewWebhookEventRepository(db, logger)
}

func NewWebhookDeliveryRepository(db *postgres.DB, logger *logger.Logger) webhookdelivery.Repository {
	return postgresRepo.NewWebhookDeliveryRepository(db, logger)
}
