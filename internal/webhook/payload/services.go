package payload

import (
	"github.com/rai-abhi24/cgpey/internal/domain/payment"
)

// Services holds the repositories payload builders read from
type Services struct {
	PaymentRepo payment.Repository
}

// NewServices creates the services container for payload builders
func NewServices(paymentRepo payment.Repository) *Services {
	return &Services{PaymentRepo: paymentRepo}
}
