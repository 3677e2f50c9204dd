package types

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// PaymentState is the canonical, gateway-agnostic state of a payment
type PaymentState string

const (
	PaymentStateCreated   PaymentState = "CREATED"
	PaymentStatePending   PaymentState = "PENDING"
	PaymentStateSuccess   PaymentState = "SUCCESS"
	PaymentStateFailed    PaymentState = "FAILED"
	PaymentStateExpired   PaymentState = "EXPIRED"
	PaymentStateCancelled PaymentState = "CANCELLED"
	PaymentStateUnknown   PaymentState = "UNKNOWN"
)

func (s PaymentState) String() string {
	return string(s)
}

// IsTerminal returns true once no further automatic transition is permitted.
// Terminal states are sinks.
func (s PaymentState) IsTerminal() bool {
	switch s {
	case PaymentStateSuccess, PaymentStateFailed, PaymentStateExpired, PaymentStateCancelled:
		return true
	}
	return false
}

func (s PaymentState) Validate() error {
	allowed := []PaymentState{
		PaymentStateCreated,
		PaymentStatePending,
		PaymentStateSuccess,
		PaymentStateFailed,
		PaymentStateExpired,
		PaymentStateCancelled,
		PaymentStateUnknown,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid payment state: %s", s)
	}
	return nil
}

// gatewayStateMap normalizes the heterogeneous state vocabularies used by
// upstream gateways into the closed internal enum. Unknown strings map to
// UNKNOWN, which is non-terminal, so upstream vocabulary drift is treated
// as "still pending" rather than an error.
var gatewayStateMap = map[string]PaymentState{
	"SUCCESS":            PaymentStateSuccess,
	"COMPLETED":          PaymentStateSuccess,
	"PAYMENT_SUCCESS":    PaymentStateSuccess,
	"PAID":               PaymentStateSuccess,
	"FAILED":             PaymentStateFailed,
	"FAILURE":            PaymentStateFailed,
	"PAYMENT_ERROR":      PaymentStateFailed,
	"DECLINED":           PaymentStateFailed,
	"EXPIRED":            PaymentStateExpired,
	"TIMED_OUT":          PaymentStateExpired,
	"PAYMENT_EXPIRED":    PaymentStateExpired,
	"CANCELLED":          PaymentStateCancelled,
	"CANCELED":           PaymentStateCancelled,
	"PAYMENT_CANCELLED":  PaymentStateCancelled,
	"PENDING":            PaymentStatePending,
	"PAYMENT_PENDING":    PaymentStatePending,
	"PAYMENT_INITIATED":  PaymentStatePending,
	"INITIATED":          PaymentStatePending,
	"CREATED":            PaymentStatePending,
	"AUTHORIZATION_WAIT": PaymentStatePending,
}

// ParseGatewayState maps an upstream state string to the canonical enum
func ParseGatewayState(raw string) PaymentState {
	if state, ok := gatewayStateMap[strings.ToUpper(strings.TrimSpace(raw))]; ok {
		return state
	}
	return PaymentStateUnknown
}

// PaymentMode is the instrument used for a checkout attempt
type PaymentMode string

const (
	PaymentModeUPIIntent  PaymentMode = "UPI_INTENT"
	PaymentModeUPICollect PaymentMode = "UPI_COLLECT"
	PaymentModeUPIQR      PaymentMode = "UPI_QR"
	PaymentModeCard       PaymentMode = "CARD"
	PaymentModeNetBanking PaymentMode = "NET_BANKING"
	PaymentModeCOD        PaymentMode = "COD"
)

func (m PaymentMode) String() string {
	return string(m)
}

func (m PaymentMode) Validate() error {
	allowed := []PaymentMode{
		PaymentModeUPIIntent,
		PaymentModeUPICollect,
		PaymentModeUPIQR,
		PaymentModeCard,
		PaymentModeNetBanking,
		PaymentModeCOD,
	}
	if !lo.Contains(allowed, m) {
		return fmt.Errorf("invalid payment mode: %s", m)
	}
	return nil
}

// CheckoutType distinguishes the hosted checkout page from a custom
// merchant-embedded flow
type CheckoutType string

const (
	CheckoutTypeStandard CheckoutType = "STANDARD"
	CheckoutTypeCustom   CheckoutType = "CUSTOM"
)

func (t CheckoutType) Validate() error {
	allowed := []CheckoutType{CheckoutTypeStandard, CheckoutTypeCustom}
	if !lo.Contains(allowed, t) {
		return fmt.Errorf("invalid checkout type: %s", t)
	}
	return nil
}

// PaymentGatewayType identifies the upstream provider
type PaymentGatewayType string

const (
	PaymentGatewayTypePhonePe PaymentGatewayType = "phonepe"
)

func (p PaymentGatewayType) String() string {
	return string(p)
}

func (p PaymentGatewayType) Validate() error {
	switch p {
	case PaymentGatewayTypePhonePe:
		return nil
	default:
		return fmt.Errorf("invalid payment gateway type: %s", p)
	}
}
