package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGatewayState(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want PaymentState
	}{
		{name: "phonepe success code", raw: "PAYMENT_SUCCESS", want: PaymentStateSuccess},
		{name: "generic completed", raw: "COMPLETED", want: PaymentStateSuccess},
		{name: "lowercase with padding", raw: "  paid ", want: PaymentStateSuccess},
		{name: "declined maps to failed", raw: "DECLINED", want: PaymentStateFailed},
		{name: "timed out maps to expired", raw: "TIMED_OUT", want: PaymentStateExpired},
		{name: "american spelling of cancelled", raw: "CANCELED", want: PaymentStateCancelled},
		{name: "initiated stays pending", raw: "PAYMENT_INITIATED", want: PaymentStatePending},
		{name: "authorization wait stays pending", raw: "AUTHORIZATION_WAIT", want: PaymentStatePending},
		{name: "unknown vocabulary", raw: "SOMETHING_NEW", want: PaymentStateUnknown},
		{name: "empty string", raw: "", want: PaymentStateUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseGatewayState(tt.raw))
		})
	}
}

func TestPaymentStateIsTerminal(t *testing.T) {
	terminal := []PaymentState{
		PaymentStateSuccess,
		PaymentStateFailed,
		PaymentStateExpired,
		PaymentStateCancelled,
	}
	for _, s := range terminal {
		assert.True(t, s.IsTerminal(), "%s should be terminal", s)
	}

	nonTerminal := []PaymentState{
		PaymentStateCreated,
		PaymentStatePending,
		PaymentStateUnknown,
	}
	for _, s := range nonTerminal {
		assert.False(t, s.IsTerminal(), "%s should not be terminal", s)
	}
}
