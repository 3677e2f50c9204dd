package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseGatewayRefundState(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want RefundState
	}{
		{name: "canonical completed", raw: "COMPLETED", want: RefundStateCompleted},
		{name: "success alias normalizes to completed", raw: "SUCCESS", want: RefundStateCompleted},
		{name: "phonepe refund success", raw: "REFUND_SUCCESS", want: RefundStateCompleted},
		{name: "refund error maps to failed", raw: "REFUND_ERROR", want: RefundStateFailed},
		{name: "accepted maps to processing", raw: "ACCEPTED", want: RefundStateProcessing},
		{name: "pending stays pending", raw: "REFUND_PENDING", want: RefundStatePending},
		{name: "unknown vocabulary stays processing", raw: "SOMETHING_NEW", want: RefundStateProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseGatewayRefundState(tt.raw))
		})
	}
}

func TestRefundStateIsTerminal(t *testing.T) {
	assert.True(t, RefundStateCompleted.IsTerminal())
	assert.True(t, RefundStateFailed.IsTerminal())
	assert.True(t, RefundStateReversed.IsTerminal())
	assert.False(t, RefundStatePending.IsTerminal())
	assert.False(t, RefundStateProcessing.IsTerminal())
}

func TestWebhookEventForRefundState(t *testing.T) {
	name, ok := WebhookEventForRefundState(RefundStateCompleted)
	assert.True(t, ok)
	assert.Equal(t, WebhookEventRefundCompleted, name)

	_, ok = WebhookEventForRefundState(RefundStateProcessing)
	assert.False(t, ok)

	// REVERSED is an administrative override and never notifies merchants
	_, ok = WebhookEventForRefundState(RefundStateReversed)
	assert.False(t, ok)
}
