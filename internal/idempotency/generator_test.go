package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKeyDeterminism(t *testing.T) {
	g := NewGenerator()

	params := map[string]interface{}{
		"merchant_id": "mer_1",
		"payment_id":  "pay_1",
		"event_type":  "payment.success",
	}

	key1 := g.GenerateKey(ScopeWebhookDelivery, params)
	key2 := g.GenerateKey(ScopeWebhookDelivery, params)
	assert.Equal(t, key1, key2)
	assert.True(t, strings.HasPrefix(key1, string(ScopeWebhookDelivery)+"-"))

	// map iteration order must not matter
	key3 := g.GenerateKey(ScopeWebhookDelivery, map[string]interface{}{
		"event_type":  "payment.success",
		"merchant_id": "mer_1",
		"payment_id":  "pay_1",
	})
	assert.Equal(t, key1, key3)
}

func TestGenerateKeyDiscriminates(t *testing.T) {
	g := NewGenerator()

	base := map[string]interface{}{
		"merchant_id": "mer_1",
		"payment_id":  "pay_1",
		"event_type":  "payment.success",
	}
	baseKey := g.GenerateKey(ScopeWebhookDelivery, base)

	changed := map[string]interface{}{
		"merchant_id": "mer_1",
		"payment_id":  "pay_1",
		"event_type":  "payment.failed",
	}
	assert.NotEqual(t, baseKey, g.GenerateKey(ScopeWebhookDelivery, changed))

	// same params under a different scope never collide
	assert.NotEqual(t, baseKey, g.GenerateKey(ScopeRefund, base))
}

func TestValidateKey(t *testing.T) {
	g := NewGenerator()

	params := map[string]interface{}{"payment_id": "pay_1"}
	key := g.GenerateKey(ScopePayment, params)

	assert.True(t, g.ValidateKey(ScopePayment, params, key))
	assert.False(t, g.ValidateKey(ScopePayment, map[string]interface{}{"payment_id": "pay_2"}, key))
	assert.False(t, g.ValidateKey(ScopeRefund, params, key))
}
