package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignerRoundTrip(t *testing.T) {
	signer := NewSigner()
	payload := []byte(`{"event":"payment.success","payment_id":"pay_123"}`)

	sig := signer.Sign(payload, "whsec_test")
	assert.NotEmpty(t, sig)
	assert.True(t, signer.Verify(payload, "whsec_test", sig))

	// deterministic for identical inputs
	assert.Equal(t, sig, signer.Sign(payload, "whsec_test"))

	// any change breaks verification
	assert.False(t, signer.Verify([]byte(`{"event":"tampered"}`), "whsec_test", sig))
	assert.False(t, signer.Verify(payload, "whsec_other", sig))
	assert.False(t, signer.Verify(payload, "whsec_test", sig+"00"))
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, SecureCompare("secret", "secret"))
	assert.False(t, SecureCompare("secret", "Secret"))
	assert.False(t, SecureCompare("secret", "secret "))
	assert.False(t, SecureCompare("", "secret"))
}

func TestGatewayChecksum(t *testing.T) {
	sum := GatewayChecksum("eyJzdGF0ZSI6IkNPTVBMRVRFRCJ9", "/pg/v1/status", "salt", "1")
	assert.Contains(t, sum, "###1")

	// stable for identical inputs, distinct otherwise
	assert.Equal(t, sum, GatewayChecksum("eyJzdGF0ZSI6IkNPTVBMRVRFRCJ9", "/pg/v1/status", "salt", "1"))
	assert.NotEqual(t, sum, GatewayChecksum("eyJzdGF0ZSI6IkNPTVBMRVRFRCJ9", "", "salt", "1"))
	assert.NotEqual(t, sum, GatewayChecksum("eyJzdGF0ZSI6IkNPTVBMRVRFRCJ9", "/pg/v1/status", "other", "1"))
}
