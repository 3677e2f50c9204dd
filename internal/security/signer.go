package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Signer defines the interface for webhook payload signing and verification
type Signer interface {
	// Sign computes the HMAC-SHA256 signature of payload under secret
	Sign(payload []byte, secret string) string

	// Verify reports whether signature matches payload under secret
	Verify(payload []byte, secret string, signature string) bool
}

type hmacSigner struct{}

// NewSigner creates a new HMAC-SHA256 signer
func NewSigner() Signer {
	return &hmacSigner{}
}

func (s *hmacSigner) Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *hmacSigner) Verify(payload []byte, secret string, signature string) bool {
	expected := s.Sign(payload, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// SecureCompare performs a constant-time comparison of two credential strings
func SecureCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// GatewayChecksum computes the X-VERIFY style checksum the gateway expects:
// sha256(base64Payload + path + saltKey) + "###" + saltIndex
func GatewayChecksum(base64Payload, path, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(base64Payload + path + saltKey))
	return fmt.Sprintf("%s###%s", hex.EncodeToString(sum[:]), saltIndex)
}
