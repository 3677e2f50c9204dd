package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Scope namespaces idempotency keys so identical params in different
// subsystems never collide.
type Scope string

const (
	ScopePayment Scope = "payment"
	ScopeRefund  Scope = "refund"

	// Outbound webhook delivery; one record per logical event
	ScopeWebhookDelivery Scope = "webhook_delivery"
)

// Generator derives deterministic idempotency keys from request params.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey hashes the scope plus the params in sorted key order, so
// the same logical request always maps to the same key regardless of
// map iteration order.
func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		fmt.Fprintf(&b, ":%s=%v", k, params[k])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s-%s", scope, hex.EncodeToString(sum[:8]))
}

// ValidateKey reports whether key was generated from the given scope
// and params.
func (g *Generator) ValidateKey(scope Scope, params map[string]interface{}, key string) bool {
	return g.GenerateKey(scope, params) == key
}
