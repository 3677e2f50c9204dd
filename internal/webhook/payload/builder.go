package payload

import (
	"context"
	"encoding/json"
)

// PayloadBuilder turns an internal event into the merchant-facing
// webhook body for a given event type.
type PayloadBuilder interface {
	BuildPayload(ctx context.Context, eventType string, data json.RawMessage) (json.RawMessage, error)
}
