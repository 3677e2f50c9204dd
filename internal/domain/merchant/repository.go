package merchant

import (
	"context"

	"github.com/rai-abhi24/cgpey/internal/types"
)

// Repository defines the interface for merchant persistence
type Repository interface {
	Create(ctx context.Context, merchant *Merchant) error
	Get(ctx context.Context, id string) (*Merchant, error)
	// GetByAPIKey looks the public key up across both UAT and PROD key
	// sets and reports which one matched
	GetByAPIKey(ctx context.Context, apiKey string) (*Merchant, types.KeyMode, error)
	Update(ctx context.Context, merchant *Merchant) error
}
