package testutil

import (
	"context"
	"time"

	"github.com/rai-abhi24/cgpey/internal/domain/merchant"
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/types"
)

// InMemoryMerchantStore implements merchant.Repository
type InMemoryMerchantStore struct {
	*InMemoryStore[*merchant.Merchant]
}

// NewInMemoryMerchantStore creates a new in-memory merchant repository
func NewInMemoryMerchantStore() *InMemoryMerchantStore {
	return &InMemoryMerchantStore{
		InMemoryStore: NewInMemoryStore[*merchant.Merchant](),
	}
}

func copyMerchant(m *merchant.Merchant) *merchant.Merchant {
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}

// Create stores a new merchant
func (m *InMemoryMerchantStore) Create(ctx context.Context, mer *merchant.Merchant) error {
	if mer == nil {
		return ierr.NewError("merchant cannot be nil").
			WithHint("Merchant cannot be nil").
			Mark(ierr.ErrValidation)
	}
	return m.InMemoryStore.Create(ctx, mer.ID, copyMerchant(mer))
}

// Get retrieves a merchant by ID
func (m *InMemoryMerchantStore) Get(ctx context.Context, id string) (*merchant.Merchant, error) {
	mer, err := m.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return copyMerchant(mer), nil
}

// GetByAPIKey looks the key up across both UAT and PROD key sets
func (m *InMemoryMerchantStore) GetByAPIKey(ctx context.Context, apiKey string) (*merchant.Merchant, types.KeyMode, error) {
	matches, err := m.InMemoryStore.List(ctx, nil, func(_ context.Context, item *merchant.Merchant, _ interface{}) bool {
		return item.UATKeys.APIKey == apiKey || item.ProdKeys.APIKey == apiKey
	}, nil)
	if err != nil {
		return nil, "", err
	}
	if len(matches) == 0 {
		return nil, "", ierr.NewError("merchant not found").
			WithHint("No merchant exists for this api key").
			Mark(ierr.ErrNotFound)
	}

	mer := matches[0]
	mode := types.KeyModeProd
	if mer.UATKeys.APIKey == apiKey {
		mode = types.KeyModeUAT
	}
	return copyMerchant(mer), mode, nil
}

// Update updates an existing merchant
func (m *InMemoryMerchantStore) Update(ctx context.Context, mer *merchant.Merchant) error {
	if mer == nil {
		return ierr.NewError("merchant cannot be nil").
			WithHint("Merchant cannot be nil").
			Mark(ierr.ErrValidation)
	}
	mer.UpdatedAt = time.Now().UTC()
	return m.InMemoryStore.Update(ctx, mer.ID, copyMerchant(mer))
}
