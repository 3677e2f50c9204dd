package merchant

import (
	ierr "github.com/rai-abhi24/cgpey/internal/errors"
	"github.com/rai-abhi24/cgpey/internal/types"
	"github.com/shopspring/decimal"
)

// KeyPair is one API credential set (UAT or PROD)
type KeyPair struct {
	APIKey    string `db:"api_key" json:"api_key"`
	SecretKey string `db:"secret_key" json:"-"`
}

// Merchant represents an onboarded merchant account. Onboarding itself is
// handled elsewhere; this package only models what the payment core needs:
// credentials, limits and webhook configuration.
type Merchant struct {
	ID     string               `db:"id" json:"id"`
	Name   string               `db:"name" json:"name"`
	Status types.MerchantStatus `db:"status" json:"status"`

	// Per-transaction amount ceiling enforced at checkout initiation
	PerTransactionLimit decimal.Decimal `db:"per_transaction_limit" json:"per_transaction_limit"`

	UATKeys  KeyPair `json:"uat_keys"`
	ProdKeys KeyPair `json:"prod_keys"`

	// Outbound webhook configuration
	WebhookURL     string `db:"webhook_url" json:"webhook_url"`
	WebhookSecret  string `db:"webhook_secret" json:"-"`
	WebhookEnabled bool   `db:"webhook_enabled" json:"webhook_enabled"`

	types.BaseModel
}

// KeysFor returns the key pair for the given mode
func (m *Merchant) KeysFor(mode types.KeyMode) KeyPair {
	if mode == types.KeyModeUAT {
		return m.UATKeys
	}
	return m.ProdKeys
}

// Validate validates the merchant
func (m *Merchant) Validate() error {
	if m.Name == "" {
		return ierr.NewError("invalid merchant name").
			WithHint("Merchant name is required").
			Mark(ierr.ErrValidation)
	}
	if err := m.Status.Validate(); err != nil {
		return ierr.WithError(err).
			WithHint("Merchant status is invalid").
			Mark(ierr.ErrValidation)
	}
	if m.PerTransactionLimit.IsNegative() {
		return ierr.NewError("invalid per transaction limit").
			WithHint("Per transaction limit must not be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}
