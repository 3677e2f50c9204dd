package types

import (
	"fmt"

	"github.com/samber/lo"
)

// MerchantStatus represents the onboarding status of a merchant
type MerchantStatus string

const (
	MerchantStatusPending   MerchantStatus = "pending"
	MerchantStatusApproved  MerchantStatus = "approved"
	MerchantStatusSuspended MerchantStatus = "suspended"
)

func (s MerchantStatus) String() string {
	return string(s)
}

func (s MerchantStatus) Validate() error {
	allowed := []MerchantStatus{
		MerchantStatusPending,
		MerchantStatusApproved,
		MerchantStatusSuspended,
	}
	if !lo.Contains(allowed, s) {
		return fmt.Errorf("invalid merchant status: %s", s)
	}
	return nil
}

// KeyMode identifies which key set an API key belongs to
type KeyMode string

const (
	KeyModeUAT  KeyMode = "uat"
	KeyModeProd KeyMode = "prod"
)
