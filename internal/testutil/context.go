package testutil

import (
	"context"

	"github.com/rai-abhi24/cgpey/internal/types"
)

// SetupContext returns a context authenticated as the given merchant
func SetupContext(merchantID string) context.Context {
	ctx := context.Background()
	ctx = types.SetMerchantID(ctx, merchantID)
	ctx = types.SetKeyMode(ctx, types.KeyModeUAT)
	ctx = context.WithValue(ctx, types.CtxRequestID, types.GenerateUUID())
	return ctx
}
