package types

import "context"

// ContextKey is a type for the keys of values stored in the context
type ContextKey string

const (
	CtxRequestID  ContextKey = "ctx_request_id"
	CtxMerchantID ContextKey = "ctx_merchant_id"
	CtxKeyMode    ContextKey = "ctx_key_mode"

	// Default values
	DefaultMerchantID = "00000000-0000-0000-0000-000000000000"
)

const (
	HeaderRequestID     = "X-Request-ID"
	HeaderAPIKey        = "x-api-key"
	HeaderSecretKey     = "x-secret-key"
	HeaderSignature     = "X-Webhook-Signature"
	HeaderEvent         = "X-Webhook-Event"
	HeaderAuthorization = "Authorization"
)

func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(CtxRequestID).(string); ok {
		return requestID
	}
	return ""
}

func GetMerchantID(ctx context.Context) string {
	if merchantID, ok := ctx.Value(CtxMerchantID).(string); ok {
		return merchantID
	}
	return ""
}

func GetKeyMode(ctx context.Context) KeyMode {
	if mode, ok := ctx.Value(CtxKeyMode).(KeyMode); ok {
		return mode
	}
	return KeyModeProd
}

// SetMerchantID sets the merchant ID in the context
func SetMerchantID(ctx context.Context, merchantID string) context.Context {
	return context.WithValue(ctx, CtxMerchantID, merchantID)
}

// SetKeyMode sets the resolved API key mode in the context
func SetKeyMode(ctx context.Context, mode KeyMode) context.Context {
	return context.WithValue(ctx, CtxKeyMode, mode)
}
