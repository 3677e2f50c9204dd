package types

type RunMode string

const (
	// ModeLocal is the mode for running the API server and the webhook worker together
	ModeLocal RunMode = "local"
	// ModeAPI is the mode for running just the API server
	ModeAPI RunMode = "api"
	// ModeWorker is the mode for running just the webhook delivery worker
	ModeWorker RunMode = "worker"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
)

// PubSubType is the backing implementation for the webhook event bus
type PubSubType string

const (
	MemoryPubSub PubSubType = "memory"
)
