package config

import (
	"time"

	"github.com/rai-abhi24/cgpey/internal/types"
)

// Webhook represents the configuration for the outbound webhook system
type Webhook struct {
	Enabled         bool             `mapstructure:"enabled"`
	Topic           string           `mapstructure:"topic" default:"webhooks"`
	PubSub          types.PubSubType `mapstructure:"pubsub" default:"memory"`
	MaxRetries      int              `mapstructure:"max_retries" default:"3"`
	InitialInterval time.Duration    `mapstructure:"initial_interval" default:"5s"`
	MaxInterval     time.Duration    `mapstructure:"max_interval" default:"1m"`
	Multiplier      float64          `mapstructure:"multiplier" default:"2"`
	MaxElapsedTime  time.Duration    `mapstructure:"max_elapsed_time" default:"10m"`
	// DeliveryTimeout bounds a single POST to a merchant endpoint
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout" default:"10s"`
}

func (w *Webhook) applyDefaults() {
	if w.Topic == "" {
		w.Topic = "webhooks"
	}
	if w.PubSub == "" {
		w.PubSub = types.MemoryPubSub
	}
	if w.MaxRetries == 0 {
		w.MaxRetries = 3
	}
	if w.InitialInterval == 0 {
		w.InitialInterval = 5 * time.Second
	}
	if w.MaxInterval == 0 {
		w.MaxInterval = time.Minute
	}
	if w.Multiplier == 0 {
		w.Multiplier = 2
	}
	if w.MaxElapsedTime == 0 {
		w.MaxElapsedTime = 10 * time.Minute
	}
	if w.DeliveryTimeout == 0 {
		w.DeliveryTimeout = 10 * time.Second
	}
}
