package pubsub

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher pushes delivery messages onto a topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg *message.Message) error
	Close() error
}

// Subscriber consumes delivery messages from a topic. The returned
// channel closes when the subscriber shuts down.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
	Close() error
}

// PubSub is the transport the webhook pipeline runs on.
type PubSub interface {
	Publisher
	Subscriber
}
