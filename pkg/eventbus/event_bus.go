// Package eventbus dispatches domain events drained from the aggregates
// after a successful persistence write.
package eventbus

import (
	"context"

	"github.com/flowdeck/flowdeck/pkg/events"
)

type EventHandler func(ctx context.Context, event any) error

// EventPublisher publishes one domain event keyed for partitioning.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event events.Event) error
}

// EventSubscriber routes incoming events to registered handlers.
type EventSubscriber interface {
	Handle(eventType events.EventType, handler EventHandler) error
	Subscribe(ctx context.Context) error
}

type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
	GenerateID() string
}
