package queue

import (
	"context"
)

// EventPublisher is the interface for change event sinks
type EventPublisher interface {
	// Publish sends a change event to subscribers
	Publish(ctx context.Context, event *ChangeEvent) error

	// HealthCheck verifies the publisher connection is healthy
	HealthCheck(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// EventSubscriber is the interface for change event sources
type EventSubscriber interface {
	// Consume delivers events until ctx is done. Errors that do not stop
	// consumption are reported on the error channel.
	Consume(ctx context.Context, prefetchCount int) (<-chan *Delivery, <-chan error, error)

	// Close closes the subscriber connection
	Close() error
}
