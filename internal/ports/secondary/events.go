package secondary

import "context"

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	// Publish sends one event keyed for partitioning.
	Publish(ctx context.Context, key string, event any) error

	// Close flushes and releases the underlying connection.
	Close() error
}

// TransitionRecorder records transfer transition outcomes for monitoring.
type TransitionRecorder interface {
	// RecordTransition counts one attempted transition. Outcome is "ok" or
	// the error kind that refused it.
	RecordTransition(action, outcome string)
}
