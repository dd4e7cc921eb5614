package pubsub

import "context"

// Producer defines the interface for raising events from outside the runtime.
type Producer interface {
	// Publish hands an event to the producer's configured dispatcher.
	Publish(ctx context.Context, in EventDispatchInput) error
}
