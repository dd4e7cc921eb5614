package pubsub

import "context"

// Dispatcher defines the single call exposed to producers.
type Dispatcher interface {
	// Dispatch resolves the subscribers of in.EventType and delivers in to
	// each of them. No subscribers is a successful no-op.
	Dispatch(ctx context.Context, in EventDispatchInput) error
}

// Resolver finds the handlers subscribed to an event type.
type Resolver interface {
	// Resolve returns the subscribers in delivery order. An empty result is
	// not an error.
	Resolve(ctx context.Context, eventType string) ([]HandlerDescriptor, error)
}

// Strategy delivers one dispatch to an already resolved set of subscribers.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	Dispatch(ctx context.Context, in EventDispatchInput, subscribers []HandlerDescriptor) error
}
