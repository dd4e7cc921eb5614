package dispatcher

import (
	"context"
	"time"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/metrics"
)

// MetricsDispatcher wraps a pubsub.Dispatcher with metrics collection
type MetricsDispatcher struct {
	dispatcher pubsub.Dispatcher
	binding    string
	registry   *metrics.Registry
}

// NewMetricsDispatcher creates a new instrumented dispatcher
func NewMetricsDispatcher(dispatcher pubsub.Dispatcher, binding string, registry *metrics.Registry) pubsub.Dispatcher {
	return &MetricsDispatcher{
		dispatcher: dispatcher,
		binding:    binding,
		registry:   registry,
	}
}

// Dispatch implements pubsub.Dispatcher.Dispatch with metrics collection
func (d *MetricsDispatcher) Dispatch(ctx context.Context, in pubsub.EventDispatchInput) error {
	start := time.Now()

	err := d.dispatcher.Dispatch(ctx, in)
	d.registry.RecordDispatch(d.binding, time.Since(start), err)

	return err
}

// MetricsResolver wraps a pubsub.Resolver with metrics collection
type MetricsResolver struct {
	resolver pubsub.Resolver
	binding  string
	registry *metrics.Registry
}

// NewMetricsResolver creates a new instrumented resolver
func NewMetricsResolver(resolver pubsub.Resolver, binding string, registry *metrics.Registry) pubsub.Resolver {
	return &MetricsResolver{
		resolver: resolver,
		binding:  binding,
		registry: registry,
	}
}

// Resolve implements pubsub.Resolver.Resolve with metrics collection
func (r *MetricsResolver) Resolve(ctx context.Context, eventType string) ([]pubsub.HandlerDescriptor, error) {
	subscribers, err := r.resolver.Resolve(ctx, eventType)
	r.registry.RecordResolve(r.binding, len(subscribers), err)

	return subscribers, err
}
