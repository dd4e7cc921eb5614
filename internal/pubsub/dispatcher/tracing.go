package dispatcher

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/metrics"
	"pubsub/internal/pubsub/tracing"
)

// TracedDispatcher wraps a pubsub.Dispatcher with distributed tracing
// Layer order: TracedDispatcher -> MetricsDispatcher -> Dispatcher (real thing)
type TracedDispatcher struct {
	dispatcher pubsub.Dispatcher
	binding    string
	tracer     *tracing.Tracer
}

// NewTracedDispatcher creates a new traced dispatcher that wraps a metrics dispatcher
func NewTracedDispatcher(dispatcher pubsub.Dispatcher, binding string, tracer *tracing.Tracer) pubsub.Dispatcher {
	return &TracedDispatcher{
		dispatcher: dispatcher,
		binding:    binding,
		tracer:     tracer,
	}
}

// Dispatch implements pubsub.Dispatcher.Dispatch with distributed tracing
func (d *TracedDispatcher) Dispatch(ctx context.Context, in pubsub.EventDispatchInput) error {
	ctx, span := d.tracer.StartSpan(ctx, "dispatcher.dispatch")
	defer span.End()

	span.SetAttributes(d.tracer.BindingAttributes(d.binding, in.EventType, in.ID)...)

	err := d.dispatcher.Dispatch(ctx, in)
	if err != nil {
		d.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(d.tracer.ErrorAttributes(err)...)

	return err
}

// TracedResolver wraps a pubsub.Resolver with distributed tracing
type TracedResolver struct {
	resolver pubsub.Resolver
	binding  string
	tracer   *tracing.Tracer
}

// NewTracedResolver creates a new traced resolver
func NewTracedResolver(resolver pubsub.Resolver, binding string, tracer *tracing.Tracer) pubsub.Resolver {
	return &TracedResolver{
		resolver: resolver,
		binding:  binding,
		tracer:   tracer,
	}
}

// Resolve implements pubsub.Resolver.Resolve with distributed tracing
func (r *TracedResolver) Resolve(ctx context.Context, eventType string) ([]pubsub.HandlerDescriptor, error) {
	ctx, span := r.tracer.StartSpan(ctx, "dispatcher.resolve")
	defer span.End()

	span.SetAttributes(
		attribute.String("pubsub.binding", r.binding),
		attribute.String("pubsub.event_type", eventType),
	)

	subscribers, err := r.resolver.Resolve(ctx, eventType)
	if err != nil {
		r.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Int("pubsub.subscribers", len(subscribers)))
	}

	return subscribers, err
}

// Instrument layers tracing and metrics around b's resolver and returns the
// binding to build a Dispatcher from.
func Instrument(b Binding, registry *metrics.Registry, tracer *tracing.Tracer) Binding {
	b.Resolver = NewTracedResolver(NewMetricsResolver(b.Resolver, b.Name, registry), b.Name, tracer)
	return b
}

// Wrap layers tracing and metrics around d.
func Wrap(d pubsub.Dispatcher, binding string, registry *metrics.Registry, tracer *tracing.Tracer) pubsub.Dispatcher {
	return NewTracedDispatcher(NewMetricsDispatcher(d, binding, registry), binding, tracer)
}
