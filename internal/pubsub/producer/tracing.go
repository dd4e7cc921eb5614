package producer

import (
	"context"

	"go.opentelemetry.io/otel/codes"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/metrics"
	"pubsub/internal/pubsub/tracing"
)

// TracedProducer wraps a pubsub.Producer with distributed tracing
// Layer order: TracedProducer -> MetricsProducer -> Client (real thing)
type TracedProducer struct {
	producer pubsub.Producer
	name     string
	tracer   *tracing.Tracer
}

// NewTracedProducer creates a new traced producer that wraps a metrics producer
func NewTracedProducer(producer pubsub.Producer, name string, tracer *tracing.Tracer) pubsub.Producer {
	return &TracedProducer{
		producer: producer,
		name:     name,
		tracer:   tracer,
	}
}

// Publish implements pubsub.Producer.Publish with distributed tracing
func (p *TracedProducer) Publish(ctx context.Context, in pubsub.EventDispatchInput) error {
	ctx, span := p.tracer.StartSpan(ctx, "producer.publish")
	defer span.End()

	span.SetAttributes(p.tracer.BindingAttributes(p.name, in.EventType, in.ID)...)

	err := p.producer.Publish(ctx, in)
	if err != nil {
		p.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(p.tracer.ErrorAttributes(err)...)

	return err
}

// Wrap layers tracing and metrics around p.
func Wrap(p pubsub.Producer, name string, registry *metrics.Registry, tracer *tracing.Tracer) pubsub.Producer {
	return NewTracedProducer(NewMetricsProducer(p, name, registry), name, tracer)
}
