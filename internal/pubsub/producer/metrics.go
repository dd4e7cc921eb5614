package producer

import (
	"context"
	"time"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/metrics"
)

// MetricsProducer wraps a pubsub.Producer with metrics collection
type MetricsProducer struct {
	producer pubsub.Producer
	name     string
	registry *metrics.Registry
}

// NewMetricsProducer creates a new instrumented producer
func NewMetricsProducer(producer pubsub.Producer, name string, registry *metrics.Registry) pubsub.Producer {
	return &MetricsProducer{
		producer: producer,
		name:     name,
		registry: registry,
	}
}

// Publish implements pubsub.Producer.Publish with metrics collection
func (p *MetricsProducer) Publish(ctx context.Context, in pubsub.EventDispatchInput) error {
	start := time.Now()

	err := p.producer.Publish(ctx, in)
	p.registry.RecordProducerPublish(p.name, time.Since(start), err)

	return err
}
