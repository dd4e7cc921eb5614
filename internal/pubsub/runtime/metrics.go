package runtime

import (
	"context"
	"errors"
	"time"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/metrics"
)

// MetricsRuntime wraps a pubsub.Runtime with metrics collection
type MetricsRuntime struct {
	runtime  pubsub.Runtime
	registry *metrics.Registry
}

// NewMetricsRuntime creates a new instrumented runtime
func NewMetricsRuntime(runtime pubsub.Runtime, registry *metrics.Registry) pubsub.Runtime {
	return &MetricsRuntime{
		runtime:  runtime,
		registry: registry,
	}
}

// StartNew implements pubsub.Runtime.StartNew with metrics collection.
// A duplicate start counts as a successful call.
func (r *MetricsRuntime) StartNew(ctx context.Context, req pubsub.StartRequest) error {
	start := time.Now()

	err := r.runtime.StartNew(ctx, req)

	recorded := err
	if errors.Is(err, pubsub.ErrAlreadyStarted) {
		recorded = nil
	}
	r.registry.RecordRuntimeOperation(OpStartNew, time.Since(start), recorded)

	return err
}

// StartOrSignal implements pubsub.Runtime.StartOrSignal with metrics collection
func (r *MetricsRuntime) StartOrSignal(ctx context.Context, req pubsub.SignalStartRequest) error {
	start := time.Now()

	err := r.runtime.StartOrSignal(ctx, req)
	r.registry.RecordRuntimeOperation(OpStartOrSignal, time.Since(start), err)

	return err
}

// QueryRunning implements pubsub.Runtime.QueryRunning with metrics collection
func (r *MetricsRuntime) QueryRunning(ctx context.Context, attribute, value string) ([]pubsub.Instance, error) {
	start := time.Now()

	instances, err := r.runtime.QueryRunning(ctx, attribute, value)
	r.registry.RecordRuntimeOperation(OpQueryRunning, time.Since(start), err)

	return instances, err
}
