package runtime

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/metrics"
	"pubsub/internal/pubsub/tracing"
)

// TracedRuntime wraps a pubsub.Runtime with distributed tracing
// Layer order: TracedRuntime -> MetricsRuntime -> Temporal (real thing)
type TracedRuntime struct {
	runtime pubsub.Runtime
	tracer  *tracing.Tracer
}

// NewTracedRuntime creates a new traced runtime that wraps a metrics runtime
func NewTracedRuntime(runtime pubsub.Runtime, tracer *tracing.Tracer) pubsub.Runtime {
	return &TracedRuntime{
		runtime: runtime,
		tracer:  tracer,
	}
}

// StartNew implements pubsub.Runtime.StartNew with distributed tracing
func (r *TracedRuntime) StartNew(ctx context.Context, req pubsub.StartRequest) error {
	ctx, span := r.tracer.StartSpan(ctx, "runtime.start_new")
	defer span.End()

	span.SetAttributes(r.tracer.RuntimeAttributes(OpStartNew)...)
	span.SetAttributes(r.tracer.InstanceAttributes(req.InstanceID, req.HandlerType, req.Queue)...)

	err := r.runtime.StartNew(ctx, req)
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, pubsub.ErrAlreadyStarted):
		span.SetAttributes(attribute.Bool("pubsub.duplicate", true))
		span.SetStatus(codes.Ok, "")
	default:
		r.tracer.RecordError(ctx, err)
	}

	return err
}

// StartOrSignal implements pubsub.Runtime.StartOrSignal with distributed tracing
func (r *TracedRuntime) StartOrSignal(ctx context.Context, req pubsub.SignalStartRequest) error {
	ctx, span := r.tracer.StartSpan(ctx, "runtime.start_or_signal")
	defer span.End()

	span.SetAttributes(r.tracer.RuntimeAttributes(OpStartOrSignal)...)
	span.SetAttributes(r.tracer.InstanceAttributes(req.InstanceID, req.HandlerType, req.Queue)...)
	span.SetAttributes(attribute.String("pubsub.signal", req.SignalName))

	err := r.runtime.StartOrSignal(ctx, req)
	if err != nil {
		r.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.SetAttributes(r.tracer.ErrorAttributes(err)...)

	return err
}

// QueryRunning implements pubsub.Runtime.QueryRunning with distributed tracing
func (r *TracedRuntime) QueryRunning(ctx context.Context, attr, value string) ([]pubsub.Instance, error) {
	ctx, span := r.tracer.StartSpan(ctx, "runtime.query_running")
	defer span.End()

	span.SetAttributes(r.tracer.RuntimeAttributes(OpQueryRunning)...)
	span.SetAttributes(attribute.String("pubsub.query", RunningQuery(attr, value)))

	instances, err := r.runtime.QueryRunning(ctx, attr, value)
	if err != nil {
		r.tracer.RecordError(ctx, err)
	} else {
		span.SetStatus(codes.Ok, "")
		span.SetAttributes(attribute.Int("pubsub.instances", len(instances)))
	}

	return instances, err
}

// Wrap layers tracing and metrics around rt.
func Wrap(rt pubsub.Runtime, registry *metrics.Registry, tracer *tracing.Tracer) pubsub.Runtime {
	return NewTracedRuntime(NewMetricsRuntime(rt, registry), tracer)
}
