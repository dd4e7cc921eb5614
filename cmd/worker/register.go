package main

import (
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"
	"go.uber.org/zap"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/dispatcher"
	"pubsub/internal/pubsub/metrics"
	"pubsub/internal/pubsub/producer"
	"pubsub/internal/pubsub/registry"
	"pubsub/internal/pubsub/tracing"
)

// registration lists what a worker registered, for the startup report.
type registration struct {
	workflows  []string
	activities []string
}

// registrar registers a worker's workflows and activities.
type registrar struct {
	queue        string
	primaryQueue string
	holder       *registry.Holder
	metrics      *metrics.Registry
	tracer       *tracing.Tracer
	dispatch     producer.WorkflowOptions
	logger       *zap.Logger
}

// handles reports whether a worker polling r.queue runs instances of h.
func (r registrar) handles(h pubsub.HandlerDescriptor) bool {
	if h.Queue == "" {
		return r.queue == r.primaryQueue
	}
	return h.Queue == r.queue
}

// register registers the handler workflows routed to r.queue and, on the
// primary queue, the producer workflows and dispatch activities of bindings.
func (r registrar) register(w worker.Registry, reg *registry.Registry, bindings []dispatcher.Binding) (registration, error) {
	var out registration

	for _, h := range reg.AllHandlers() {
		if !r.handles(h) {
			continue
		}
		if h.Workflow == nil {
			r.logger.Warn("handler has no workflow function", zap.String("handler", h.Name))
			continue
		}
		w.RegisterWorkflowWithOptions(h.Workflow, workflow.RegisterOptions{Name: h.Name})
		out.workflows = append(out.workflows, h.Name)
	}

	if r.queue != r.primaryQueue {
		return out, nil
	}

	for _, b := range bindings {
		b = dispatcher.Instrument(b, r.metrics, r.tracer)

		d, err := dispatcher.NewDispatcher(b, r.holder, r.logger)
		if err != nil {
			return registration{}, fmt.Errorf("failed to create %s dispatcher: %w", b.Name, err)
		}

		w.RegisterActivityWithOptions(
			dispatcher.Activity(dispatcher.Wrap(d, b.Name, r.metrics, r.tracer)),
			activity.RegisterOptions{Name: b.Activity},
		)
		w.RegisterWorkflowWithOptions(
			producer.Workflow(b.Activity, r.dispatch),
			workflow.RegisterOptions{Name: b.Producer},
		)

		out.activities = append(out.activities, b.Activity)
		out.workflows = append(out.workflows, b.Producer)
	}

	return out, nil
}
