// Package producer raises events. Producer workflows run a binding's
// dispatch activity as a retried, timeout-bounded unit of work; the Client
// starts producer workflows from outside the runtime.
package producer

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/dispatcher"
)

// WorkflowOptions bound the dispatch unit of work.
type WorkflowOptions struct {
	StartToCloseTimeout time.Duration `env:"DISPATCH_TIMEOUT" envDefault:"60s"`
	MaximumAttempts     int32         `env:"DISPATCH_MAX_ATTEMPTS" envDefault:"5"`
}

// Workflow returns the producer workflow for a dispatch activity. A missing
// dispatch id is assigned once, as a side effect, so replays and activity
// retries all see the same id. The workflow returns the dispatch id.
func Workflow(activityName string, opts WorkflowOptions) func(ctx workflow.Context, in pubsub.EventDispatchInput) (string, error) {
	return func(ctx workflow.Context, in pubsub.EventDispatchInput) (string, error) {
		logger := workflow.GetLogger(ctx)

		if in.ID == "" {
			id := workflow.SideEffect(ctx, func(workflow.Context) any {
				return pubsub.NewDispatchID()
			})
			if err := id.Get(&in.ID); err != nil {
				return "", fmt.Errorf("failed to assign dispatch id: %w", err)
			}
		}

		ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
			StartToCloseTimeout: opts.StartToCloseTimeout,
			RetryPolicy: &temporal.RetryPolicy{
				InitialInterval:        time.Second,
				BackoffCoefficient:     2,
				MaximumInterval:        30 * time.Second,
				MaximumAttempts:        opts.MaximumAttempts,
				NonRetryableErrorTypes: []string{dispatcher.ErrTypeInvalidInput},
			},
		})

		logger.Info("dispatching event", "event_type", in.EventType, "dispatch_id", in.ID, "activity", activityName)
		if err := workflow.ExecuteActivity(ctx, activityName, in).Get(ctx, nil); err != nil {
			return in.ID, fmt.Errorf("failed to run %s for dispatch %s: %w", activityName, in.ID, err)
		}

		return in.ID, nil
	}
}
