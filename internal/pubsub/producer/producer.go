package producer

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"pubsub/internal/pubsub"
	"pubsub/internal/validator"
)

// InstanceID is the id of the producer workflow publishing in.
func InstanceID(in pubsub.EventDispatchInput) string {
	return fmt.Sprintf("producer-%s-%s", in.EventType, in.ID)
}

// Client publishes events from outside the runtime by starting a producer
// workflow. Publishing the same dispatch id twice starts one producer.
type Client struct {
	client   client.Client
	workflow string
	queue    string
	wait     bool
	logger   *zap.Logger
}

// NewClient creates a producer that starts the producer workflow registered
// as workflowName on queue. With wait set, Publish blocks until the dispatch
// has completed.
func NewClient(c client.Client, workflowName, queue string, wait bool, logger *zap.Logger) (*Client, error) {
	p := Client{
		client:   c,
		workflow: workflowName,
		queue:    queue,
		wait:     wait,
		logger:   logger,
	}

	if err := validator.Validate("producer client", p.client, p.workflow, p.queue, p.logger); err != nil {
		return nil, fmt.Errorf("failed to validate producer client deps: %w", err)
	}

	return &p, nil
}

// Publish implements pubsub.Producer.
func (p *Client) Publish(ctx context.Context, in pubsub.EventDispatchInput) error {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}

	opts := client.StartWorkflowOptions{
		ID:                    InstanceID(in),
		TaskQueue:             p.queue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,

		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	logger := p.logger.With(
		zap.String("producer", p.workflow),
		zap.String("event_type", in.EventType),
		zap.String("dispatch_id", in.ID),
		zap.String("instance_id", opts.ID),
	)

	run, err := p.client.ExecuteWorkflow(ctx, opts, p.workflow, in)

	var started *serviceerror.WorkflowExecutionAlreadyStarted
	switch {
	case err == nil:
	case errors.As(err, &started):
		logger.Info("event already published")
		return nil
	default:
		return fmt.Errorf("failed to start producer %s: %w", opts.ID, err)
	}

	logger.Info("published event", zap.String("run_id", run.GetRunID()))
	if !p.wait {
		return nil
	}

	if err := run.Get(ctx, nil); err != nil {
		return fmt.Errorf("failed to dispatch %s: %w", in.ID, err)
	}
	logger.Info("dispatch completed")

	return nil
}
