// Package runtime implements pubsub.Runtime on a Temporal client.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"pubsub/internal/pubsub"
	"pubsub/internal/validator"
)

// Operation names used in logs, metrics and spans.
const (
	OpStartNew      = "StartNew"
	OpStartOrSignal = "StartOrSignal"
	OpQueryRunning  = "QueryRunning"
)

// Temporal starts, signals and lists workflow executions. The client is
// opened once by the caller and shared across dispatches.
type Temporal struct {
	client    client.Client
	namespace string
	queue     string
	logger    *zap.Logger
}

// NewTemporal creates a runtime on c. queue is used for requests that do not
// name a queue of their own.
func NewTemporal(c client.Client, namespace, queue string, logger *zap.Logger) (*Temporal, error) {
	t := Temporal{
		client:    c,
		namespace: namespace,
		queue:     queue,
		logger:    logger,
	}

	if err := validator.Validate("temporal runtime", t.client, t.namespace, t.queue, t.logger); err != nil {
		return nil, fmt.Errorf("failed to validate temporal runtime deps: %w", err)
	}

	return &t, nil
}

// StartNew implements pubsub.Runtime.StartNew with a reject-duplicate id
// policy. A taken id is reported as pubsub.ErrAlreadyStarted.
func (t *Temporal) StartNew(ctx context.Context, req pubsub.StartRequest) error {
	opts := client.StartWorkflowOptions{
		ID:                    req.InstanceID,
		TaskQueue:             t.taskQueue(req.Queue),
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
		TypedSearchAttributes: SubscribedOn(req.EventType),

		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}

	run, err := t.client.ExecuteWorkflow(ctx, opts, req.HandlerType, req.Arg)

	var started *serviceerror.WorkflowExecutionAlreadyStarted
	switch {
	case err == nil:
	case errors.As(err, &started):
		return fmt.Errorf("%w: %s", pubsub.ErrAlreadyStarted, req.InstanceID)
	default:
		return fmt.Errorf("failed to start workflow %s of type %s: %w", req.InstanceID, req.HandlerType, err)
	}

	t.logger.Debug("started workflow",
		zap.String("instance_id", req.InstanceID),
		zap.String("run_id", run.GetRunID()),
		zap.String("task_queue", opts.TaskQueue),
	)

	return nil
}

// StartOrSignal implements pubsub.Runtime.StartOrSignal. A new execution is
// started with no arguments and receives the payload as its first signal.
func (t *Temporal) StartOrSignal(ctx context.Context, req pubsub.SignalStartRequest) error {
	opts := client.StartWorkflowOptions{
		ID:                    req.InstanceID,
		TaskQueue:             t.taskQueue(req.Queue),
		TypedSearchAttributes: SubscribedOn(req.EventType),
	}

	run, err := t.client.SignalWithStartWorkflow(ctx, req.InstanceID, req.SignalName, req.SignalArg, opts, req.HandlerType)
	if err != nil {
		return fmt.Errorf("failed to signal-with-start workflow %s of type %s: %w", req.InstanceID, req.HandlerType, err)
	}

	t.logger.Debug("signalled workflow",
		zap.String("instance_id", req.InstanceID),
		zap.String("run_id", run.GetRunID()),
		zap.String("signal", req.SignalName),
	)

	return nil
}

// QueryRunning implements pubsub.Runtime.QueryRunning, following every page
// of the visibility listing.
func (t *Temporal) QueryRunning(ctx context.Context, attribute, value string) ([]pubsub.Instance, error) {
	query := RunningQuery(attribute, value)

	var (
		instances []pubsub.Instance
		token     []byte
	)
	for {
		resp, err := t.client.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{
			Namespace:     t.namespace,
			Query:         query,
			NextPageToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list workflows matching %q: %w", query, err)
		}

		for _, e := range resp.GetExecutions() {
			instances = append(instances, pubsub.Instance{
				ID:   e.GetExecution().GetWorkflowId(),
				Type: e.GetType().GetName(),
			})
		}

		token = resp.GetNextPageToken()
		if len(token) == 0 {
			break
		}
	}

	return instances, nil
}

func (t *Temporal) taskQueue(queue string) string {
	if queue == "" {
		return t.queue
	}
	return queue
}

// SubscribedOn returns the search attributes tagging a subscriber of eventType.
func SubscribedOn(eventType string) temporal.SearchAttributes {
	key := temporal.NewSearchAttributeKeyKeyword(pubsub.AttributeSubscribedOn)
	return temporal.NewSearchAttributes(key.ValueSet(eventType))
}

// RunningQuery builds the visibility query for running executions whose
// keyword attribute equals value.
func RunningQuery(attribute, value string) string {
	value = strings.ReplaceAll(value, `"`, `\"`)
	return fmt.Sprintf(`%s = "%s" AND ExecutionStatus = "Running"`, attribute, value)
}
