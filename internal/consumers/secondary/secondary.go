// Package secondary holds subscribers routed to the secondary worker pool.
package secondary

import (
	"go.temporal.io/sdk/workflow"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/consumer"
)

// Handlers returns the subscribers of this package, routed to queue.
func Handlers(queue string) ([]pubsub.HandlerDescriptor, error) {
	return []pubsub.HandlerDescriptor{
		consumer.Descriptor("Audit", "order.created", queue, Audit, consumer.Options{}),
	}, nil
}

// Audit folds every order.created event into one long-lived audit trail
// when dispatched through the coalesce binding.
func Audit(ctx workflow.Context, in pubsub.ConsumerInput) error {
	var metadata map[string]any
	if in.Payload != nil {
		metadata = in.Payload.Metadata
	}
	workflow.GetLogger(ctx).Info("auditing order event", "metadata", metadata)
	return nil
}
