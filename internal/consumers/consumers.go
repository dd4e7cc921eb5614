// Package consumers holds the order subscribers run by the primary worker.
package consumers

import (
	"go.temporal.io/sdk/workflow"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/consumer"
)

const (
	OrderCreated = "order.created"
	OrderShipped = "order.shipped"
)

// Handlers returns the subscribers defined by this package.
func Handlers() ([]pubsub.HandlerDescriptor, error) {
	return []pubsub.HandlerDescriptor{
		consumer.Descriptor("Billing", OrderCreated, "", Billing, consumer.Options{}),
		consumer.Descriptor("Shipping", OrderCreated, "", Shipping, consumer.Options{}),
		consumer.Descriptor("Notifications", OrderShipped, "", Notifications, consumer.Options{}),
	}, nil
}

// Billing charges the order amount.
func Billing(ctx workflow.Context, in pubsub.ConsumerInput) error {
	workflow.GetLogger(ctx).Info("billing order", "amount", field(in, "amount"), "order_id", field(in, "order_id"))
	return nil
}

// Shipping schedules delivery of the order.
func Shipping(ctx workflow.Context, in pubsub.ConsumerInput) error {
	workflow.GetLogger(ctx).Info("scheduling shipment", "order_id", field(in, "order_id"))
	return nil
}

// Notifications tells the customer their order left the warehouse.
func Notifications(ctx workflow.Context, in pubsub.ConsumerInput) error {
	workflow.GetLogger(ctx).Info("notifying customer", "customer_id", field(in, "customer_id"), "order_id", field(in, "order_id"))
	return nil
}

func field(in pubsub.ConsumerInput, key string) any {
	if in.Payload == nil {
		return nil
	}
	return in.Payload.Data[key]
}
