package strategy

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"pubsub/internal/pubsub"
	"pubsub/internal/validator"
)

// Coalesce funnels every dispatch of an event type into one instance per
// handler. The instance is created on first delivery and signalled with
// process_event afterwards; how it folds deliveries is up to the handler.
//
// Delivery is best effort: a failed start-or-signal is logged and recorded
// but never fails the dispatch.
type Coalesce struct {
	runtime  pubsub.Runtime
	recorder pubsub.OutcomeRecorder
	logger   *zap.Logger
}

// Delivery is the outcome of one start-or-signal call.
type Delivery struct {
	Handler    string
	InstanceID string
	Err        error
}

// NewCoalesce creates a coalesce strategy.
func NewCoalesce(runtime pubsub.Runtime, recorder pubsub.OutcomeRecorder, logger *zap.Logger) (*Coalesce, error) {
	c := Coalesce{
		runtime:  runtime,
		recorder: recorder,
		logger:   logger,
	}

	if err := validator.Validate("coalesce strategy", c.runtime, c.recorder, c.logger); err != nil {
		return nil, fmt.Errorf("failed to validate coalesce strategy deps: %w", err)
	}

	return &c, nil
}

func (c *Coalesce) Name() string { return CoalesceName }

// Deliver issues one start-or-signal per subscriber and returns every result.
func (c *Coalesce) Deliver(ctx context.Context, in pubsub.EventDispatchInput, subscribers []pubsub.HandlerDescriptor) []Delivery {
	arg := pubsub.NewConsumerInput(in)
	deliveries := make([]Delivery, 0, len(subscribers))

	for _, sub := range subscribers {
		req := pubsub.SignalStartRequest{
			InstanceID:  pubsub.CoalesceInstanceID(sub.Name, in.EventType),
			HandlerType: sub.Name,
			Queue:       sub.Queue,
			SignalName:  pubsub.SignalProcessEvent,
			SignalArg:   arg,
			EventType:   in.EventType,
		}

		err := c.runtime.StartOrSignal(ctx, req)

		outcome := pubsub.OutcomeDelivered
		if err != nil {
			outcome = pubsub.OutcomeFailed
		}
		c.recorder.RecordOutcome(CoalesceName, sub.Name, in.EventType, outcome)

		deliveries = append(deliveries, Delivery{Handler: sub.Name, InstanceID: req.InstanceID, Err: err})
	}

	return deliveries
}

// Dispatch delivers to every subscriber and always returns nil.
func (c *Coalesce) Dispatch(ctx context.Context, in pubsub.EventDispatchInput, subscribers []pubsub.HandlerDescriptor) error {
	logger := c.logger.With(
		zap.String("strategy", CoalesceName),
		zap.String("event_type", in.EventType),
		zap.String("dispatch_id", in.ID),
	)

	if len(subscribers) == 0 {
		logger.Info("no subscribers found for event type")
		return nil
	}

	for _, d := range c.Deliver(ctx, in, subscribers) {
		hlog := logger.With(zap.String("handler", d.Handler), zap.String("instance_id", d.InstanceID))
		if d.Err != nil {
			hlog.Warn("signal delivery failed, continuing", zap.Error(d.Err))
			continue
		}
		hlog.Info("delivered event to subscriber instance")
	}

	return nil
}
