// Package consumer builds subscriber workflows. A subscriber started by the
// spawn strategy receives its event as the initial argument; one started by
// the coalesce strategy receives events as process_event signals.
package consumer

import (
	"time"

	"go.temporal.io/sdk/workflow"

	"pubsub/internal/pubsub"
)

const (
	DefaultIdleTimeout     = 5 * time.Minute
	DefaultMaxEventsPerRun = 1000
)

// Handle processes one delivered event.
type Handle func(ctx workflow.Context, in pubsub.ConsumerInput) error

// Options tune the signal loop of coalesced subscribers.
type Options struct {
	// IdleTimeout is how long a coalesced subscriber waits for the next
	// signal before completing.
	IdleTimeout time.Duration
	// MaxEventsPerRun bounds the events handled before the subscriber
	// continues as new.
	MaxEventsPerRun int
}

func (o Options) withDefaults() Options {
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.MaxEventsPerRun <= 0 {
		o.MaxEventsPerRun = DefaultMaxEventsPerRun
	}
	return o
}

// Workflow returns the workflow function of a subscriber. With an initial
// argument it handles that one event. Without one it handles process_event
// signals until none arrives for IdleTimeout, then handles whatever is still
// buffered and completes, so a signal accepted by the runtime is never lost.
func Workflow(handle Handle, opts Options) func(ctx workflow.Context, in *pubsub.ConsumerInput) error {
	opts = opts.withDefaults()

	return func(ctx workflow.Context, in *pubsub.ConsumerInput) error {
		if in != nil {
			return handle(ctx, *in)
		}

		return signalLoop(ctx, handle, opts)
	}
}

func signalLoop(ctx workflow.Context, handle Handle, opts Options) error {
	logger := workflow.GetLogger(ctx)
	events := workflow.GetSignalChannel(ctx, pubsub.SignalProcessEvent)

	handled := 0
	for handled < opts.MaxEventsPerRun {
		next, ok := receive(ctx, events, opts.IdleTimeout)
		if !ok {
			break
		}
		if err := handle(ctx, next); err != nil {
			return err
		}
		handled++
	}

	for {
		var next pubsub.ConsumerInput
		if !events.ReceiveAsync(&next) {
			break
		}
		if err := handle(ctx, next); err != nil {
			return err
		}
		handled++
	}

	if handled >= opts.MaxEventsPerRun {
		logger.Info("subscriber reached event limit, continuing as new", "handled", handled)
		return workflow.NewContinueAsNewError(ctx, workflow.GetInfo(ctx).WorkflowType.Name, (*pubsub.ConsumerInput)(nil))
	}

	logger.Info("subscriber idle, completing", "handled", handled)
	return nil
}

// receive waits up to idle for the next signal.
func receive(ctx workflow.Context, ch workflow.ReceiveChannel, idle time.Duration) (pubsub.ConsumerInput, bool) {
	timerCtx, cancel := workflow.WithCancel(ctx)
	defer cancel()

	var (
		next     pubsub.ConsumerInput
		received bool
	)

	sel := workflow.NewSelector(ctx)
	sel.AddReceive(ch, func(c workflow.ReceiveChannel, _ bool) {
		c.Receive(ctx, &next)
		received = true
	})
	sel.AddFuture(workflow.NewTimer(timerCtx, idle), func(workflow.Future) {})
	sel.Select(ctx)

	return next, received
}

// Descriptor builds the descriptor of a subscriber handled by handle.
func Descriptor(name, eventType, queue string, handle Handle, opts Options) pubsub.HandlerDescriptor {
	return pubsub.HandlerDescriptor{
		Name:      name,
		EventType: eventType,
		Queue:     queue,
		Workflow:  Workflow(handle, opts),
	}
}
