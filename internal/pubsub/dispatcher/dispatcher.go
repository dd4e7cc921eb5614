// Package dispatcher binds a resolver and a strategy into the single
// Dispatch call producers use, and exposes it as a retried unit of work.
package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/registry"
	"pubsub/internal/validator"
)

// Barrier blocks until handler discovery has completed.
type Barrier interface {
	Wait(ctx context.Context) (*registry.Registry, error)
}

// Dispatcher resolves the subscribers of an event and hands them to the
// binding's strategy. It has no state of its own: retrying a dispatch with
// the same input yields the same instance ids.
type Dispatcher struct {
	binding Binding
	barrier Barrier
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher for one binding.
func NewDispatcher(binding Binding, barrier Barrier, logger *zap.Logger) (*Dispatcher, error) {
	d := Dispatcher{
		binding: binding,
		barrier: barrier,
		logger:  logger,
	}

	if err := validator.Validate("dispatcher", d.binding.Name, d.binding.Resolver, d.binding.Strategy, d.barrier, d.logger); err != nil {
		return nil, fmt.Errorf("failed to validate dispatcher deps: %w", err)
	}

	return &d, nil
}

// Binding returns the binding d dispatches through.
func (d *Dispatcher) Binding() Binding { return d.binding }

// Dispatch implements pubsub.Dispatcher.
func (d *Dispatcher) Dispatch(ctx context.Context, in pubsub.EventDispatchInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if in.ID == "" {
		return fmt.Errorf("%w: missing dispatch id", pubsub.ErrInvalidInput)
	}

	logger := d.logger.With(
		zap.String("binding", d.binding.Name),
		zap.String("event_type", in.EventType),
		zap.String("dispatch_id", in.ID),
	)

	if _, err := d.barrier.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for handler discovery: %w", err)
	}

	subscribers, err := d.binding.Resolver.Resolve(ctx, in.EventType)
	if err != nil {
		return fmt.Errorf("failed to resolve subscribers of %s: %w", in.EventType, err)
	}

	if len(subscribers) == 0 {
		logger.Info("no subscribers found for event type")
		return nil
	}

	logger.Debug("dispatching event", zap.Int("subscribers", len(subscribers)))
	if err := d.binding.Strategy.Dispatch(ctx, in, subscribers); err != nil {
		return fmt.Errorf("failed to dispatch %s via %s: %w", in.ID, d.binding.Strategy.Name(), err)
	}

	return nil
}

// Activity returns the function registered with the runtime as the binding's
// unit of work. Invalid input is reported as non-retryable.
func Activity(d pubsub.Dispatcher) func(ctx context.Context, in pubsub.EventDispatchInput) error {
	return func(ctx context.Context, in pubsub.EventDispatchInput) error {
		err := d.Dispatch(ctx, in)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, pubsub.ErrInvalidInput):
			return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidInput, err)
		default:
			return err
		}
	}
}

// ErrTypeInvalidInput is the application error type of rejected input.
const ErrTypeInvalidInput = "InvalidDispatchInput"
