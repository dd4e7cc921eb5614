// Package strategy implements the ways a dispatch reaches its subscribers:
// spawning one instance per dispatch, coalescing into one long-lived instance
// per handler, and resolving subscribers from the runtime's own index.
package strategy

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"pubsub/internal/pubsub"
	"pubsub/internal/validator"
)

const (
	SpawnName    = "spawn"
	CoalesceName = "coalesce"
	QueryName    = "query"
)

// Spawn starts a brand-new instance per (handler, dispatch). The dispatch id
// is part of the instance id, so a redelivered dispatch collides with the
// instance it already created and the runtime rejects the duplicate.
type Spawn struct {
	name     string
	runtime  pubsub.Runtime
	recorder pubsub.OutcomeRecorder
	logger   *zap.Logger
}

// NewSpawn creates a spawn strategy.
func NewSpawn(runtime pubsub.Runtime, recorder pubsub.OutcomeRecorder, logger *zap.Logger) (*Spawn, error) {
	s := Spawn{
		name:     SpawnName,
		runtime:  runtime,
		recorder: recorder,
		logger:   logger,
	}

	if err := validator.Validate("spawn strategy", s.runtime, s.recorder, s.logger); err != nil {
		return nil, fmt.Errorf("failed to validate spawn strategy deps: %w", err)
	}

	return &s, nil
}

// Named returns a copy of s reporting under a different strategy name.
func (s *Spawn) Named(name string) *Spawn {
	c := *s
	c.name = name
	return &c
}

func (s *Spawn) Name() string { return s.name }

// Dispatch starts one instance per subscriber in order. Duplicate starts are
// successes; any other failure stops the dispatch and is returned so the
// enclosing unit of work can retry it.
func (s *Spawn) Dispatch(ctx context.Context, in pubsub.EventDispatchInput, subscribers []pubsub.HandlerDescriptor) error {
	logger := s.logger.With(
		zap.String("strategy", s.name),
		zap.String("event_type", in.EventType),
		zap.String("dispatch_id", in.ID),
	)

	if len(subscribers) == 0 {
		logger.Info("no subscribers found for event type")
		return nil
	}

	arg := pubsub.NewConsumerInput(in)
	for _, sub := range subscribers {
		req := pubsub.StartRequest{
			InstanceID:  pubsub.SpawnInstanceID(sub.Name, in.EventType, in.ID),
			HandlerType: sub.Name,
			Queue:       sub.Queue,
			Arg:         arg,
			EventType:   in.EventType,
		}
		hlog := logger.With(zap.String("handler", sub.Name), zap.String("instance_id", req.InstanceID))

		err := s.runtime.StartNew(ctx, req)
		switch {
		case err == nil:
			s.recorder.RecordOutcome(s.name, sub.Name, in.EventType, pubsub.OutcomeStarted)
			hlog.Info("started subscriber instance")
		case errors.Is(err, pubsub.ErrAlreadyStarted):
			s.recorder.RecordOutcome(s.name, sub.Name, in.EventType, pubsub.OutcomeDuplicate)
			hlog.Info("subscriber instance already started")
		default:
			s.recorder.RecordOutcome(s.name, sub.Name, in.EventType, pubsub.OutcomeFailed)
			return fmt.Errorf("failed to start %s for dispatch %s: %w", req.InstanceID, in.ID, err)
		}
	}

	return nil
}
