package strategy

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"pubsub/internal/pubsub"
	"pubsub/internal/validator"
)

// Handlers maps handler type names back to local descriptors.
type Handlers interface {
	Lookup(name string) (pubsub.HandlerDescriptor, bool)
}

// QueryResolver finds subscribers from the runtime's index of running
// instances tagged with subscribed_on instead of the static registry.
// Paired with a Spawn strategy it forms the query dispatch binding.
type QueryResolver struct {
	runtime  pubsub.Runtime
	handlers Handlers
	recorder pubsub.OutcomeRecorder
	logger   *zap.Logger
}

// NewQueryResolver creates a resolver backed by runtime and handlers.
func NewQueryResolver(runtime pubsub.Runtime, handlers Handlers, recorder pubsub.OutcomeRecorder, logger *zap.Logger) (*QueryResolver, error) {
	q := QueryResolver{
		runtime:  runtime,
		handlers: handlers,
		recorder: recorder,
		logger:   logger,
	}

	if err := validator.Validate("query resolver", q.runtime, q.handlers, q.recorder, q.logger); err != nil {
		return nil, fmt.Errorf("failed to validate query resolver deps: %w", err)
	}

	return &q, nil
}

// Resolve returns the distinct handler types of running instances subscribed
// to eventType, sorted by name. Type names with no local handler are logged
// and dropped.
func (q *QueryResolver) Resolve(ctx context.Context, eventType string) ([]pubsub.HandlerDescriptor, error) {
	logger := q.logger.With(zap.String("strategy", QueryName), zap.String("event_type", eventType))

	instances, err := q.runtime.QueryRunning(ctx, pubsub.AttributeSubscribedOn, eventType)
	if err != nil {
		return nil, fmt.Errorf("failed to query instances subscribed to %s: %w", eventType, err)
	}

	seen := make(map[string]struct{}, len(instances))
	resolved := make([]pubsub.HandlerDescriptor, 0, len(instances))
	for _, inst := range instances {
		if inst.Type == "" {
			continue
		}
		if _, ok := seen[inst.Type]; ok {
			continue
		}
		seen[inst.Type] = struct{}{}

		d, ok := q.handlers.Lookup(inst.Type)
		if !ok {
			q.recorder.RecordOutcome(QueryName, inst.Type, eventType, pubsub.OutcomeDropped)
			logger.Warn("dropping unknown handler type", zap.String("handler", inst.Type), zap.String("instance_id", inst.ID))
			continue
		}
		resolved = append(resolved, d)
	}

	slices.SortFunc(resolved, func(a, b pubsub.HandlerDescriptor) int {
		return strings.Compare(a.Name, b.Name)
	})

	logger.Info("resolved subscribers from running instances",
		zap.Int("instances", len(instances)),
		zap.Int("handler_types", len(seen)),
		zap.Int("resolved", len(resolved)),
	)

	return resolved, nil
}
