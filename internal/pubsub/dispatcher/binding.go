package dispatcher

import (
	"fmt"

	"go.uber.org/zap"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/registry"
	"pubsub/internal/pubsub/strategy"
)

// Binding ties a producer variant to exactly one resolver and strategy.
type Binding struct {
	// Name labels the binding in logs and metrics.
	Name string
	// Activity is the registered name of the binding's unit of work.
	Activity string
	// Producer is the registered name of the binding's producer workflow.
	Producer string

	Resolver pubsub.Resolver
	Strategy pubsub.Strategy
}

// Registered names of the producer workflows and their dispatch activities.
const (
	SpawnProducer    = "Producer"
	SpawnActivity    = "SpawnDispatch"
	CoalesceProducer = "SignalProducer"
	CoalesceActivity = "CoalesceDispatch"
	QueryProducer    = "SearchProducer"
	QueryActivity    = "QueryDispatch"
)

// NewBindings builds the spawn, coalesce and query bindings. The first two
// resolve from the registry in holder; the query binding resolves from
// running instances and maps type names back through holder.
func NewBindings(runtime pubsub.Runtime, holder *registry.Holder, recorder pubsub.OutcomeRecorder, logger *zap.Logger) ([]Binding, error) {
	spawn, err := strategy.NewSpawn(runtime, recorder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create spawn strategy: %w", err)
	}

	coalesce, err := strategy.NewCoalesce(runtime, recorder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create coalesce strategy: %w", err)
	}

	query, err := strategy.NewQueryResolver(runtime, holder, recorder, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create query resolver: %w", err)
	}

	return []Binding{
		{
			Name:     strategy.SpawnName,
			Activity: SpawnActivity,
			Producer: SpawnProducer,
			Resolver: holder,
			Strategy: spawn,
		},
		{
			Name:     strategy.CoalesceName,
			Activity: CoalesceActivity,
			Producer: CoalesceProducer,
			Resolver: holder,
			Strategy: coalesce,
		},
		{
			Name:     strategy.QueryName,
			Activity: QueryActivity,
			Producer: QueryProducer,
			Resolver: query,
			Strategy: spawn.Named(strategy.QueryName),
		},
	}, nil
}

// Find returns the binding named name.
func Find(bindings []Binding, name string) (Binding, error) {
	for _, b := range bindings {
		if b.Name == name {
			return b, nil
		}
	}

	return Binding{}, fmt.Errorf("%w: %q", pubsub.ErrUnknownProducer, name)
}
