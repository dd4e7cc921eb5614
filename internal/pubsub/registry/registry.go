// Package registry maps event types to the handlers subscribed to them.
// A Registry is built once by a Builder and never changes; rebuilding
// produces a new snapshot that a Holder swaps in atomically.
package registry

import (
	"context"
	"fmt"
	"slices"

	"pubsub/internal/pubsub"
)

// Builder accumulates registrations. It is not safe for concurrent use.
type Builder struct {
	subscribers map[string][]pubsub.HandlerDescriptor
	byName      map[string]pubsub.HandlerDescriptor
	order       []string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		subscribers: make(map[string][]pubsub.HandlerDescriptor),
		byName:      make(map[string]pubsub.HandlerDescriptor),
	}
}

// Register subscribes d to eventType. Registering the same descriptor again
// is a no-op. A different descriptor reusing a registered name is rejected
// with ErrHandlerConflict, since the name alone addresses instances.
func (b *Builder) Register(eventType string, d pubsub.HandlerDescriptor) error {
	if eventType == "" || d.Name == "" {
		return fmt.Errorf("failed to register handler %q: event type and name are required", d.Name)
	}
	d.EventType = eventType

	if existing, ok := b.byName[d.Name]; ok {
		if existing.Same(d) {
			return nil
		}
		return fmt.Errorf("failed to register handler %q for %q: %w (already registered for %q on queue %q)",
			d.Name, eventType, pubsub.ErrHandlerConflict, existing.EventType, existing.Queue)
	}

	b.byName[d.Name] = d
	b.order = append(b.order, d.Name)
	b.subscribers[eventType] = append(b.subscribers[eventType], d)

	return nil
}

// Build returns an immutable snapshot of everything registered so far.
// The builder may keep being used; later registrations do not affect the snapshot.
func (b *Builder) Build() *Registry {
	r := &Registry{
		subscribers: make(map[string][]pubsub.HandlerDescriptor, len(b.subscribers)),
		byName:      make(map[string]pubsub.HandlerDescriptor, len(b.byName)),
		all:         make([]pubsub.HandlerDescriptor, 0, len(b.order)),
	}
	for eventType, subs := range b.subscribers {
		r.subscribers[eventType] = slices.Clone(subs)
	}
	for _, name := range b.order {
		d := b.byName[name]
		r.byName[name] = d
		r.all = append(r.all, d)
	}

	return r
}

// Registry is a read-only event type to subscribers table. All methods are
// safe for concurrent use without locking.
type Registry struct {
	subscribers map[string][]pubsub.HandlerDescriptor
	byName      map[string]pubsub.HandlerDescriptor
	all         []pubsub.HandlerDescriptor
}

// SubscribersOf returns the handlers subscribed to eventType in registration
// order. The result is empty, not nil-with-error, when there are none.
func (r *Registry) SubscribersOf(eventType string) []pubsub.HandlerDescriptor {
	return slices.Clone(r.subscribers[eventType])
}

// AllHandlers returns every registered handler in registration order.
func (r *Registry) AllHandlers() []pubsub.HandlerDescriptor {
	return slices.Clone(r.all)
}

// Lookup finds a handler by its type name.
func (r *Registry) Lookup(name string) (pubsub.HandlerDescriptor, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// EventTypes returns the subscribed event types, sorted.
func (r *Registry) EventTypes() []string {
	types := make([]string, 0, len(r.subscribers))
	for t := range r.subscribers {
		types = append(types, t)
	}
	slices.Sort(types)

	return types
}

// Resolve implements pubsub.Resolver over the static table.
func (r *Registry) Resolve(_ context.Context, eventType string) ([]pubsub.HandlerDescriptor, error) {
	return r.SubscribersOf(eventType), nil
}
