package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"pubsub/internal/pubsub"
)

// Holder publishes registry snapshots to dispatchers. Publish is the
// "discovery complete" barrier: Wait blocks until the first snapshot is
// published, and later publishes swap the snapshot atomically.
type Holder struct {
	current atomic.Pointer[Registry]
	ready   chan struct{}
	once    sync.Once
}

// NewHolder creates a holder with no snapshot.
func NewHolder() *Holder {
	return &Holder{ready: make(chan struct{})}
}

// Publish makes r the current snapshot and releases waiters.
func (h *Holder) Publish(r *Registry) {
	h.current.Store(r)
	h.once.Do(func() { close(h.ready) })
}

// Load returns the current snapshot, or nil before the first Publish.
func (h *Holder) Load() *Registry {
	return h.current.Load()
}

// Wait blocks until a snapshot has been published or ctx is done.
func (h *Holder) Wait(ctx context.Context) (*Registry, error) {
	select {
	case <-h.ready:
		return h.current.Load(), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", pubsub.ErrRegistryNotReady, ctx.Err())
	}
}

// Resolve implements pubsub.Resolver against the current snapshot, waiting
// for discovery to complete first.
func (h *Holder) Resolve(ctx context.Context, eventType string) ([]pubsub.HandlerDescriptor, error) {
	r, err := h.Wait(ctx)
	if err != nil {
		return nil, err
	}

	return r.SubscribersOf(eventType), nil
}

// Lookup finds a handler by name in the current snapshot. It reports false
// before the first Publish.
func (h *Holder) Lookup(name string) (pubsub.HandlerDescriptor, bool) {
	r := h.current.Load()
	if r == nil {
		return pubsub.HandlerDescriptor{}, false
	}

	return r.Lookup(name)
}
