package registry_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/registry"
)

func loader(handlers ...pubsub.HandlerDescriptor) registry.Loader {
	return func() ([]pubsub.HandlerDescriptor, error) { return handlers, nil }
}

func TestDiscoverRegistersNestedPackages(t *testing.T) {
	catalog := registry.Catalog{
		"consumers":           loader(handler("ConsumerA", "event.a"), handler("ConsumerC", "event.b")),
		"consumers/secondary": loader(pubsub.HandlerDescriptor{Name: "ConsumerS", EventType: "event.a", Queue: "secondary"}),
		"producers":           loader(pubsub.HandlerDescriptor{Name: "Producer"}),
	}

	r := catalog.Discover(zap.NewNop(), "consumers")

	assert.Len(t, r.SubscribersOf("event.a"), 2)
	assert.Len(t, r.SubscribersOf("event.b"), 1)
	_, ok := r.Lookup("Producer")
	assert.False(t, ok)
}

func TestDiscoverSkipsFailingPackages(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	catalog := registry.Catalog{
		"a/broken": func() ([]pubsub.HandlerDescriptor, error) { return nil, errors.New("boom") },
		"a/panics": func() ([]pubsub.HandlerDescriptor, error) { panic("bad init") },
		"a/nil":    nil,
		"a/good":   loader(handler("Good", "event.a")),
	}

	r := catalog.Discover(zap.New(core), "a", "missing")

	subs := r.SubscribersOf("event.a")
	require.Len(t, subs, 1)
	assert.Equal(t, "Good", subs[0].Name)

	assert.Equal(t, 3, logs.FilterMessage("skipping handler package").Len())
	assert.Equal(t, 1, logs.FilterMessage("no handler packages found").Len())
}

func TestDiscoverRegistersEachHandlerOnce(t *testing.T) {
	shared := handler("Shared", "event.a")
	catalog := registry.Catalog{
		"x":   loader(shared),
		"x/y": loader(shared, shared),
	}

	r := catalog.Discover(zap.NewNop(), "x", "x/y", "")

	assert.Len(t, r.SubscribersOf("event.a"), 1)
	assert.Len(t, r.AllHandlers(), 1)
}

func TestDiscoverSkipsConflictingHandler(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	catalog := registry.Catalog{
		"a": loader(handler("ConsumerB", "event.a")),
		"b": loader(pubsub.HandlerDescriptor{Name: "ConsumerB", EventType: "event.a", Queue: "secondary"}),
	}

	r := catalog.Discover(zap.New(core), "a", "b")

	subs := r.SubscribersOf("event.a")
	require.Len(t, subs, 1)
	assert.Empty(t, subs[0].Queue)
	assert.Equal(t, 1, logs.FilterMessage("skipping handler").Len())
}
