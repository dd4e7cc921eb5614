package dispatcher_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/dispatcher"
	"pubsub/internal/pubsub/metrics"
	"pubsub/internal/pubsub/pubsubtest"
	"pubsub/internal/pubsub/registry"
	"pubsub/internal/pubsub/strategy"
	"pubsub/internal/pubsub/tracing"
)

func holderWith(t *testing.T, handlers ...pubsub.HandlerDescriptor) *registry.Holder {
	t.Helper()

	b := registry.NewBuilder()
	for _, h := range handlers {
		require.NoError(t, b.Register(h.EventType, h))
	}

	holder := registry.NewHolder()
	holder.Publish(b.Build())
	return holder
}

func newDispatcher(t *testing.T, rt pubsub.Runtime, holder *registry.Holder, name string, logger *zap.Logger) *dispatcher.Dispatcher {
	t.Helper()

	bindings, err := dispatcher.NewBindings(rt, holder, pubsub.NopRecorder{}, logger)
	require.NoError(t, err)

	b, err := dispatcher.Find(bindings, name)
	require.NoError(t, err)

	d, err := dispatcher.NewDispatcher(b, holder, logger)
	require.NoError(t, err)
	return d
}

func TestDispatchOrderCreatedSpawnsBillingAndShipping(t *testing.T) {
	rt := &pubsubtest.Runtime{}
	payload := &pubsub.EventPayload{Data: map[string]any{"amount": 10}}

	for _, name := range []string{"Billing", "Shipping"} {
		rt.On("StartNew", mock.Anything, pubsub.StartRequest{
			InstanceID:  name + "-order.created-e1",
			HandlerType: name,
			Arg:         pubsub.ConsumerInput{Payload: payload},
			EventType:   "order.created",
		}).Return(nil).Once()
	}

	holder := holderWith(t,
		pubsubtest.Handler("Billing", "order.created"),
		pubsubtest.Handler("Shipping", "order.created"),
	)
	d := newDispatcher(t, rt, holder, strategy.SpawnName, zap.NewNop())

	err := d.Dispatch(context.Background(), pubsub.EventDispatchInput{
		ID:        "e1",
		EventType: "order.created",
		Payload:   payload,
	})
	require.NoError(t, err)

	rt.AssertExpectations(t)
	rt.AssertNumberOfCalls(t, "StartNew", 2)
}

func TestDispatchWithNoSubscribersIsANoop(t *testing.T) {
	for _, name := range []string{strategy.SpawnName, strategy.CoalesceName, strategy.QueryName} {
		t.Run(name, func(t *testing.T) {
			rt := &pubsubtest.Runtime{}
			rt.On("QueryRunning", mock.Anything, pubsub.AttributeSubscribedOn, "nobody.listens").
				Return([]pubsub.Instance{}, nil).Maybe()

			core, logs := observer.New(zapcore.InfoLevel)
			holder := holderWith(t, pubsubtest.Handler("Billing", "order.created"))
			d := newDispatcher(t, rt, holder, name, zap.New(core))

			err := d.Dispatch(context.Background(), pubsub.EventDispatchInput{ID: "e1", EventType: "nobody.listens"})
			require.NoError(t, err)

			rt.AssertNotCalled(t, "StartNew", mock.Anything, mock.Anything)
			rt.AssertNotCalled(t, "StartOrSignal", mock.Anything, mock.Anything)
			assert.Equal(t, 1, logs.FilterMessage("no subscribers found for event type").Len())
		})
	}
}

func TestDispatchSameIDTwiceIsIdempotent(t *testing.T) {
	rt := &pubsubtest.Runtime{}
	rt.On("StartNew", mock.Anything, mock.Anything).Return(nil).Once()
	rt.On("StartNew", mock.Anything, mock.Anything).Return(pubsub.ErrAlreadyStarted).Once()

	holder := holderWith(t, pubsubtest.Handler("Billing", "order.created"))
	d := newDispatcher(t, rt, holder, strategy.SpawnName, zap.NewNop())

	in := pubsub.EventDispatchInput{ID: "e1", EventType: "order.created"}
	require.NoError(t, d.Dispatch(context.Background(), in))
	require.NoError(t, d.Dispatch(context.Background(), in))

	rt.AssertExpectations(t)
	ids := map[string]struct{}{}
	for _, c := range rt.Calls {
		ids[c.Arguments.Get(1).(pubsub.StartRequest).InstanceID] = struct{}{}
	}
	assert.Len(t, ids, 1)
}

func TestDispatchCoalescesIntoOneInstance(t *testing.T) {
	rt := &pubsubtest.Runtime{}
	rt.On("StartOrSignal", mock.Anything, mock.Anything).Return(nil)

	holder := holderWith(t, pubsubtest.Handler("Billing", "order.created"))
	d := newDispatcher(t, rt, holder, strategy.CoalesceName, zap.NewNop())

	require.NoError(t, d.Dispatch(context.Background(), pubsub.EventDispatchInput{ID: "e1", EventType: "order.created"}))
	require.NoError(t, d.Dispatch(context.Background(), pubsub.EventDispatchInput{ID: "e2", EventType: "order.created"}))

	require.Len(t, rt.Calls, 2)
	for _, c := range rt.Calls {
		assert.Equal(t, "Billing-order.created", c.Arguments.Get(1).(pubsub.SignalStartRequest).InstanceID)
	}
}

func TestDispatchQueryStartsOnlyKnownTypes(t *testing.T) {
	rt := &pubsubtest.Runtime{}
	rt.On("QueryRunning", mock.Anything, pubsub.AttributeSubscribedOn, "order.created").
		Return([]pubsub.Instance{{ID: "x1", Type: "HandlerX"}, {ID: "u1", Type: "Unknown"}}, nil)
	rt.On("StartNew", mock.Anything, mock.MatchedBy(func(r pubsub.StartRequest) bool {
		return r.InstanceID == "HandlerX-order.created-e1" && r.HandlerType == "HandlerX"
	})).Return(nil).Once()

	holder := holderWith(t, pubsubtest.Handler("HandlerX", "order.created"))
	d := newDispatcher(t, rt, holder, strategy.QueryName, zap.NewNop())

	require.NoError(t, d.Dispatch(context.Background(), pubsub.EventDispatchInput{ID: "e1", EventType: "order.created"}))

	rt.AssertExpectations(t)
	rt.AssertNumberOfCalls(t, "StartNew", 1)
}

func TestDispatchWaitsForDiscovery(t *testing.T) {
	rt := &pubsubtest.Runtime{}
	holder := registry.NewHolder()

	bindings, err := dispatcher.NewBindings(rt, holder, pubsub.NopRecorder{}, zap.NewNop())
	require.NoError(t, err)
	d, err := dispatcher.NewDispatcher(bindings[0], holder, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err = d.Dispatch(ctx, pubsub.EventDispatchInput{ID: "e1", EventType: "order.created"})
	assert.ErrorIs(t, err, pubsub.ErrRegistryNotReady)
	rt.AssertNotCalled(t, "StartNew", mock.Anything, mock.Anything)
}

func TestDispatchPropagatesStartFailure(t *testing.T) {
	rt := &pubsubtest.Runtime{}
	boom := errors.New("connection refused")
	rt.On("StartNew", mock.Anything, mock.Anything).Return(boom)

	holder := holderWith(t, pubsubtest.Handler("Billing", "order.created"))
	d := newDispatcher(t, rt, holder, strategy.SpawnName, zap.NewNop())

	err := d.Dispatch(context.Background(), pubsub.EventDispatchInput{ID: "e1", EventType: "order.created"})
	assert.ErrorIs(t, err, boom)
}

func TestActivityMarksInvalidInputNonRetryable(t *testing.T) {
	holder := holderWith(t)
	d := newDispatcher(t, &pubsubtest.Runtime{}, holder, strategy.SpawnName, zap.NewNop())
	act := dispatcher.Activity(d)

	for _, in := range []pubsub.EventDispatchInput{
		{ID: "e1"},
		{EventType: "order.created"},
	} {
		err := act(context.Background(), in)
		require.Error(t, err)

		var appErr *temporal.ApplicationError
		require.True(t, errors.As(err, &appErr))
		assert.True(t, appErr.NonRetryable())
		assert.Equal(t, dispatcher.ErrTypeInvalidInput, appErr.Type())
	}

	assert.NoError(t, act(context.Background(), pubsub.EventDispatchInput{ID: "e1", EventType: "order.created"}))
}

func TestActivityKeepsRuntimeErrorsRetryable(t *testing.T) {
	rt := &pubsubtest.Runtime{}
	rt.On("StartNew", mock.Anything, mock.Anything).Return(errors.New("unavailable"))

	holder := holderWith(t, pubsubtest.Handler("Billing", "order.created"))
	act := dispatcher.Activity(newDispatcher(t, rt, holder, strategy.SpawnName, zap.NewNop()))

	err := act(context.Background(), pubsub.EventDispatchInput{ID: "e1", EventType: "order.created"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	assert.False(t, errors.As(err, &appErr))
}

func TestFindUnknownBinding(t *testing.T) {
	bindings, err := dispatcher.NewBindings(&pubsubtest.Runtime{}, registry.NewHolder(), pubsub.NopRecorder{}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, bindings, 3)

	_, err = dispatcher.Find(bindings, "broadcast")
	assert.ErrorIs(t, err, pubsub.ErrUnknownProducer)
}

func TestInstrumentedDispatcherRecordsMetrics(t *testing.T) {
	rt := &pubsubtest.Runtime{}
	rt.On("StartNew", mock.Anything, mock.Anything).Return(nil)

	reg := metrics.NewRegistry()
	holder := holderWith(t, pubsubtest.Handler("Billing", "order.created"))

	bindings, err := dispatcher.NewBindings(rt, holder, reg, zap.NewNop())
	require.NoError(t, err)
	b := dispatcher.Instrument(bindings[0], reg, tracing.Noop())

	inner, err := dispatcher.NewDispatcher(b, holder, zap.NewNop())
	require.NoError(t, err)
	d := dispatcher.Wrap(inner, b.Name, reg, tracing.Noop())

	require.NoError(t, d.Dispatch(context.Background(), pubsub.EventDispatchInput{ID: "e1", EventType: "order.created"}))
	require.NoError(t, d.Dispatch(context.Background(), pubsub.EventDispatchInput{ID: "e2", EventType: "nobody.listens"}))

	expected := `
# HELP pubsub_dispatch_total Total number of dispatch operations
# TYPE pubsub_dispatch_total counter
pubsub_dispatch_total{binding="spawn",status="success"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(expected), "pubsub_dispatch_total"))

	expected = `
# HELP pubsub_resolve_total Total number of subscriber resolutions
# TYPE pubsub_resolve_total counter
pubsub_resolve_total{binding="spawn",status="empty"} 1
pubsub_resolve_total{binding="spawn",status="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(expected), "pubsub_resolve_total"))
}
