package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pubsub/internal/pubsub"
)

func TestRecordOutcome(t *testing.T) {
	r := NewRegistry()

	r.RecordOutcome("spawn", "Billing", "order.created", pubsub.OutcomeStarted)
	r.RecordOutcome("spawn", "Billing", "order.created", pubsub.OutcomeDuplicate)
	r.RecordOutcome("coalesce", "Billing", "order.created", pubsub.OutcomeFailed)
	r.RecordOutcome("coalesce", "Billing", "order.created", pubsub.OutcomeFailed)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.deliveryTotal.WithLabelValues("spawn", "Billing", "order.created", "started")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.deliveryTotal.WithLabelValues("spawn", "Billing", "order.created", "duplicate")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.deliveryTotal.WithLabelValues("coalesce", "Billing", "order.created", "failed")))
}

func TestRecordResolve(t *testing.T) {
	r := NewRegistry()

	r.RecordResolve("spawn", 0, nil)
	r.RecordResolve("spawn", 2, nil)
	r.RecordResolve("query", 0, errors.New("unavailable"))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.resolveTotal.WithLabelValues("spawn", "empty")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.resolveTotal.WithLabelValues("spawn", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.resolveTotal.WithLabelValues("query", "error")))
}

func TestRecordDispatchAndRuntime(t *testing.T) {
	r := NewRegistry()

	r.RecordDispatch("spawn", 10*time.Millisecond, nil)
	r.RecordDispatch("spawn", 10*time.Millisecond, errors.New("boom"))
	r.RecordRuntimeOperation("start_new", time.Millisecond, nil)
	r.RecordProducerPublish("spawn", time.Millisecond, nil)
	r.SetRegistrySize(4, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.dispatchTotal.WithLabelValues("spawn", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.dispatchTotal.WithLabelValues("spawn", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runtimeOperationTotal.WithLabelValues("start_new", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.publishTotal.WithLabelValues("spawn", "success")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.registryHandlers))

	expected := `
# HELP pubsub_registry_event_types Number of subscribed event types in the current registry snapshot
# TYPE pubsub_registry_event_types gauge
pubsub_registry_event_types 2
`
	require.NoError(t, testutil.GatherAndCompare(r.Gatherer(), strings.NewReader(expected), "pubsub_registry_event_types"))
}
