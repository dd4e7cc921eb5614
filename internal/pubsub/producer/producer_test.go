package producer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"
	"go.uber.org/zap"

	"pubsub/internal/pubsub"
	"pubsub/internal/pubsub/dispatcher"
	"pubsub/internal/pubsub/metrics"
	"pubsub/internal/pubsub/producer"
	"pubsub/internal/pubsub/tracing"
)

func TestInstanceID(t *testing.T) {
	in := pubsub.EventDispatchInput{ID: "e1", EventType: "order.created"}
	assert.Equal(t, "producer-order.created-e1", producer.InstanceID(in))
	assert.Equal(t, producer.InstanceID(in), producer.InstanceID(in))
}

func newClient(t *testing.T, c client.Client, wait bool) *producer.Client {
	t.Helper()

	p, err := producer.NewClient(c, dispatcher.SpawnProducer, "pubsub-task-queue", wait, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestClientStartsProducerWorkflow(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	run.On("GetRunID").Return("run-1")

	in := pubsub.EventDispatchInput{ID: "e1", EventType: "order.created"}
	c.On("ExecuteWorkflow", mock.Anything, mock.MatchedBy(func(o client.StartWorkflowOptions) bool {
		return o.ID == "producer-order.created-e1" &&
			o.TaskQueue == "pubsub-task-queue" &&
			o.WorkflowIDReusePolicy == enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE
	}), dispatcher.SpawnProducer, in).Return(run, nil).Once()

	require.NoError(t, newClient(t, c, false).Publish(context.Background(), in))

	c.AssertExpectations(t)
	run.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestClientAssignsDispatchID(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	run.On("GetRunID").Return("run-1")

	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, dispatcher.SpawnProducer,
		mock.MatchedBy(func(in pubsub.EventDispatchInput) bool { return in.ID != "" })).Return(run, nil).Once()

	require.NoError(t, newClient(t, c, false).Publish(context.Background(), pubsub.EventDispatchInput{EventType: "order.created"}))
	c.AssertExpectations(t)
}

func TestClientTreatsRepublishAsSuccess(t *testing.T) {
	c := &mocks.Client{}
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", "run-1"))

	err := newClient(t, c, false).Publish(context.Background(), pubsub.EventDispatchInput{ID: "e1", EventType: "order.created"})
	assert.NoError(t, err)
}

func TestClientRejectsInvalidInput(t *testing.T) {
	c := &mocks.Client{}

	err := newClient(t, c, false).Publish(context.Background(), pubsub.EventDispatchInput{ID: "e1"})
	assert.ErrorIs(t, err, pubsub.ErrInvalidInput)
	c.AssertNotCalled(t, "ExecuteWorkflow")
}

func TestClientWaitsForDispatch(t *testing.T) {
	c := &mocks.Client{}
	run := &mocks.WorkflowRun{}
	boom := errors.New("activity failed")
	run.On("GetRunID").Return("run-1")
	run.On("Get", mock.Anything, nil).Return(boom).Once()
	c.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(run, nil)

	err := newClient(t, c, true).Publish(context.Background(), pubsub.EventDispatchInput{ID: "e1", EventType: "order.created"})
	assert.ErrorIs(t, err, boom)
	run.AssertExpectations(t)
}

type stubProducer struct{ err error }

func (s stubProducer) Publish(context.Context, pubsub.EventDispatchInput) error { return s.err }

func TestWrappedProducerRecordsMetrics(t *testing.T) {
	reg := metrics.NewRegistry()

	ok := producer.Wrap(stubProducer{}, dispatcher.SpawnProducer, reg, tracing.Noop())
	failing := producer.Wrap(stubProducer{err: errors.New("down")}, dispatcher.CoalesceProducer, reg, tracing.Noop())

	require.NoError(t, ok.Publish(context.Background(), pubsub.EventDispatchInput{EventType: "a"}))
	require.Error(t, failing.Publish(context.Background(), pubsub.EventDispatchInput{EventType: "a"}))

	expected := `
# HELP pubsub_producer_publish_total Total number of publish operations
# TYPE pubsub_producer_publish_total counter
pubsub_producer_publish_total{producer="Producer",status="success"} 1
pubsub_producer_publish_total{producer="SignalProducer",status="error"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg.Gatherer(), strings.NewReader(expected), "pubsub_producer_publish_total"))
}
