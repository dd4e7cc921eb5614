// Package pubsubtest provides test doubles for the pubsub interfaces.
package pubsubtest

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"pubsub/internal/pubsub"
)

// Runtime is a testify mock of pubsub.Runtime.
type Runtime struct {
	mock.Mock
}

var _ pubsub.Runtime = (*Runtime)(nil)

func (r *Runtime) StartNew(ctx context.Context, req pubsub.StartRequest) error {
	args := r.Called(ctx, req)
	return args.Error(0)
}

func (r *Runtime) StartOrSignal(ctx context.Context, req pubsub.SignalStartRequest) error {
	args := r.Called(ctx, req)
	return args.Error(0)
}

func (r *Runtime) QueryRunning(ctx context.Context, attribute, value string) ([]pubsub.Instance, error) {
	args := r.Called(ctx, attribute, value)
	instances, _ := args.Get(0).([]pubsub.Instance)
	return instances, args.Error(1)
}

// Recorder collects outcomes in memory.
type Recorder struct {
	mu       sync.Mutex
	Outcomes []RecordedOutcome
}

type RecordedOutcome struct {
	Strategy  string
	Handler   string
	EventType string
	Outcome   pubsub.Outcome
}

func (r *Recorder) RecordOutcome(strategy, handler, eventType string, outcome pubsub.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Outcomes = append(r.Outcomes, RecordedOutcome{strategy, handler, eventType, outcome})
}

// Count returns how many outcomes of the given kind were recorded.
func (r *Recorder) Count(outcome pubsub.Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, o := range r.Outcomes {
		if o.Outcome == outcome {
			n++
		}
	}
	return n
}

// Handler returns a descriptor with no workflow function attached.
func Handler(name, eventType string) pubsub.HandlerDescriptor {
	return pubsub.HandlerDescriptor{Name: name, EventType: eventType}
}
