package pubsub

// Outcome is the result of delivering one dispatch to one handler.
type Outcome string

const (
	// OutcomeStarted means a new instance was created.
	OutcomeStarted Outcome = "started"
	// OutcomeDuplicate means the instance already existed for this dispatch.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeDelivered means a signal-or-start call succeeded.
	OutcomeDelivered Outcome = "delivered"
	// OutcomeFailed means the delivery call returned an error.
	OutcomeFailed Outcome = "failed"
	// OutcomeDropped means a resolved type name had no local handler.
	OutcomeDropped Outcome = "dropped"
)

// OutcomeRecorder receives per-handler delivery outcomes.
type OutcomeRecorder interface {
	RecordOutcome(strategy, handler, eventType string, outcome Outcome)
}

// NopRecorder discards outcomes.
type NopRecorder struct{}

func (NopRecorder) RecordOutcome(string, string, string, Outcome) {}
