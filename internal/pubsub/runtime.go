package pubsub

import "context"

// Runtime defines the calls the dispatch layer makes against the durable
// execution service. Implementations are shared across dispatches.
type Runtime interface {
	// StartNew creates a new instance with a caller chosen id.
	// Returns an error wrapping ErrAlreadyStarted if the id is already taken.
	StartNew(ctx context.Context, req StartRequest) error

	// StartOrSignal delivers req.SignalArg as a signal to the instance with
	// req.InstanceID, creating the instance first if it does not exist.
	StartOrSignal(ctx context.Context, req SignalStartRequest) error

	// QueryRunning lists running instances whose indexed attribute equals value.
	QueryRunning(ctx context.Context, attribute, value string) ([]Instance, error)
}

// StartRequest describes an instance to create.
type StartRequest struct {
	InstanceID string
	// HandlerType is the registered type name of the instance.
	HandlerType string
	// Queue is the target queue. Empty means the runtime default.
	Queue string
	Arg   ConsumerInput
	// EventType tags the instance with AttributeSubscribedOn.
	EventType string
}

// SignalStartRequest describes a signal-or-start delivery.
type SignalStartRequest struct {
	InstanceID  string
	HandlerType string
	Queue       string
	SignalName  string
	SignalArg   ConsumerInput
	EventType   string
}

// Instance is a running instance reported by QueryRunning.
type Instance struct {
	ID   string
	Type string
}
