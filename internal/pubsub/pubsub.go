// Package pubsub defines the types and contracts of the event dispatch layer:
// producers raise events, resolvers find the handlers subscribed to them and
// strategies start or signal the handlers' durable instances.
package pubsub

import (
	"errors"
	"fmt"
)

const (
	// SignalProcessEvent is the signal delivering an event to a running
	// coalesced instance.
	SignalProcessEvent = "process_event"

	// AttributeSubscribedOn is the indexed attribute every subscriber
	// instance is tagged with at creation. Its value is the event type.
	AttributeSubscribedOn = "subscribed_on"
)

var (
	ErrAlreadyStarted   = errors.New("pubsub: instance already started")
	ErrInvalidInput     = errors.New("pubsub: invalid dispatch input")
	ErrHandlerConflict  = errors.New("pubsub: conflicting handler registration")
	ErrRegistryNotReady = errors.New("pubsub: registry not ready")
	ErrUnknownProducer  = errors.New("pubsub: unknown producer binding")
)

// SpawnInstanceID is the instance id of a handler started for one dispatch.
// Redelivery of the same dispatch yields the same id.
func SpawnInstanceID(handler, eventType, dispatchID string) string {
	return fmt.Sprintf("%s-%s-%s", handler, eventType, dispatchID)
}

// CoalesceInstanceID is the instance id shared by every dispatch of eventType
// to handler.
func CoalesceInstanceID(handler, eventType string) string {
	return fmt.Sprintf("%s-%s", handler, eventType)
}
