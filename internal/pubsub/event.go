package pubsub

import (
	"fmt"

	"github.com/google/uuid"

	"pubsub/internal/validator"
)

// EventPayload is the opaque body of an event. It travels unchanged from
// the producer to every subscriber instance.
type EventPayload struct {
	Data     map[string]any `json:"data"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// EventDispatchInput is a single occurrence of an event handed to a Dispatcher.
// EventType is the only key used for subscriber resolution; ID is the only key
// used for dispatch identity by the spawning strategies.
type EventDispatchInput struct {
	// ID identifies this dispatch occurrence. Generated when empty.
	ID string `json:"id"`
	// EventType is the subscription key (e.g., "order.created").
	EventType string `json:"event_type" validate:"required"`
	// Payload is optional.
	Payload *EventPayload `json:"payload,omitempty"`
}

// Normalize fills in a dispatch id when the producer did not supply one.
func (in *EventDispatchInput) Normalize() {
	if in.ID == "" {
		in.ID = NewDispatchID()
	}
}

// Validate checks the input against its struct tags. Errors wrap ErrInvalidInput.
func (in EventDispatchInput) Validate() error {
	if err := validator.Struct(in); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	return nil
}

// NewDispatchID returns a fresh dispatch id.
func NewDispatchID() string {
	return uuid.NewString()
}
