package pubsub

// ConsumerInput wraps an event payload for delivery to a subscriber instance,
// either as its initial argument or as a process_event signal.
type ConsumerInput struct {
	Payload *EventPayload `json:"payload,omitempty"`
}

// NewConsumerInput builds the subscriber argument for a dispatch.
func NewConsumerInput(in EventDispatchInput) ConsumerInput {
	return ConsumerInput{Payload: in.Payload}
}
