package pubsub

// HandlerDescriptor identifies a subscriber handler type. Descriptors are
// created during discovery and never change afterwards.
type HandlerDescriptor struct {
	// Name is the handler's durable type name and the prefix of its instance ids.
	Name string
	// EventType is the event the handler subscribes to.
	EventType string
	// Queue routes the handler's instances to a specific worker pool.
	// Empty means the runtime's default queue.
	Queue string
	// Workflow is the handler's workflow function, registered by workers
	// polling Queue. Dispatch never calls it directly.
	Workflow any
}

// Same reports whether d and o describe the same handler.
func (d HandlerDescriptor) Same(o HandlerDescriptor) bool {
	return d.Name == o.Name && d.EventType == o.EventType && d.Queue == o.Queue
}
