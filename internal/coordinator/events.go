package coordinator

// Event names published by the coordinator.
const (
	EventInferStart     = "infer_start"
	EventRoute          = "route"
	EventPartitionDone  = "partition_done"
	EventPartitionRetry = "partition_retry"
	EventInferDone      = "infer_done"
	EventInferCancelled = "infer_cancelled"
	EventInferError     = "infer_error"
)

// Event represents a request lifecycle event.
// Minimal and stable: name + request ID and optional fields via key/values.
type Event struct {
	Name      string
	RequestID string
	Fields    map[string]any
}

// EventPublisher receives events from the coordinator. Implementations should be
// lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

func (c *Coordinator) publish(name, id string, fields map[string]any) {
	c.pub.Publish(Event{Name: name, RequestID: id, Fields: fields})
}
