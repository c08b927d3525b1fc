package scene

// EventType defines the type of event
type EventType string

const (
	EventEntityDefined EventType = "entity_defined"
	EventEntityUpdated EventType = "entity_updated"
	EventEdgeDefined   EventType = "edge_defined"
	EventEdgeUpdated   EventType = "edge_updated"
	EventEdgeBroken    EventType = "edge_broken"
	EventRescaled      EventType = "rescaled"
	EventCleared       EventType = "cleared"
)

// Event represents a change to the scene
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload,omitempty"`
}

// EventBus fans events out to subscribers
type EventBus struct {
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.subscribers = append(eb.subscribers, ch)
}

// Publish sends an event to all subscribers without blocking. A subscriber
// whose buffer is full misses the event.
func (eb *EventBus) Publish(event Event) {
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
