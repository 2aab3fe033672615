package beacon

import (
	"time"

	"github.com/google/uuid"
)

// Event is a single analytics event.
//
// Events are immutable once captured: the pipeline takes ownership on
// Capture/Batch and the caller must not touch the event (or its Properties
// map) afterwards. Name and DistinctID identify the event and never change;
// hooks may add, remove, or rewrite properties before delivery.
type Event struct {
	// Name is the event name (e.g. "button_click"). Required: events with
	// an empty name are dropped by the worker with a diagnostic.
	Name string `json:"event"`

	// DistinctID identifies the actor the event belongs to.
	DistinctID string `json:"distinct_id"`

	// Properties carries arbitrary structured values keyed by name.
	Properties map[string]any `json:"properties,omitempty"`

	// Timestamp is when the event occurred. The zero value means "stamp at
	// capture time"; Capture and Batch fill it with time.Now().UTC().
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// NewEvent creates a new event with the given name and distinct ID.
func NewEvent(name, distinctID string) Event {
	return Event{
		Name:       name,
		DistinctID: distinctID,
		Properties: make(map[string]any),
	}
}

// NewAnonymousEvent creates a new event with a generated UUIDv7 distinct ID.
// UUIDv7 is time-ordered, so anonymous actors still sort by first-seen.
func NewAnonymousEvent(name string) Event {
	return NewEvent(name, uuid.Must(uuid.NewV7()).String())
}

// SetProperty sets a property on the event, allocating the map if needed.
func (e *Event) SetProperty(key string, value any) {
	if e.Properties == nil {
		e.Properties = make(map[string]any)
	}
	e.Properties[key] = value
}

// Clone returns a deep copy of the event (one level of property values;
// nested reference values are shared).
func (e Event) Clone() Event {
	eventCopy := e
	if e.Properties != nil {
		eventCopy.Properties = make(map[string]any, len(e.Properties))
		for k, v := range e.Properties {
			eventCopy.Properties[k] = v
		}
	}
	return eventCopy
}

// EventBuilder constructs events fluently. The zero value is usable; obtain
// one with NewEventBuilder.
type EventBuilder struct {
	name       string
	distinctID string
	properties map[string]any
	timestamp  time.Time
}

// NewEventBuilder returns an empty event builder.
func NewEventBuilder() *EventBuilder {
	return &EventBuilder{}
}

// Event sets the event name.
func (b *EventBuilder) Event(name string) *EventBuilder {
	b.name = name
	return b
}

// DistinctID sets the distinct ID. If never called, Build generates an
// anonymous UUIDv7 ID.
func (b *EventBuilder) DistinctID(id string) *EventBuilder {
	b.distinctID = id
	return b
}

// Property adds a single property.
func (b *EventBuilder) Property(key string, value any) *EventBuilder {
	if b.properties == nil {
		b.properties = make(map[string]any)
	}
	b.properties[key] = value
	return b
}

// Properties merges all entries of props into the event's properties.
func (b *EventBuilder) Properties(props map[string]any) *EventBuilder {
	for k, v := range props {
		b.Property(k, v)
	}
	return b
}

// Timestamp sets an explicit event time (stored as UTC).
func (b *EventBuilder) Timestamp(t time.Time) *EventBuilder {
	b.timestamp = t.UTC()
	return b
}

// Build finalizes the event. It returns ErrEmptyEventName if no event name
// was set. A missing distinct ID falls back to an anonymous UUIDv7.
func (b *EventBuilder) Build() (Event, error) {
	if b.name == "" {
		return Event{}, ErrEmptyEventName
	}

	distinctID := b.distinctID
	if distinctID == "" {
		distinctID = uuid.Must(uuid.NewV7()).String()
	}

	properties := b.properties
	if properties == nil {
		properties = make(map[string]any)
	}

	return Event{
		Name:       b.name,
		DistinctID: distinctID,
		Properties: properties,
		Timestamp:  b.timestamp,
	}, nil
}

// MustBuild finalizes the event, panicking on error.
func (b *EventBuilder) MustBuild() Event {
	evt, err := b.Build()
	if err != nil {
		panic(err)
	}
	return evt
}
