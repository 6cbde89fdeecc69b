package types

// Event is a single entry of the append-only audit stream. Every committed
// state change produces exactly one Event.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// EventType returns the event kind.
func (e *Event) EventType() string {
	if e == nil {
		return ""
	}
	return e.Type
}

// Event returns the receiver so generic payloads can be unwrapped uniformly.
func (e *Event) Event() *Event { return e }

// Clone returns a deep copy of the event.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	attrs := make(map[string]string, len(e.Attributes))
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	return &Event{Type: e.Type, Attributes: attrs}
}
