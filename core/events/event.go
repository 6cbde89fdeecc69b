package events

import (
	"sync"

	"tokensale/core/types"
)

// Event represents a structured state change emitted by the sale.
type Event interface {
	EventType() string
}

// Payload is implemented by events that can render the generic audit record.
type Payload interface {
	Event
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. journal, metrics).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// EmitterFunc adapts a plain function to the Emitter interface.
type EmitterFunc func(Event)

// Emit implements the Emitter interface.
func (f EmitterFunc) Emit(evt Event) {
	if f != nil {
		f(evt)
	}
}

// Multi fans a single event out to every emitter in order.
type Multi []Emitter

// Emit implements the Emitter interface.
func (m Multi) Emit(evt Event) {
	for _, emitter := range m {
		if emitter != nil {
			emitter.Emit(evt)
		}
	}
}

// Recorder keeps an ordered in-memory copy of every emitted payload.
type Recorder struct {
	mu     sync.Mutex
	events []*types.Event
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

// Emit implements the Emitter interface. Events that cannot render a payload
// are recorded with their type only.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	var record *types.Event
	if payload, ok := evt.(Payload); ok {
		record = payload.Event().Clone()
	} else {
		record = &types.Event{Type: evt.EventType(), Attributes: map[string]string{}}
	}
	r.mu.Lock()
	r.events = append(r.events, record)
	r.mu.Unlock()
}

// Events returns a copy of the recorded stream in emission order.
func (r *Recorder) Events() []*types.Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*types.Event, len(r.events))
	for i, evt := range r.events {
		out[i] = evt.Clone()
	}
	return out
}

// Types returns only the event kinds, in order.
func (r *Recorder) Types() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, evt := range events {
		out[i] = evt.Type
	}
	return out
}

// Reset drops every recorded event.
func (r *Recorder) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
