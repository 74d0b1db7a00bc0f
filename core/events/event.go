package events

import "sftmarket/core/types"

// Event represents a structured state change emitted by an engine.
type Event interface {
	EventType() string
}

// Payload is implemented by event wrappers that carry the canonical typed
// payload. Sinks such as the audit recorder use it to reach the attributes.
type Payload interface {
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, audit trail,
// metrics).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
