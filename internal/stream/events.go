package stream

import (
	"sync"

	"chatd/pkg/types"
)

// EventSink receives wire events from the pipeline. Implementations must be
// safe for use from the generation goroutine; a returned error stops the
// stream (the channel is gone).
type EventSink interface {
	Token(types.TokenEvent) error
	Complete(types.CompleteEvent) error
	Error(types.ErrorEvent) error
}

// SinkEvent is a recorded event, for tests.
type SinkEvent struct {
	Name    string
	Payload any
}

// MemorySink stores events in-memory for tests.
type MemorySink struct {
	mu     sync.Mutex
	events []SinkEvent
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (m *MemorySink) Token(e types.TokenEvent) error {
	m.record(types.EventToken, e)
	return nil
}

func (m *MemorySink) Complete(e types.CompleteEvent) error {
	m.record(types.EventComplete, e)
	return nil
}

func (m *MemorySink) Error(e types.ErrorEvent) error {
	m.record(types.EventError, e)
	return nil
}

func (m *MemorySink) record(name string, payload any) {
	m.mu.Lock()
	m.events = append(m.events, SinkEvent{Name: name, Payload: payload})
	m.mu.Unlock()
}

// Events returns a copy of everything recorded so far.
func (m *MemorySink) Events() []SinkEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SinkEvent, len(m.events))
	copy(out, m.events)
	return out
}
