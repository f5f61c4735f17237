// Package activity defines the activity-journal sink the engine emits
// step-start, step-end and flow-end events to. The engine fires events and
// moves on; a sink must never block the scheduling loop, and sink failures
// are invisible to the run outcome.
package activity

import (
	"sync"

	"github.com/flowmesh/flowmesh/logging"
)

// Event is one journal entry describing something the engine did.
type Event struct {
	Action  string         `json:"action"`
	Target  string         `json:"target"`
	Payload map[string]any `json:"payload,omitempty"`
	TraceID string         `json:"traceId"`
}

// Actions emitted by the engine.
const (
	ActionStepStart = "step.start"
	ActionStepEnd   = "step.end"
	ActionFlowEnd   = "flow.end"
)

// Logger is any sink accepting engine activity events.
type Logger interface {
	Log(event Event)
}

// NoOp discards all events.
type NoOp struct{}

// Log implements Logger.
func (NoOp) Log(Event) {}

// SlogSink forwards events to a structured logger at info level.
type SlogSink struct {
	logger logging.Logger
}

// NewSlogSink wraps a logging.Logger as an activity sink.
func NewSlogSink(logger logging.Logger) *SlogSink {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &SlogSink{logger: logger}
}

// Log implements Logger.
func (s *SlogSink) Log(event Event) {
	s.logger.Info("activity action=%s target=%s trace_id=%s payload=%v", event.Action, event.Target, event.TraceID, event.Payload)
}

// MemorySink retains events in memory for test inspection. Safe for
// concurrent use.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink constructs an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Log implements Logger.
func (s *MemorySink) Log(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a snapshot of everything logged so far.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// ByAction returns the logged events matching one action.
func (s *MemorySink) ByAction(action string) []Event {
	var out []Event
	for _, ev := range s.Events() {
		if ev.Action == action {
			out = append(out, ev)
		}
	}
	return out
}
