package pipeline

import "time"

// EventKind identifies a run event.
type EventKind string

const (
	EventStarted      EventKind = "started"
	EventStateChanged EventKind = "state-changed"
	EventError        EventKind = "error"
	EventFinished     EventKind = "finished"
)

// Event is a notable moment of a pipeline run, reported to an EventSink.
// Only the pipeline's own state changes are reported, not those of its
// stages.
type Event struct {
	Kind     EventKind `json:"kind" msgpack:"kind"`
	RunID    string    `json:"run_id" msgpack:"run_id"`
	Pipeline string    `json:"pipeline" msgpack:"pipeline"`
	Time     time.Time `json:"time" msgpack:"time"`

	// state-changed
	OldState     string `json:"old_state,omitempty" msgpack:"old_state,omitempty"`
	NewState     string `json:"new_state,omitempty" msgpack:"new_state,omitempty"`
	PendingState string `json:"pending_state,omitempty" msgpack:"pending_state,omitempty"`

	// error
	Source   string `json:"source,omitempty" msgpack:"source,omitempty"`
	Message  string `json:"message,omitempty" msgpack:"message,omitempty"`
	Debug    string `json:"debug,omitempty" msgpack:"debug,omitempty"`
	Category string `json:"category,omitempty" msgpack:"category,omitempty"`

	// finished
	DurationSeconds float64 `json:"duration_s,omitempty" msgpack:"duration_s,omitempty"`
	Clean           bool    `json:"clean,omitempty" msgpack:"clean,omitempty"`
}

// EventSink receives run events. Emit is called from the bus loop and must
// not block.
type EventSink interface {
	Emit(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) Emit(ev Event) { f(ev) }

// WithEvents reports run events to sink.
func WithEvents(sink EventSink) RunOption {
	return func(o *runOptions) {
		if sink != nil {
			o.events = sink
		}
	}
}

type discardEvents struct{}

func (discardEvents) Emit(Event) {}
