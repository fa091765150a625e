package media

// EventType identifies an out-of-band control event.
type EventType int

const (
	EventStreamStart EventType = iota
	EventCaps
	EventSegment
	EventFlushStart
	EventFlushStop
	EventEOS
	EventQOS
	EventSeek
	EventReconfigure
	EventCustomDownstream
	EventCustomUpstream
)

var eventNames = map[EventType]string{
	EventStreamStart:      "stream-start",
	EventCaps:             "caps",
	EventSegment:          "segment",
	EventFlushStart:       "flush-start",
	EventFlushStop:        "flush-stop",
	EventEOS:              "eos",
	EventQOS:              "qos",
	EventSeek:             "seek",
	EventReconfigure:      "reconfigure",
	EventCustomDownstream: "custom-downstream",
	EventCustomUpstream:   "custom-upstream",
}

func (t EventType) String() string {
	if n, ok := eventNames[t]; ok {
		return n
	}
	return "unknown"
}

// IsUpstream reports whether events of this type travel sink → source.
func (t EventType) IsUpstream() bool {
	switch t {
	case EventQOS, EventSeek, EventReconfigure, EventCustomUpstream, EventFlushStart, EventFlushStop:
		return true
	}
	return false
}

// IsDownstream reports whether events of this type travel source → sink.
func (t EventType) IsDownstream() bool {
	switch t {
	case EventQOS, EventSeek, EventReconfigure, EventCustomUpstream:
		return false
	}
	return true
}

// Event is a control signal crossing pads alongside buffers. Elements that
// only relay events must not look inside Caps or Fields.
type Event struct {
	Type   EventType
	Caps   *Caps
	Fields map[string]string
}

// NewEOSEvent returns an end-of-stream event.
func NewEOSEvent() *Event { return &Event{Type: EventEOS} }

// NewCapsEvent announces the format of the buffers that follow.
func NewCapsEvent(caps *Caps) *Event { return &Event{Type: EventCaps, Caps: caps} }

// NewStreamStartEvent marks the beginning of a new stream.
func NewStreamStartEvent(streamID string) *Event {
	return &Event{Type: EventStreamStart, Fields: map[string]string{"stream-id": streamID}}
}
