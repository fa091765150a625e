package media

import "fmt"

// MessageType identifies a bus message.
type MessageType int

const (
	MessageUnknown MessageType = iota
	MessageEOS
	MessageError
	MessageWarning
	MessageInfo
	MessageStateChanged
	MessageStreamStart
	MessageElement
)

func (t MessageType) String() string {
	switch t {
	case MessageEOS:
		return "eos"
	case MessageError:
		return "error"
	case MessageWarning:
		return "warning"
	case MessageInfo:
		return "info"
	case MessageStateChanged:
		return "state-changed"
	case MessageStreamStart:
		return "stream-start"
	case MessageElement:
		return "element"
	default:
		return "unknown"
	}
}

// Message is a status notification posted by an element or the pipeline.
type Message struct {
	Type MessageType
	// Source is the name (or path) of the posting object.
	Source string

	// Error, warning and info payload.
	Err   error
	Debug string

	// State-changed payload.
	OldState     State
	NewState     State
	PendingState State

	Fields map[string]string
}

// NewEOSMessage reports end-of-stream.
func NewEOSMessage(source string) *Message {
	return &Message{Type: MessageEOS, Source: source}
}

// NewErrorMessage reports a fatal failure with optional debug detail.
func NewErrorMessage(source string, err error, debug string) *Message {
	return &Message{Type: MessageError, Source: source, Err: err, Debug: debug}
}

// NewWarningMessage reports a non-fatal problem.
func NewWarningMessage(source string, err error, debug string) *Message {
	return &Message{Type: MessageWarning, Source: source, Err: err, Debug: debug}
}

// NewStateChangedMessage reports a completed state step.
func NewStateChangedMessage(source string, old, cur, pending State) *Message {
	return &Message{
		Type:         MessageStateChanged,
		Source:       source,
		OldState:     old,
		NewState:     cur,
		PendingState: pending,
	}
}

// ParseError returns the error payload.
func (m *Message) ParseError() (err error, debug string) {
	return m.Err, m.Debug
}

// ParseStateChanged returns the state-changed payload.
func (m *Message) ParseStateChanged() (old, cur, pending State) {
	return m.OldState, m.NewState, m.PendingState
}

func (m *Message) String() string {
	switch m.Type {
	case MessageError, MessageWarning, MessageInfo:
		return fmt.Sprintf("%s from %s: %v", m.Type, m.Source, m.Err)
	case MessageStateChanged:
		return fmt.Sprintf("%s from %s: %s -> %s (%s)", m.Type, m.Source, m.OldState, m.NewState, m.PendingState)
	default:
		return fmt.Sprintf("%s from %s", m.Type, m.Source)
	}
}
