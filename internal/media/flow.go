package media

import "fmt"

// FlowReturn is the result of pushing a buffer to the next stage.
type FlowReturn int

const (
	// FlowOK means the buffer was accepted (or deliberately consumed).
	FlowOK FlowReturn = iota
	// FlowNotLinked means the pushing pad has no peer.
	FlowNotLinked
	// FlowFlushing means the downstream stage is stopped or flushing.
	FlowFlushing
	// FlowEOS means the downstream stage does not want more data.
	FlowEOS
	// FlowNotNegotiated means the stream format was not agreed on.
	FlowNotNegotiated
	// FlowError is a fatal, unspecified failure.
	FlowError
)

// String returns the GStreamer-style flow name.
func (f FlowReturn) String() string {
	switch f {
	case FlowOK:
		return "ok"
	case FlowNotLinked:
		return "not-linked"
	case FlowFlushing:
		return "flushing"
	case FlowEOS:
		return "eos"
	case FlowNotNegotiated:
		return "not-negotiated"
	case FlowError:
		return "error"
	default:
		return fmt.Sprintf("flow(%d)", int(f))
	}
}

// IsFatal reports whether a flow result should be escalated as a pipeline
// error. Flushing and EOS are part of normal shutdown.
func (f FlowReturn) IsFatal() bool {
	return f == FlowNotLinked || f == FlowNotNegotiated || f == FlowError
}

// CatchPanic runs fn and converts a panic into fallback. It is the boundary
// every pad handler runs behind: a faulting handler degrades to a failure
// result for its caller instead of taking the process down.
func CatchPanic[T any](fallback T, onPanic func(recovered any), fn func() T) (result T) {
	defer func() {
		if r := recover(); r != nil {
			if onPanic != nil {
				onPanic(r)
			}
			result = fallback
		}
	}()
	return fn()
}
