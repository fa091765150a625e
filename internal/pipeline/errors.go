package pipeline

import (
	"fmt"
	"strings"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
)

// MissingElementError reports a stage whose factory is not available on the
// host. Assembly stops at the first one, before any state change.
type MissingElementError struct {
	Factory string
	Role    Role
	Err     error
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("missing element %s (%s)", e.Factory, e.Role)
}

func (e *MissingElementError) Unwrap() error { return e.Err }

// LinkError reports a link that could not be established, either at assembly
// time or when the demuxer exposed its output.
type LinkError struct {
	Src string
	Dst string
	Err error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("failed to link %s to %s: %v", e.Src, e.Dst, e.Err)
}

func (e *LinkError) Unwrap() error { return e.Err }

// ErrorMessage is the structured report of an error message received on the
// bus. It terminates the run.
type ErrorMessage struct {
	Source   string
	Message  string
	Debug    string
	Category ErrorCategory

	// Err is the error carried by the bus message, if any.
	Err error
}

func (e *ErrorMessage) Error() string {
	if e.Debug == "" {
		return fmt.Sprintf("received error from %s: %s", e.Source, e.Message)
	}
	return fmt.Sprintf("received error from %s: %s (debug: %s)", e.Source, e.Message, e.Debug)
}

func (e *ErrorMessage) Unwrap() error { return e.Err }

// newErrorMessage builds the report for an error bus message.
func newErrorMessage(msg *media.Message) *ErrorMessage {
	text := "unknown error"
	if msg.Err != nil {
		text = msg.Err.Error()
	}
	source := msg.Source
	if source == "" {
		source = "None"
	}
	return &ErrorMessage{
		Source:   source,
		Message:  text,
		Debug:    msg.Debug,
		Category: ClassifyError(text, msg.Debug),
		Err:      msg.Err,
	}
}

// ErrorCategory classifies bus errors for logs and metrics.
type ErrorCategory int

const (
	// ErrCategoryResource: input missing, unreadable or unsupported.
	ErrCategoryResource ErrorCategory = iota
	// ErrCategoryCodec: decoder or bitstream failures.
	ErrCategoryCodec
	// ErrCategoryNegotiation: caps could not be agreed between stages.
	ErrCategoryNegotiation
	// ErrCategoryFlow: a stage stopped streaming after a downstream failure.
	ErrCategoryFlow
	// ErrCategoryUnknown: nothing matched.
	ErrCategoryUnknown
)

func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryResource:
		return "resource"
	case ErrCategoryCodec:
		return "codec"
	case ErrCategoryNegotiation:
		return "negotiation"
	case ErrCategoryFlow:
		return "flow"
	default:
		return "unknown"
	}
}

var (
	negotiationKeywords = []string{
		"not negotiated",
		"not-negotiated",
		"negotiation",
		"caps",
	}
	codecKeywords = []string{
		"codec",
		"decode",
		"no decoder",
		"missing plugin",
		"bitstream",
		"h264",
		"h.264",
	}
	resourceKeywords = []string{
		"no such file",
		"not found",
		"could not open",
		"could not read",
		"permission denied",
		"resource",
	}
	flowKeywords = []string{
		"internal data stream error",
		"streaming stopped",
		"not-linked",
		"flow",
	}
)

// ClassifyError categorizes a bus error from its message and debug text.
// The most specific category wins: a flow error whose debug string names a
// negotiation failure is a negotiation error.
func ClassifyError(message, debug string) ErrorCategory {
	combined := strings.ToLower(message + " " + debug)

	switch {
	case containsAny(combined, negotiationKeywords):
		return ErrCategoryNegotiation
	case containsAny(combined, codecKeywords):
		return ErrCategoryCodec
	case containsAny(combined, resourceKeywords):
		return ErrCategoryResource
	case containsAny(combined, flowKeywords):
		return ErrCategoryFlow
	}
	return ErrCategoryUnknown
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
