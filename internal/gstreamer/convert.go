package gstreamer

import (
	"github.com/tinyzimmer/go-gst/gst"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
)

func toGstState(s media.State) gst.State {
	switch s {
	case media.StateNull:
		return gst.StateNull
	case media.StateReady:
		return gst.StateReady
	case media.StatePaused:
		return gst.StatePaused
	case media.StatePlaying:
		return gst.StatePlaying
	default:
		return gst.StateVoidPending
	}
}

func fromGstState(s gst.State) media.State {
	switch s {
	case gst.StateNull:
		return media.StateNull
	case gst.StateReady:
		return media.StateReady
	case gst.StatePaused:
		return media.StatePaused
	case gst.StatePlaying:
		return media.StatePlaying
	default:
		return media.StateVoidPending
	}
}

// pendingState approximates the pending state of a state-changed message:
// go-gst only parses old and new, so the last requested target is pending
// until it is reached.
func pendingState(cur, target media.State) media.State {
	if cur == target {
		return media.StateVoidPending
	}
	return target
}

// convertMessage translates a GStreamer bus message. target is the state
// last requested on the pipeline.
func convertMessage(msg *gst.Message, target media.State) *media.Message {
	source := msg.Source()

	switch msg.Type() {
	case gst.MessageEOS:
		return media.NewEOSMessage(source)

	case gst.MessageError:
		gerr := msg.ParseError()
		if gerr == nil {
			return media.NewErrorMessage(source, nil, "")
		}
		return media.NewErrorMessage(source, gerr, gerr.DebugString())

	case gst.MessageWarning:
		gerr := msg.ParseWarning()
		if gerr == nil {
			return media.NewWarningMessage(source, nil, "")
		}
		return media.NewWarningMessage(source, gerr, gerr.DebugString())

	case gst.MessageStateChanged:
		old, cur := msg.ParseStateChanged()
		newState := fromGstState(cur)
		return media.NewStateChangedMessage(source, fromGstState(old), newState, pendingState(newState, target))

	case gst.MessageStreamStart:
		return &media.Message{Type: media.MessageStreamStart, Source: source}

	case gst.MessageElement:
		return &media.Message{Type: media.MessageElement, Source: source}
	}
	return &media.Message{Type: media.MessageUnknown, Source: source}
}
