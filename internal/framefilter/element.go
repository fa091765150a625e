package framefilter

import (
	"context"
	"log/slog"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/observe"
)

const (
	// FactoryName is the name the filter is registered under.
	FactoryName = "frame_filter"

	// StreamType is the only media type the filter accepts and emits.
	StreamType = "video/x-h264"

	LongName       = "H264 I-Frames filter"
	Classification = "Filter/Video"
	Description    = "Drops all frames from H264 stream except I-Frames"
	Author         = "Bohdan Shubenok <bohdan.shubenok@sigma.software>"
)

// Templates returns the filter's pad templates: one sink and one source pad,
// both always present, both video/x-h264.
func Templates() (sink, src media.PadTemplate) {
	sink = media.PadTemplate{
		Name:      "sink",
		Direction: media.PadDirectionSink,
		Presence:  media.PadPresenceAlways,
		Caps:      media.NewCapsFromString(StreamType),
	}
	src = media.PadTemplate{
		Name:      "src",
		Direction: media.PadDirectionSrc,
		Presence:  media.PadPresenceAlways,
		Caps:      media.NewCapsFromString(StreamType),
	}
	return sink, src
}

// Element is the frame filter stage for the native runtime.
type Element struct {
	*media.ElementBase

	sinkpad *media.Pad
	srcpad  *media.Pad

	classifier *Classifier
	metrics    *observe.Metrics
}

// Option configures an Element.
type Option func(*Element)

// WithMetrics records frame outcomes on m instead of the default instruments.
func WithMetrics(m *observe.Metrics) Option {
	return func(e *Element) { e.metrics = m }
}

// New creates a frame filter called name with its two pads.
func New(name string, opts ...Option) *Element {
	e := &Element{
		ElementBase: media.NewElementBase(name, nil),
		classifier:  NewClassifier(),
		metrics:     observe.DefaultMetrics(),
	}
	for _, opt := range opts {
		opt(e)
	}

	sinkTmpl, srcTmpl := Templates()
	e.sinkpad = media.NewPadFromTemplate(sinkTmpl, "sink")
	e.sinkpad.SetChainFunction(e.sinkChain)
	e.sinkpad.SetEventFunction(e.sinkEvent)
	e.sinkpad.SetQueryFunction(e.sinkQuery)

	e.srcpad = media.NewPadFromTemplate(srcTmpl, "src")
	e.srcpad.SetEventFunction(e.srcEvent)
	e.srcpad.SetQueryFunction(e.srcQuery)

	// Names are fixed and distinct; AddPad cannot fail here.
	_ = e.AddPad(e.sinkpad)
	_ = e.AddPad(e.srcpad)
	return e
}

// Register adds the frame filter factory to reg.
func Register(reg *media.Registry, opts ...Option) error {
	return reg.Register(FactoryName, func(name string) (media.Element, error) {
		return New(name, opts...), nil
	})
}

// FrameCount returns the number of buffers observed so far.
func (e *Element) FrameCount() uint64 { return e.classifier.Count() }

// Stats returns a diagnostic snapshot of the filter.
func (e *Element) Stats() Stats { return e.classifier.Stats() }

func (e *Element) sinkChain(pad *media.Pad, buf *media.Buffer) media.FlowReturn {
	d := e.classifier.Observe(buf.IsDeltaUnit())
	e.metrics.RecordFrame(context.Background(), d.Forward())
	if !d.Forward() {
		return media.FlowOK
	}

	slog.Debug("framefilter: key frame", "element", e.Name(), "pad", pad.Name(), "frame", d.Frame)

	ret := e.srcpad.Push(buf)
	if ret != media.FlowOK {
		e.metrics.RecordFlowError(context.Background(), ret.String())
	}
	return ret
}

func (e *Element) sinkEvent(_ *media.Pad, ev *media.Event) bool {
	return e.srcpad.PushEvent(ev)
}

func (e *Element) sinkQuery(_ *media.Pad, q *media.Query) bool {
	return e.srcpad.PeerQuery(q)
}

func (e *Element) srcEvent(_ *media.Pad, ev *media.Event) bool {
	return e.sinkpad.PushEvent(ev)
}

func (e *Element) srcQuery(_ *media.Pad, q *media.Query) bool {
	return e.sinkpad.PeerQuery(q)
}

// ChangeState logs the filter's counters when it stops.
func (e *Element) ChangeState(change media.StateChange) error {
	if change.From == media.StatePaused && change.To == media.StateReady {
		s := e.classifier.Stats()
		slog.Info("framefilter: stopped",
			"element", e.Name(),
			"frames_processed", s.Processed,
			"key_frames", s.Forwarded,
			"dropped", s.Dropped,
			"gop_mean", s.GOP.Mean,
			"gop_stddev", s.GOP.StdDev,
			"gop_regular", s.GOP.Regular,
		)
	}
	return nil
}
