package gstreamer

import (
	"context"
	"log/slog"

	"github.com/tinyzimmer/go-glib/glib"
	"github.com/tinyzimmer/go-gst/gst"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/framefilter"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/observe"
)

// Pad templates, created once in ClassInit.
var (
	sinkTemplate *gst.PadTemplate
	srcTemplate  *gst.PadTemplate
)

// frameFilter is the GStreamer implementation of frame_filter. Every
// element instance gets its own value from New, so the classifier (and
// with it the frame counter) lives exactly as long as the element.
type frameFilter struct {
	sinkpad *gst.Pad
	srcpad  *gst.Pad

	classifier *framefilter.Classifier
	metrics    *observe.Metrics
}

func (f *frameFilter) New() glib.GoObjectSubclass {
	return &frameFilter{
		classifier: framefilter.NewClassifier(),
		metrics:    observe.DefaultMetrics(),
	}
}

func (f *frameFilter) ClassInit(klass *glib.ObjectClass) {
	caps := gst.NewCapsFromString(framefilter.StreamType)
	sinkTemplate = gst.NewPadTemplate("sink", gst.PadDirectionSink, gst.PadPresenceAlways, caps)
	srcTemplate = gst.NewPadTemplate("src", gst.PadDirectionSource, gst.PadPresenceAlways, caps)

	class := gst.ToElementClass(klass)
	class.SetMetadata(
		framefilter.LongName,
		framefilter.Classification,
		framefilter.Description,
		framefilter.Author,
	)
	class.AddPadTemplate(sinkTemplate)
	class.AddPadTemplate(srcTemplate)
}

// Constructed creates the two pads and attaches them to the element.
func (f *frameFilter) Constructed(obj *glib.Object) {
	self := gst.ToElement(obj)

	f.sinkpad = gst.NewPadFromTemplate(sinkTemplate, "sink")
	f.sinkpad.SetChainFunction(f.sinkChain)
	f.sinkpad.SetEventFunction(f.sinkEvent)
	f.sinkpad.SetQueryFunction(f.sinkQuery)

	f.srcpad = gst.NewPadFromTemplate(srcTemplate, "src")
	f.srcpad.SetEventFunction(f.srcEvent)
	f.srcpad.SetQueryFunction(f.srcQuery)

	self.AddPad(f.sinkpad)
	self.AddPad(f.srcpad)
}

func (f *frameFilter) sinkChain(pad *gst.Pad, _ *gst.Object, buf *gst.Buffer) gst.FlowReturn {
	return media.CatchPanic(gst.FlowError, logPanic(pad, "chain"), func() gst.FlowReturn {
		d := f.classifier.Observe(buf.GetFlags()&gst.BufferFlagDeltaUnit != 0)
		f.metrics.RecordFrame(context.Background(), d.Forward())
		if !d.Forward() {
			return gst.FlowOK
		}

		slog.Debug("framefilter: key frame", "pad", pad.GetName(), "frame", d.Frame)

		ret := f.srcpad.Push(buf)
		if ret != gst.FlowOK {
			f.metrics.RecordFlowError(context.Background(), ret.String())
		}
		return ret
	})
}

func (f *frameFilter) sinkEvent(pad *gst.Pad, _ *gst.Object, ev *gst.Event) bool {
	return media.CatchPanic(false, logPanic(pad, "event"), func() bool {
		if ev.Type() == gst.EventTypeEOS {
			s := f.classifier.Stats()
			slog.Info("framefilter: end of stream",
				"frames_processed", s.Processed,
				"key_frames", s.Forwarded,
				"dropped", s.Dropped,
				"gop_mean", s.GOP.Mean,
				"gop_stddev", s.GOP.StdDev,
				"gop_regular", s.GOP.Regular,
			)
		}
		return f.srcpad.PushEvent(ev)
	})
}

func (f *frameFilter) sinkQuery(pad *gst.Pad, _ *gst.Object, q *gst.Query) bool {
	return media.CatchPanic(false, logPanic(pad, "query"), func() bool {
		return f.srcpad.PeerQuery(q)
	})
}

func (f *frameFilter) srcEvent(pad *gst.Pad, _ *gst.Object, ev *gst.Event) bool {
	return media.CatchPanic(false, logPanic(pad, "event"), func() bool {
		return f.sinkpad.PushEvent(ev)
	})
}

func (f *frameFilter) srcQuery(pad *gst.Pad, _ *gst.Object, q *gst.Query) bool {
	return media.CatchPanic(false, logPanic(pad, "query"), func() bool {
		return f.sinkpad.PeerQuery(q)
	})
}

func logPanic(pad *gst.Pad, handler string) func(any) {
	return func(r any) {
		slog.Error("framefilter: pad handler panicked",
			"pad", pad.GetName(),
			"handler", handler,
			"panic", r,
		)
	}
}

// registerFrameFilter registers frame_filter with the running GStreamer
// instance so it can be created by factory name.
func registerFrameFilter() bool {
	return gst.RegisterElement(nil, framefilter.FactoryName, gst.RankNone, &frameFilter{}, gst.ExtendsElement)
}
