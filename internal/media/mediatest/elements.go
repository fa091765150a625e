// Package mediatest provides stand-in elements for the stages the frame
// filter pipeline treats as opaque: file source, demuxer, parser, decoder,
// converter and sink. They move buffers through the native runtime with the
// same pad topology and caps as the real GStreamer elements.
package mediatest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
)

const (
	CapsContainer = "video/quicktime"
	CapsH264      = "video/x-h264,stream-format=avc,alignment=au"
	CapsRaw       = "video/x-raw,format=I420"
	CapsAAC       = "audio/mpeg,mpegversion=4"
)

// ErrInjected is the error posted by a sink configured to fail.
var ErrInjected = errors.New("mediatest: injected failure")

// GOP returns n buffers where every interval-th buffer (starting with the
// first) is a key frame and the rest carry the delta-unit flag. Each payload
// encodes its index so tests can check identity and order.
func GOP(n, interval int) []*media.Buffer {
	bufs := make([]*media.Buffer, n)
	for i := range bufs {
		var flags media.BufferFlags
		if interval <= 0 || i%interval != 0 {
			flags = media.BufferFlagDeltaUnit
		}
		bufs[i] = &media.Buffer{
			Data:   []byte(fmt.Sprintf("frame-%04d", i)),
			Flags:  flags,
			Offset: uint64(i),
		}
	}
	return bufs
}

// Source pushes a fixed list of buffers, then EOS, from its own streaming
// goroutine once the pipeline plays. With Repeat set it cycles through the
// list until it receives EOS.
type Source struct {
	*media.ElementBase
	src     *media.Pad
	buffers []*media.Buffer
	eos     atomic.Bool

	Repeat bool
}

// NewSource returns a source called name that will emit bufs.
func NewSource(name string, bufs []*media.Buffer) *Source {
	s := &Source{
		ElementBase: media.NewElementBase(name, map[string]any{"location": ""}),
		buffers:     bufs,
	}
	s.src = media.NewPad("src", media.PadDirectionSrc, media.NewAnyCaps())
	s.src.SetEventFunction(func(_ *media.Pad, ev *media.Event) bool {
		if ev.Type == media.EventEOS {
			s.eos.Store(true)
			return true
		}
		return false
	})
	_ = s.AddPad(s.src)
	return s
}

func (s *Source) ChangeState(change media.StateChange) error {
	switch change {
	case media.StateChange{From: media.StatePaused, To: media.StatePlaying}:
		return s.src.StartTask(s.loop)
	case media.StateChange{From: media.StatePaused, To: media.StateReady}:
		s.src.StopTask()
	}
	return nil
}

func (s *Source) loop(ctx context.Context) {
	s.src.PushEvent(media.NewStreamStartEvent(s.Name()))
	s.src.PushEvent(media.NewCapsEvent(media.NewCapsFromString(CapsContainer)))

	for {
		for _, buf := range s.buffers {
			if ctx.Err() != nil {
				return
			}
			if s.eos.Load() {
				break
			}
			ret := s.src.Push(buf)
			if ret == media.FlowOK {
				continue
			}
			if ret.IsFatal() {
				s.PostError(fmt.Errorf("internal data stream error"),
					fmt.Sprintf("streaming stopped, reason %s", ret))
			}
			return
		}
		if !s.Repeat || s.eos.Load() || len(s.buffers) == 0 {
			break
		}
	}
	s.src.PushEvent(media.NewEOSEvent())
}

// Stream describes one elementary stream a Demuxer exposes.
type Stream struct {
	PadName string
	Caps    string
}

// Demuxer announces its streams as sometimes-pads when the first buffer
// arrives and routes every buffer to the first stream.
type Demuxer struct {
	*media.ElementBase
	sink    *media.Pad
	streams []Stream

	once sync.Once
	outs []*media.Pad
}

// NewDemuxer returns a demuxer that exposes streams.
func NewDemuxer(name string, streams ...Stream) *Demuxer {
	d := &Demuxer{
		ElementBase: media.NewElementBase(name, nil),
		streams:     streams,
	}
	d.sink = media.NewPad("sink", media.PadDirectionSink, media.NewCapsFromString(CapsContainer))
	d.sink.SetChainFunction(d.chain)
	d.sink.SetEventFunction(d.event)
	_ = d.AddPad(d.sink)
	return d
}

func (d *Demuxer) exposePads() {
	d.once.Do(func() {
		for _, st := range d.streams {
			caps := media.NewCapsFromString(st.Caps)
			pad := media.NewPadFromTemplate(media.PadTemplate{
				Direction: media.PadDirectionSrc,
				Presence:  media.PadPresenceSometimes,
				Caps:      caps,
			}, st.PadName)
			pad.SetCurrentCaps(caps)
			d.outs = append(d.outs, pad)
			if err := d.AddPad(pad); err != nil {
				d.PostError(err, "")
				continue
			}
			pad.PushEvent(media.NewStreamStartEvent(st.PadName))
			pad.PushEvent(media.NewCapsEvent(caps))
		}
	})
}

func (d *Demuxer) chain(_ *media.Pad, buf *media.Buffer) media.FlowReturn {
	d.exposePads()
	if len(d.outs) == 0 {
		return media.FlowNotLinked
	}
	return d.outs[0].Push(buf)
}

func (d *Demuxer) event(_ *media.Pad, ev *media.Event) bool {
	switch ev.Type {
	case media.EventEOS:
		d.exposePads()
		ok := false
		for _, p := range d.outs {
			if p.PushEvent(ev) {
				ok = true
			}
		}
		if !ok {
			// Nothing downstream can finish the stream.
			d.PostError(fmt.Errorf("no linked output for end-of-stream"), "")
		}
		return true
	case media.EventCaps, media.EventStreamStart:
		return true
	}
	for _, p := range d.outs {
		p.PushEvent(ev)
	}
	return true
}

// Passthrough stands in for parser, decoder and converter: it forwards every
// buffer unchanged and announces its own output caps.
type Passthrough struct {
	*media.ElementBase
	sink, src *media.Pad
	outCaps   *media.Caps
}

// NewPassthrough returns an element accepting in and producing out.
func NewPassthrough(name, in, out string) *Passthrough {
	p := &Passthrough{
		ElementBase: media.NewElementBase(name, nil),
		outCaps:     media.NewCapsFromString(out),
	}
	p.sink = media.NewPad("sink", media.PadDirectionSink, media.NewCapsFromString(in))
	p.src = media.NewPad("src", media.PadDirectionSrc, p.outCaps)

	p.sink.SetChainFunction(func(_ *media.Pad, buf *media.Buffer) media.FlowReturn {
		return p.src.Push(buf)
	})
	p.sink.SetEventFunction(func(_ *media.Pad, ev *media.Event) bool {
		if ev.Type == media.EventCaps {
			return p.src.PushEvent(media.NewCapsEvent(p.outCaps))
		}
		return p.src.PushEvent(ev)
	})
	p.sink.SetQueryFunction(func(_ *media.Pad, q *media.Query) bool {
		return p.src.PeerQuery(q)
	})
	p.src.SetEventFunction(func(_ *media.Pad, ev *media.Event) bool {
		return p.sink.PushEvent(ev)
	})
	p.src.SetQueryFunction(func(_ *media.Pad, q *media.Query) bool {
		return p.sink.PeerQuery(q)
	})

	_ = p.AddPad(p.sink)
	_ = p.AddPad(p.src)
	return p
}

// Sink records every buffer it receives and posts EOS when the stream ends.
// With FailAfter > 0 it posts an error and refuses data from that buffer on.
type Sink struct {
	*media.ElementBase
	sink *media.Pad

	FailAfter int

	mu       sync.Mutex
	received []*media.Buffer
	events   []media.EventType
	queries  int
}

// NewSink returns a sink accepting caps.
func NewSink(name, caps string) *Sink {
	s := &Sink{ElementBase: media.NewElementBase(name, map[string]any{"sync": true})}
	s.sink = media.NewPad("sink", media.PadDirectionSink, media.NewCapsFromString(caps))
	s.sink.SetChainFunction(s.chain)
	s.sink.SetEventFunction(s.event)
	s.sink.SetQueryFunction(func(_ *media.Pad, q *media.Query) bool {
		s.mu.Lock()
		s.queries++
		s.mu.Unlock()
		if q.Type == media.QueryDuration {
			q.Value = 42
			return true
		}
		return false
	})
	_ = s.AddPad(s.sink)
	return s
}

func (s *Sink) chain(_ *media.Pad, buf *media.Buffer) media.FlowReturn {
	s.mu.Lock()
	s.received = append(s.received, buf)
	n := len(s.received)
	s.mu.Unlock()

	if s.FailAfter > 0 && n >= s.FailAfter {
		s.PostError(ErrInjected, fmt.Sprintf("failing after %d buffers", n))
		return media.FlowError
	}
	return media.FlowOK
}

func (s *Sink) event(_ *media.Pad, ev *media.Event) bool {
	s.mu.Lock()
	s.events = append(s.events, ev.Type)
	s.mu.Unlock()

	if ev.Type == media.EventEOS {
		s.PostEOS()
	}
	return true
}

// Received returns the buffers seen so far, in arrival order.
func (s *Sink) Received() []*media.Buffer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*media.Buffer(nil), s.received...)
}

// Events returns the types of events seen so far.
func (s *Sink) Events() []media.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]media.EventType(nil), s.events...)
}

// Queries returns how many queries reached the sink.
func (s *Sink) Queries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}
