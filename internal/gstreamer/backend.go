// Package gstreamer runs the frame filter pipeline on GStreamer through
// go-gst. It registers the frame_filter element with the running GStreamer
// instance and adapts GStreamer pipelines, elements, pads and bus messages
// to the interfaces of package pipeline.
package gstreamer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/pipeline"
)

// ErrRegisterFailed is returned when frame_filter could not be registered.
var ErrRegisterFailed = errors.New("gstreamer: failed to register frame_filter")

// busPollInterval bounds each bus wait; Pop keeps waiting until a message
// arrives.
const busPollInterval = 500 * time.Millisecond

var (
	initOnce   sync.Once
	registered bool
)

// Backend creates GStreamer pipelines and elements.
type Backend struct{}

// NewBackend initializes GStreamer (once per process) and registers
// frame_filter.
func NewBackend() (*Backend, error) {
	initOnce.Do(func() {
		gst.Init(nil)
		registered = registerFrameFilter()
		slog.Debug("gstreamer: initialized", "frame_filter_registered", registered)
	})
	if !registered {
		return nil, ErrRegisterFailed
	}
	return &Backend{}, nil
}

func (b *Backend) NewGraph(name string) (pipeline.Graph, error) {
	p, err := gst.NewPipeline(name)
	if err != nil {
		return nil, fmt.Errorf("gstreamer: failed to create pipeline %s: %w", name, err)
	}
	return &graph{p: p, bus: p.GetPipelineBus(), target: media.StateNull}, nil
}

func (b *Backend) MakeElement(factory, name string) (pipeline.Element, error) {
	e, err := gst.NewElementWithName(factory, name)
	if err != nil {
		return nil, fmt.Errorf("gstreamer: failed to create %s: %w", factory, err)
	}
	return &element{e: e}, nil
}

type graph struct {
	p   *gst.Pipeline
	bus *gst.Bus

	mu     sync.Mutex
	target media.State
}

func (g *graph) Name() string { return g.p.GetName() }

func (g *graph) Add(elems ...pipeline.Element) error {
	raw := make([]*gst.Element, 0, len(elems))
	for _, e := range elems {
		ge, ok := e.(*element)
		if !ok {
			return fmt.Errorf("gstreamer: %s was not created by this backend", e.Name())
		}
		raw = append(raw, ge.e)
	}
	return g.p.AddMany(raw...)
}

func (g *graph) SetState(state media.State) error {
	g.mu.Lock()
	g.target = state
	g.mu.Unlock()
	return g.p.SetState(toGstState(state))
}

func (g *graph) Pop() *media.Message {
	for {
		msg := g.bus.TimedPop(busPollInterval)
		if msg == nil {
			continue
		}
		g.mu.Lock()
		target := g.target
		g.mu.Unlock()
		return convertMessage(msg, target)
	}
}

func (g *graph) SendEOS() bool {
	return g.p.SendEvent(gst.NewEOSEvent())
}

type element struct {
	e *gst.Element
}

func (e *element) Name() string { return e.e.GetName() }

func (e *element) SetProperty(name string, value any) error {
	return e.e.SetProperty(name, value)
}

func (e *element) Link(dst pipeline.Element) error {
	d, ok := dst.(*element)
	if !ok {
		return fmt.Errorf("gstreamer: %s was not created by this backend", dst.Name())
	}
	return e.e.Link(d.e)
}

func (e *element) StaticPad(name string) pipeline.Pad {
	p := e.e.GetStaticPad(name)
	if p == nil {
		return nil
	}
	return pad{p: p}
}

func (e *element) OnPadAdded(fn func(pipeline.Pad)) {
	if _, err := e.e.Connect("pad-added", func(_ *gst.Element, p *gst.Pad) {
		fn(pad{p: p})
	}); err != nil {
		slog.Error("gstreamer: failed to connect pad-added", "element", e.Name(), "error", err)
	}
}

func (e *element) PostError(err error, debug string) {
	e.e.ErrorMessage(gst.DomainCore, gst.CoreErrorPad, err.Error(), debug)
}

type pad struct {
	p *gst.Pad
}

func (p pad) Name() string   { return p.p.GetName() }
func (p pad) IsLinked() bool { return p.p.IsLinked() }

func (p pad) MediaType() string {
	caps := p.p.GetCurrentCaps()
	if caps == nil {
		return ""
	}
	st := caps.GetStructureAt(0)
	if st == nil {
		return ""
	}
	return st.Name()
}

func (p pad) Link(sink pipeline.Pad) error {
	s, ok := sink.(pad)
	if !ok {
		return fmt.Errorf("gstreamer: pad %s was not created by this backend", sink.Name())
	}
	if ret := p.p.Link(s.p); ret != gst.PadLinkOK {
		return fmt.Errorf("gstreamer: %s -> %s: %v", p.Name(), s.Name(), ret)
	}
	return nil
}
