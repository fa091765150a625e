package pipeline

import (
	"errors"
	"fmt"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
)

// ErrForeignObject is returned when a native graph is handed an element or
// pad that another backend created.
var ErrForeignObject = errors.New("pipeline: object belongs to another backend")

// NativeBackend runs graphs on the pure-Go media runtime. Stages come from
// Registry.
type NativeBackend struct {
	Registry *media.Registry
}

// NewNativeBackend returns a backend making elements from reg.
func NewNativeBackend(reg *media.Registry) *NativeBackend {
	return &NativeBackend{Registry: reg}
}

func (b *NativeBackend) NewGraph(name string) (Graph, error) {
	return &nativeGraph{p: media.NewPipeline(name)}, nil
}

func (b *NativeBackend) MakeElement(factory, name string) (Element, error) {
	e, err := b.Registry.Make(factory, name)
	if err != nil {
		return nil, err
	}
	return &nativeElement{e: e}, nil
}

type nativeGraph struct {
	p *media.Pipeline
}

// Pipeline exposes the underlying runtime pipeline.
func (g *nativeGraph) Pipeline() *media.Pipeline { return g.p }

func (g *nativeGraph) Name() string { return g.p.Name() }

func (g *nativeGraph) Add(elems ...Element) error {
	raw := make([]media.Element, 0, len(elems))
	for _, e := range elems {
		ne, ok := e.(*nativeElement)
		if !ok {
			return fmt.Errorf("%w: %s", ErrForeignObject, e.Name())
		}
		raw = append(raw, ne.e)
	}
	return g.p.Add(raw...)
}

func (g *nativeGraph) SetState(state media.State) error { return g.p.SetState(state) }
func (g *nativeGraph) Pop() *media.Message             { return g.p.Bus().Pop() }
func (g *nativeGraph) SendEOS() bool                   { return g.p.SendEvent(media.NewEOSEvent()) }

type nativeElement struct {
	e media.Element
}

func (e *nativeElement) Name() string { return e.e.Name() }

func (e *nativeElement) SetProperty(name string, value any) error {
	return e.e.SetProperty(name, value)
}

func (e *nativeElement) Link(dst Element) error {
	nd, ok := dst.(*nativeElement)
	if !ok {
		return fmt.Errorf("%w: %s", ErrForeignObject, dst.Name())
	}
	return media.LinkElements(e.e, nd.e)
}

func (e *nativeElement) StaticPad(name string) Pad {
	p := e.e.StaticPad(name)
	if p == nil {
		return nil
	}
	return nativePad{p: p}
}

func (e *nativeElement) OnPadAdded(fn func(Pad)) {
	e.e.ConnectPadAdded(func(p *media.Pad) { fn(nativePad{p: p}) })
}

func (e *nativeElement) PostError(err error, debug string) {
	if poster, ok := e.e.(interface{ PostError(error, string) }); ok {
		poster.PostError(err, debug)
	}
}

type nativePad struct {
	p *media.Pad
}

func (p nativePad) Name() string   { return p.p.Name() }
func (p nativePad) IsLinked() bool { return p.p.IsLinked() }

func (p nativePad) MediaType() string {
	caps := p.p.CurrentCaps()
	if caps == nil {
		return ""
	}
	return caps.Name()
}

func (p nativePad) Link(sink Pad) error {
	ns, ok := sink.(nativePad)
	if !ok {
		return fmt.Errorf("%w: pad %s", ErrForeignObject, sink.Name())
	}
	return p.p.Link(ns.p)
}
