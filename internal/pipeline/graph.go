package pipeline

import "github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"

// Backend creates pipelines and stages by factory name. The GStreamer
// backend and the native runtime both implement it.
type Backend interface {
	NewGraph(name string) (Graph, error)
	MakeElement(factory, name string) (Element, error)
}

// Graph is a pipeline as the orchestrator sees it: a container of elements
// with a lifecycle state and a bus.
type Graph interface {
	Name() string
	Add(elems ...Element) error
	SetState(state media.State) error

	// Pop blocks until the next bus message arrives. It returns nil only
	// when the bus is gone.
	Pop() *media.Message

	// SendEOS asks the sources to finish the stream.
	SendEOS() bool
}

// Element is one stage of a Graph.
type Element interface {
	Name() string
	SetProperty(name string, value any) error

	// Link connects the element's source side to dst's sink side.
	Link(dst Element) error

	// StaticPad returns the pad called name, or nil.
	StaticPad(name string) Pad

	// OnPadAdded runs fn for every pad the element creates at runtime,
	// on the goroutine that creates it.
	OnPadAdded(fn func(Pad))

	// PostError reports a fatal failure on the graph's bus with this
	// element as the source.
	PostError(err error, debug string)
}

// Pad is a connection point of an Element.
type Pad interface {
	Name() string

	// MediaType returns the name of the first structure of the pad's
	// negotiated caps, or "" when nothing has been negotiated yet.
	MediaType() string

	IsLinked() bool
	Link(sink Pad) error
}
