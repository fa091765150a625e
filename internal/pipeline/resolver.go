package pipeline

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

type route struct {
	mediaType string
	target    Element
	pad       string
}

// Resolver completes the links that depend on what the demuxer finds in the
// input. It is called once per pad the demuxer creates; a pad whose media
// type matches a route is linked to that route's target, any other pad is
// left unconnected.
type Resolver struct {
	demuxer Element
	routes  []route

	mu      sync.Mutex
	linked  []string
	ignored []string
	err     error
}

// NewResolver builds the route table for demuxer. Every route target must
// be one of elements and must have the named pad.
func NewResolver(demuxer Element, routes []Route, elements map[Role]Element) (*Resolver, error) {
	r := &Resolver{demuxer: demuxer}
	for _, rt := range routes {
		target, ok := elements[rt.Target]
		if !ok {
			return nil, fmt.Errorf("pipeline: route %s: no %s stage", rt.MediaType, rt.Target)
		}
		if target.StaticPad(rt.Pad) == nil {
			return nil, fmt.Errorf("pipeline: route %s: %s has no pad %q", rt.MediaType, target.Name(), rt.Pad)
		}
		r.routes = append(r.routes, route{mediaType: rt.MediaType, target: target, pad: rt.Pad})
	}
	return r, nil
}

func (r *Resolver) match(mediaType string) (route, bool) {
	if mediaType == "" {
		return route{}, false
	}
	for _, rt := range r.routes {
		if strings.HasPrefix(mediaType, rt.mediaType) {
			return rt, true
		}
	}
	return route{}, false
}

// OnPadAdded handles one new demuxer pad.
//
// A failed link is fatal for the run: it is recorded and posted as an error
// from the demuxer so the bus monitor stops the pipeline.
func (r *Resolver) OnPadAdded(pad Pad) {
	mediaType := pad.MediaType()
	src := r.demuxer.Name() + ":" + pad.Name()

	slog.Debug("pipeline: pad-added signal received", "pad", src, "media_type", mediaType)

	rt, ok := r.match(mediaType)
	if !ok {
		slog.Debug("pipeline: leaving pad unlinked", "pad", src, "media_type", mediaType)
		r.record(&r.ignored, pad.Name())
		return
	}

	sinkPad := rt.target.StaticPad(rt.pad)
	dst := rt.target.Name() + ":" + rt.pad
	if sinkPad.IsLinked() {
		slog.Info("pipeline: target pad already linked, ignoring",
			"pad", src,
			"target", dst,
			"media_type", mediaType,
		)
		r.record(&r.ignored, pad.Name())
		return
	}

	if err := pad.Link(sinkPad); err != nil {
		linkErr := &LinkError{Src: src, Dst: dst, Err: err}
		slog.Error("pipeline: failed to link pads",
			"src_pad", src,
			"sink_pad", dst,
			"error", err,
		)
		r.mu.Lock()
		if r.err == nil {
			r.err = linkErr
		}
		r.mu.Unlock()
		r.demuxer.PostError(linkErr, "media type "+mediaType)
		return
	}

	slog.Info("pipeline: pads linked", "src_pad", src, "sink_pad", dst, "media_type", mediaType)
	r.record(&r.linked, pad.Name())
}

func (r *Resolver) record(list *[]string, name string) {
	r.mu.Lock()
	*list = append(*list, name)
	r.mu.Unlock()
}

// Linked returns the names of the demuxer pads that were linked.
func (r *Resolver) Linked() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.linked...)
}

// Ignored returns the names of the demuxer pads that were left unlinked.
func (r *Resolver) Ignored() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ignored...)
}

// Err returns the first dynamic link failure, or nil.
func (r *Resolver) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
