package pipeline

import (
	"fmt"
	"log/slog"
)

// Role names a stage by what it does in the chain.
type Role string

const (
	RoleSource    Role = "source"
	RoleDemuxer   Role = "demuxer"
	RoleParser    Role = "parser"
	RoleFilter    Role = "filter"
	RoleDecoder   Role = "decoder"
	RoleConverter Role = "converter"
	RoleSink      Role = "sink"
)

// Stage is the factory and element name used for one role.
type Stage struct {
	Factory string
	Name    string
}

// Route sends demuxer outputs whose media type starts with MediaType to the
// Pad of the stage playing Target.
type Route struct {
	MediaType string
	Target    Role
	Pad       string
}

// Config describes the chain to assemble.
type Config struct {
	Name     string
	Location string

	Source    Stage
	Demuxer   Stage
	Parser    Stage
	Filter    Stage
	Decoder   Stage
	Converter Stage
	Sink      Stage

	Routes []Route
}

// DefaultConfig returns the H.264 key-frame chain:
//
//	filesrc → qtdemux ⇢ h264parse → frame_filter → avdec_h264 →
//	videoconvert → autovideosink
//
// The demuxer is linked to the parser only once it exposes a video/x-h264
// pad.
func DefaultConfig(location string) Config {
	return Config{
		Name:      "h264_filter_pipeline",
		Location:  location,
		Source:    Stage{Factory: "filesrc", Name: "source"},
		Demuxer:   Stage{Factory: "qtdemux", Name: "demux"},
		Parser:    Stage{Factory: "h264parse", Name: "parser"},
		Filter:    Stage{Factory: "frame_filter", Name: "framefilter"},
		Decoder:   Stage{Factory: "avdec_h264", Name: "decoder"},
		Converter: Stage{Factory: "videoconvert", Name: "converter"},
		Sink:      Stage{Factory: "autovideosink", Name: "auto_sink"},
		Routes: []Route{
			{MediaType: "video/x-h264", Target: RoleParser, Pad: "sink"},
		},
	}
}

type roleStage struct {
	role  Role
	stage Stage
}

// stages returns the stages in chain order.
func (c Config) stages() []roleStage {
	return []roleStage{
		{RoleSource, c.Source},
		{RoleDemuxer, c.Demuxer},
		{RoleParser, c.Parser},
		{RoleFilter, c.Filter},
		{RoleDecoder, c.Decoder},
		{RoleConverter, c.Converter},
		{RoleSink, c.Sink},
	}
}

// Assembly is a built but not yet started pipeline.
type Assembly struct {
	Graph    Graph
	Resolver *Resolver

	elements map[Role]Element
}

// Element returns the stage playing role.
func (a *Assembly) Element(role Role) Element { return a.elements[role] }

// Assemble builds the chain described by cfg on backend without changing
// its state.
//
// Phase one creates every stage and links the edges whose stream type is
// known up front: source → demuxer and parser → … → sink. Phase two hands
// the demuxer's runtime pads to a Resolver.
//
// A stage that cannot be created fails with *MissingElementError; a static
// link that cannot be made fails with *LinkError.
func Assemble(backend Backend, cfg Config) (*Assembly, error) {
	graph, err := backend.NewGraph(cfg.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	stages := cfg.stages()
	elements := make(map[Role]Element, len(stages))
	ordered := make([]Element, 0, len(stages))
	for _, rs := range stages {
		elem, err := backend.MakeElement(rs.stage.Factory, rs.stage.Name)
		if err != nil {
			return nil, &MissingElementError{Factory: rs.stage.Factory, Role: rs.role, Err: err}
		}
		elements[rs.role] = elem
		ordered = append(ordered, elem)
	}

	if err := elements[RoleSource].SetProperty("location", cfg.Location); err != nil {
		return nil, fmt.Errorf("failed to set source location: %w", err)
	}

	if err := graph.Add(ordered...); err != nil {
		return nil, fmt.Errorf("failed to add elements to %s: %w", graph.Name(), err)
	}

	if err := linkChain(elements[RoleSource], elements[RoleDemuxer]); err != nil {
		return nil, err
	}
	if err := linkChain(
		elements[RoleParser],
		elements[RoleFilter],
		elements[RoleDecoder],
		elements[RoleConverter],
		elements[RoleSink],
	); err != nil {
		return nil, err
	}

	demuxer := elements[RoleDemuxer]
	resolver, err := NewResolver(demuxer, cfg.Routes, elements)
	if err != nil {
		return nil, err
	}
	demuxer.OnPadAdded(resolver.OnPadAdded)

	slog.Info("pipeline: assembled",
		"pipeline", graph.Name(),
		"location", cfg.Location,
		"decoder", cfg.Decoder.Factory,
		"sink", cfg.Sink.Factory,
		"routes", len(cfg.Routes),
	)

	return &Assembly{Graph: graph, Resolver: resolver, elements: elements}, nil
}

// linkChain links each element to the next.
func linkChain(elems ...Element) error {
	for i := 0; i+1 < len(elems); i++ {
		src, dst := elems[i], elems[i+1]
		if err := src.Link(dst); err != nil {
			return &LinkError{Src: src.Name(), Dst: dst.Name(), Err: err}
		}
	}
	return nil
}
