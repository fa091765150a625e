package mediatest

import (
	"sync"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
)

// Factory names of the stand-ins, matching the GStreamer elements they
// replace.
const (
	FactorySource    = "filesrc"
	FactoryDemuxer   = "qtdemux"
	FactoryParser    = "h264parse"
	FactoryDecoder   = "avdec_h264"
	FactoryConverter = "videoconvert"
	FactorySink      = "autovideosink"
)

// Options configures the stand-in registry.
type Options struct {
	// Buffers is what the source emits. Defaults to GOP(100, 10).
	Buffers []*media.Buffer
	// Streams is what the demuxer exposes. Defaults to one H.264 video and
	// one AAC audio stream.
	Streams []Stream
	// Omit lists factories to leave unregistered.
	Omit []string
	// SinkFailAfter makes the sink fail on its n-th buffer.
	SinkFailAfter int
	// Repeat makes the source loop over Buffers until it receives EOS.
	Repeat bool
}

// Handles gives tests access to the elements the registry created.
type Handles struct {
	mu      sync.Mutex
	source  *Source
	demuxer *Demuxer
	sink    *Sink
}

func (h *Handles) Source() *Source {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.source
}

func (h *Handles) Demuxer() *Demuxer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.demuxer
}

func (h *Handles) Sink() *Sink {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sink
}

// NewRegistry returns a registry with every stand-in factory except those in
// opts.Omit.
func NewRegistry(opts Options) (*media.Registry, *Handles) {
	if opts.Buffers == nil {
		opts.Buffers = GOP(100, 10)
	}
	if opts.Streams == nil {
		opts.Streams = []Stream{
			{PadName: "video_0", Caps: CapsH264},
			{PadName: "audio_0", Caps: CapsAAC},
		}
	}
	omit := make(map[string]bool, len(opts.Omit))
	for _, name := range opts.Omit {
		omit[name] = true
	}

	reg := media.NewRegistry()
	h := &Handles{}

	factories := map[string]media.Factory{
		FactorySource: func(name string) (media.Element, error) {
			s := NewSource(name, opts.Buffers)
			s.Repeat = opts.Repeat
			h.mu.Lock()
			h.source = s
			h.mu.Unlock()
			return s, nil
		},
		FactoryDemuxer: func(name string) (media.Element, error) {
			d := NewDemuxer(name, opts.Streams...)
			h.mu.Lock()
			h.demuxer = d
			h.mu.Unlock()
			return d, nil
		},
		FactoryParser: func(name string) (media.Element, error) {
			return NewPassthrough(name, "video/x-h264", CapsH264), nil
		},
		FactoryDecoder: func(name string) (media.Element, error) {
			return NewPassthrough(name, "video/x-h264", CapsRaw), nil
		},
		FactoryConverter: func(name string) (media.Element, error) {
			return NewPassthrough(name, "video/x-raw", CapsRaw), nil
		},
		FactorySink: func(name string) (media.Element, error) {
			s := NewSink(name, "video/x-raw")
			s.FailAfter = opts.SinkFailAfter
			h.mu.Lock()
			h.sink = s
			h.mu.Unlock()
			return s, nil
		},
	}
	for name, f := range factories {
		if omit[name] {
			continue
		}
		_ = reg.Register(name, f)
	}
	return reg, h
}
