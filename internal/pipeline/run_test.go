package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media/mediatest"
)

func TestRun_KeyFrameIntervalTen(t *testing.T) {
	backend, handles := newBackend(t, mediatest.Options{Buffers: mediatest.GOP(100, 10)})
	a, err := Assemble(backend, DefaultConfig("sample.mp4"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	out := &syncBuffer{}
	metrics, reader := newTestMetrics(t)
	if err := runWithTimeout(t, context.Background(), a.Graph, WithOutput(out), WithMetrics(metrics)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	received := handles.Sink().Received()
	if len(received) != 10 {
		t.Fatalf("sink received %d buffers, want 10", len(received))
	}
	for i, b := range received {
		if b.IsDeltaUnit() || b.Offset != uint64(i*10) {
			t.Errorf("buffer %d: offset %d delta %v", i, b.Offset, b.IsDeltaUnit())
		}
	}
	if got := frameFilter(t, a).FrameCount(); got != 100 {
		t.Errorf("FrameCount() = %d, want 100", got)
	}

	if got := runtimePipeline(t, a.Graph).State(); got != media.StateNull {
		t.Errorf("pipeline state = %s, want null", got)
	}
	if !strings.Contains(out.String(), "State changed from h264_filter_pipeline: null -> ready (playing)") {
		t.Errorf("missing pipeline state line in output:\n%s", out.String())
	}
	if n := counterTotal(t, reader, "framefilter.bus.errors"); n != 0 {
		t.Errorf("bus errors = %d", n)
	}
	t.Logf("✅ 100 frames, GOP 10 → %d forwarded", len(received))
}

func TestRun_BusErrorStopsPipeline(t *testing.T) {
	backend, handles := newBackend(t, mediatest.Options{SinkFailAfter: 3})
	spy := &spyBackend{Backend: backend}
	a, err := Assemble(spy, DefaultConfig("sample.mp4"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	metrics, reader := newTestMetrics(t)
	err = runWithTimeout(t, context.Background(), a.Graph, WithOutput(&syncBuffer{}), WithMetrics(metrics))

	var report *ErrorMessage
	if !errors.As(err, &report) {
		t.Fatalf("Run err = %v, want *ErrorMessage", err)
	}
	if report.Source != "auto_sink" {
		t.Errorf("error source = %q, want auto_sink", report.Source)
	}
	if !errors.Is(err, mediatest.ErrInjected) {
		t.Errorf("error does not wrap the injected failure: %v", err)
	}
	if !strings.Contains(err.Error(), "received error from auto_sink") {
		t.Errorf("Error() = %q", err.Error())
	}

	if got := runtimePipeline(t, a.Graph).State(); got != media.StateNull {
		t.Errorf("pipeline state = %s, want null", got)
	}
	calls := spy.graphs[0].SetStateCalls()
	if len(calls) != 2 || calls[0] != media.StatePlaying || calls[1] != media.StateNull {
		t.Errorf("SetState calls = %v, want [playing null]", calls)
	}
	if got := len(handles.Sink().Received()); got != 3 {
		t.Errorf("sink received %d buffers, want 3", got)
	}
	if n := counterTotal(t, reader, "framefilter.bus.errors"); n != 1 {
		t.Errorf("bus errors = %d, want 1", n)
	}
}

func TestRun_NoVideoStream(t *testing.T) {
	backend, handles := newBackend(t, mediatest.Options{
		Streams: []mediatest.Stream{{PadName: "audio_0", Caps: mediatest.CapsAAC}},
	})
	a, err := Assemble(backend, DefaultConfig("audio-only.mp4"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	err = runWithTimeout(t, context.Background(), a.Graph, WithOutput(&syncBuffer{}))

	var report *ErrorMessage
	if !errors.As(err, &report) {
		t.Fatalf("Run err = %v, want *ErrorMessage", err)
	}
	if report.Source != "source" || report.Category != ErrCategoryFlow {
		t.Errorf("report = %+v, want flow error from source", report)
	}
	if a.Resolver.Err() != nil {
		t.Errorf("unmatched stream treated as a link failure: %v", a.Resolver.Err())
	}
	if got := len(handles.Sink().Received()); got != 0 {
		t.Errorf("sink received %d buffers", got)
	}
}

func TestRun_CancelSendsEndOfStream(t *testing.T) {
	backend, handles := newBackend(t, mediatest.Options{Repeat: true})
	a, err := Assemble(backend, DefaultConfig("live.mp4"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := runWithTimeout(t, ctx, a.Graph, WithOutput(&syncBuffer{})); err != nil {
		t.Fatalf("Run: %v", err)
	}

	events := handles.Sink().Events()
	if len(events) == 0 || events[len(events)-1] != media.EventEOS {
		t.Errorf("sink events = %v, want trailing eos", events)
	}
	if got := runtimePipeline(t, a.Graph).State(); got != media.StateNull {
		t.Errorf("pipeline state = %s, want null", got)
	}
}

type failingGraph struct {
	Graph
	calls []media.State
}

func (g *failingGraph) SetState(s media.State) error {
	g.calls = append(g.calls, s)
	if s == media.StatePlaying {
		return errors.New("state change failure")
	}
	return nil
}

func TestRun_StartFailureStopsPipeline(t *testing.T) {
	backend, _ := newBackend(t, mediatest.Options{})
	g, err := backend.NewGraph("pipe")
	if err != nil {
		t.Fatal(err)
	}
	fg := &failingGraph{Graph: g}

	err = Run(context.Background(), fg, WithOutput(&syncBuffer{}))
	if err == nil || !strings.Contains(err.Error(), "playing") {
		t.Fatalf("Run err = %v", err)
	}
	if len(fg.calls) != 2 || fg.calls[1] != media.StateNull {
		t.Errorf("SetState calls = %v, want [playing null]", fg.calls)
	}
}

type closedGraph struct{ Graph }

func (closedGraph) SetState(media.State) error { return nil }
func (closedGraph) Pop() *media.Message        { return nil }

func TestRun_BusGone(t *testing.T) {
	backend, _ := newBackend(t, mediatest.Options{})
	g, _ := backend.NewGraph("pipe")

	err := runWithTimeout(t, context.Background(), closedGraph{g}, WithOutput(&syncBuffer{}))
	if !errors.Is(err, ErrBusGone) {
		t.Fatalf("Run err = %v, want ErrBusGone", err)
	}
}
