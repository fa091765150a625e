package media_test

import (
	"errors"
	"testing"
	"time"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media/mediatest"
)

// stateRecorder fails the step named by failOn.
type stateRecorder struct {
	*media.ElementBase
	log    *[]string
	failOn media.StateChange
}

func newRecorder(name string, log *[]string) *stateRecorder {
	return &stateRecorder{ElementBase: media.NewElementBase(name, nil), log: log}
}

func (r *stateRecorder) ChangeState(c media.StateChange) error {
	if c == r.failOn {
		return errors.New("refused")
	}
	*r.log = append(*r.log, r.Name()+" "+c.String())
	return nil
}

func drain(bus *media.Bus) []*media.Message {
	var msgs []*media.Message
	for msg := bus.TryPop(); msg != nil; msg = bus.TryPop() {
		msgs = append(msgs, msg)
	}
	return msgs
}

func TestPipeline_SetStateWalksSteps(t *testing.T) {
	var log []string
	p := media.NewPipeline("pipe")
	if err := p.Add(newRecorder("src", &log), newRecorder("sink", &log)); err != nil {
		t.Fatal(err)
	}

	if err := p.SetState(media.StatePlaying); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if p.State() != media.StatePlaying || p.Transitions() != 3 {
		t.Fatalf("state %s after %d transitions", p.State(), p.Transitions())
	}

	// Sinks change first.
	wantLog := []string{
		"sink null->ready", "src null->ready",
		"sink ready->paused", "src ready->paused",
		"sink paused->playing", "src paused->playing",
	}
	if len(log) != len(wantLog) {
		t.Fatalf("log = %v", log)
	}
	for i := range wantLog {
		if log[i] != wantLog[i] {
			t.Errorf("log[%d] = %q, want %q", i, log[i], wantLog[i])
		}
	}

	msgs := drain(p.Bus())
	if len(msgs) != 9 {
		t.Fatalf("%d bus messages, want 9", len(msgs))
	}
	last := msgs[len(msgs)-1]
	if last.Source != "pipe" || last.OldState != media.StatePaused || last.NewState != media.StatePlaying || last.PendingState != media.StateVoidPending {
		t.Errorf("last message = %s", last)
	}
	if first := msgs[0]; first.PendingState != media.StatePlaying {
		t.Errorf("first message pending = %s, want playing", first.PendingState)
	}

	log = nil
	if err := p.SetState(media.StateNull); err != nil {
		t.Fatal(err)
	}
	if p.State() != media.StateNull || len(log) != 6 || log[0] != "sink playing->paused" {
		t.Errorf("stop: state %s log %v", p.State(), log)
	}
}

func TestPipeline_SetStateFailure(t *testing.T) {
	var log []string
	bad := newRecorder("decoder", &log)
	bad.failOn = media.StateChange{From: media.StateReady, To: media.StatePaused}

	p := media.NewPipeline("pipe")
	if err := p.Add(newRecorder("src", &log), bad); err != nil {
		t.Fatal(err)
	}

	if err := p.SetState(media.StatePlaying); err == nil {
		t.Fatal("SetState succeeded")
	}
	if p.State() != media.StateReady {
		t.Errorf("state = %s, want ready", p.State())
	}

	var sawError bool
	for _, msg := range drain(p.Bus()) {
		if msg.Type == media.MessageError && msg.Source == "decoder" {
			sawError = true
		}
	}
	if !sawError {
		t.Error("no error message from the failing element")
	}
}

func TestPipeline_Ownership(t *testing.T) {
	a := media.NewPipeline("a")
	b := media.NewPipeline("b")
	e := media.NewElementBase("x", nil)
	var log []string
	r := &stateRecorder{ElementBase: e, log: &log}

	if err := a.Add(r); err != nil {
		t.Fatal(err)
	}
	if err := a.Add(newRecorder("x", &log)); !errors.Is(err, media.ErrDuplicateName) {
		t.Errorf("duplicate name: %v", err)
	}
	if err := b.Add(r); !errors.Is(err, media.ErrAlreadyOwned) {
		t.Errorf("second pipeline: %v", err)
	}
	if a.ByName("x") == nil || b.ByName("x") != nil {
		t.Error("ByName mismatch")
	}
}

// TestPipeline_StopUnblocksStreaming stops a pipeline whose source pushes
// forever: the stop must return and the source must end on a flushing
// result.
func TestPipeline_StopUnblocksStreaming(t *testing.T) {
	src := mediatest.NewSource("source", mediatest.GOP(10, 5))
	src.Repeat = true
	sink := mediatest.NewSink("sink", "ANY")

	p := media.NewPipeline("pipe")
	if err := p.Add(src, sink); err != nil {
		t.Fatal(err)
	}
	if err := media.LinkMany(src, sink); err != nil {
		t.Fatal(err)
	}
	if err := p.SetState(media.StatePlaying); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for len(sink.Received()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	done := make(chan error, 1)
	go func() { done <- p.SetState(media.StateNull) }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("stop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stopping the pipeline hung")
	}

	for _, msg := range drain(p.Bus()) {
		if msg.Type == media.MessageError {
			t.Errorf("stop produced an error: %s", msg)
		}
	}
	if src.StaticPad("src").IsFlushing() == false {
		t.Error("source pad still active after stop")
	}
}

func TestPipeline_SendEventReachesSources(t *testing.T) {
	src := mediatest.NewSource("source", nil)
	sink := mediatest.NewSink("sink", "ANY")
	p := media.NewPipeline("pipe")
	if err := p.Add(src, sink); err != nil {
		t.Fatal(err)
	}
	if !p.SendEvent(media.NewEOSEvent()) {
		t.Error("EOS not accepted by the source")
	}
}

func TestRegistry(t *testing.T) {
	reg := media.NewRegistry()
	if err := reg.Register("fakesink", func(name string) (media.Element, error) {
		return mediatest.NewSink(name, "ANY"), nil
	}); err != nil {
		t.Fatal(err)
	}

	e, err := reg.Make("fakesink", "")
	if err != nil || e.Name() != "fakesink" {
		t.Fatalf("Make = %v, %v", e, err)
	}
	if _, err := reg.Make("avdec_h264", "decoder"); !errors.Is(err, media.ErrNoSuchFactory) {
		t.Errorf("unknown factory: %v", err)
	}
	if !reg.Has("fakesink") || len(reg.Names()) != 1 {
		t.Errorf("Names() = %v", reg.Names())
	}
}
