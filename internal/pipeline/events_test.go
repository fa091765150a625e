package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media/mediatest"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Emit(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	kinds := make([]EventKind, len(l.events))
	for i, ev := range l.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func (l *eventLog) all() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

func TestRun_EventsOnCleanRun(t *testing.T) {
	backend, _ := newBackend(t, mediatest.Options{Buffers: mediatest.GOP(20, 10)})
	a, err := Assemble(backend, DefaultConfig("sample.mp4"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	log := &eventLog{}
	if err := runWithTimeout(t, context.Background(), a.Graph, WithOutput(&syncBuffer{}), WithEvents(log)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	events := log.all()
	if len(events) < 3 {
		t.Fatalf("got %d events, want at least started, state-changed, finished", len(events))
	}
	if events[0].Kind != EventStarted {
		t.Errorf("first event = %s, want started", events[0].Kind)
	}
	last := events[len(events)-1]
	if last.Kind != EventFinished || !last.Clean {
		t.Errorf("last event = %+v, want clean finished", last)
	}

	runID := events[0].RunID
	if runID == "" {
		t.Fatal("events carry no run id")
	}
	for _, ev := range events {
		if ev.RunID != runID || ev.Pipeline != "h264_filter_pipeline" {
			t.Errorf("event %s: run %q pipeline %q", ev.Kind, ev.RunID, ev.Pipeline)
		}
		if ev.Kind == EventError {
			t.Errorf("unexpected error event: %+v", ev)
		}
	}

	var sawReady bool
	for _, ev := range events {
		if ev.Kind == EventStateChanged && ev.OldState == "null" && ev.NewState == "ready" {
			sawReady = true
		}
	}
	if !sawReady {
		t.Errorf("no null -> ready event in %v", log.kinds())
	}
	t.Logf("✅ events: %v", log.kinds())
}

func TestRun_EventsOnBusError(t *testing.T) {
	backend, _ := newBackend(t, mediatest.Options{SinkFailAfter: 2})
	a, err := Assemble(backend, DefaultConfig("sample.mp4"))
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	log := &eventLog{}
	if err := runWithTimeout(t, context.Background(), a.Graph, WithOutput(&syncBuffer{}), WithEvents(log)); err == nil {
		t.Fatal("Run succeeded, want error")
	}

	events := log.all()
	var errEvent *Event
	for i := range events {
		if events[i].Kind == EventError {
			errEvent = &events[i]
		}
	}
	if errEvent == nil {
		t.Fatalf("no error event in %v", log.kinds())
	}
	if errEvent.Source != "auto_sink" || errEvent.Category == "" {
		t.Errorf("error event = %+v", *errEvent)
	}
	last := events[len(events)-1]
	if last.Kind != EventFinished || last.Clean {
		t.Errorf("last event = %+v, want unclean finished", last)
	}
}

func TestRun_EventsStartFailure(t *testing.T) {
	backend, _ := newBackend(t, mediatest.Options{})
	g, err := backend.NewGraph("pipe")
	if err != nil {
		t.Fatal(err)
	}

	log := &eventLog{}
	err = Run(context.Background(), &failingGraph{Graph: g}, WithOutput(&syncBuffer{}), WithEvents(log))
	if err == nil {
		t.Fatal("Run succeeded, want start failure")
	}
	if kinds := log.kinds(); len(kinds) != 0 {
		t.Errorf("events after failed start = %v, want none", kinds)
	}
}
