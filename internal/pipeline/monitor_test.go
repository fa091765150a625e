package pipeline

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
)

func TestMonitor_Transitions(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name      string
		msgs      []*media.Message
		wantState MonitorState
		wantErr   bool
	}{
		{
			name:      "no messages",
			wantState: MonitorRunning,
		},
		{
			name:      "eos",
			msgs:      []*media.Message{media.NewEOSMessage("auto_sink")},
			wantState: MonitorTerminatedClean,
		},
		{
			name:      "error",
			msgs:      []*media.Message{media.NewErrorMessage("decoder", boom, "decode failed")},
			wantState: MonitorTerminatedError,
			wantErr:   true,
		},
		{
			name: "state changes stay running",
			msgs: []*media.Message{
				media.NewStateChangedMessage("pipe", media.StateNull, media.StateReady, media.StatePlaying),
				media.NewStateChangedMessage("pipe", media.StateReady, media.StatePaused, media.StatePlaying),
			},
			wantState: MonitorRunning,
		},
		{
			name: "warning and other kinds are not terminal",
			msgs: []*media.Message{
				media.NewWarningMessage("source", boom, ""),
				{Type: media.MessageStreamStart, Source: "pipe"},
				{Type: media.MessageElement, Source: "auto_sink"},
				{Type: media.MessageInfo, Source: "parser"},
				{Type: media.MessageUnknown},
			},
			wantState: MonitorRunning,
		},
		{
			name: "error after eos is ignored",
			msgs: []*media.Message{
				media.NewEOSMessage("auto_sink"),
				media.NewErrorMessage("decoder", boom, ""),
			},
			wantState: MonitorTerminatedClean,
		},
		{
			name: "first error wins",
			msgs: []*media.Message{
				media.NewErrorMessage("auto_sink", boom, ""),
				media.NewErrorMessage("source", errors.New("internal data stream error"), ""),
				media.NewEOSMessage("auto_sink"),
			},
			wantState: MonitorTerminatedError,
			wantErr:   true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := NewMonitor("pipe", nil, nil, nil)
			state := m.State()
			for _, msg := range tc.msgs {
				state = m.Handle(context.Background(), msg)
			}
			if state != tc.wantState || m.State() != tc.wantState {
				t.Errorf("state = %s, want %s", state, tc.wantState)
			}
			if tc.wantErr != (m.Err() != nil) {
				t.Errorf("Err() = %v, wantErr %v", m.Err(), tc.wantErr)
			}
		})
	}
}

func TestMonitor_ErrorReport(t *testing.T) {
	cause := errors.New("Could not open resource for reading.")
	m := NewMonitor("pipe", nil, nil, nil)
	m.Handle(context.Background(), media.NewErrorMessage("source", cause, "gstfilesrc.c(532): No such file"))

	report := m.Err()
	if report == nil {
		t.Fatal("no error report")
	}
	if report.Source != "source" {
		t.Errorf("Source = %q", report.Source)
	}
	if report.Message != cause.Error() {
		t.Errorf("Message = %q", report.Message)
	}
	if report.Debug != "gstfilesrc.c(532): No such file" {
		t.Errorf("Debug = %q", report.Debug)
	}
	if report.Category != ErrCategoryResource {
		t.Errorf("Category = %s, want resource", report.Category)
	}
	if !errors.Is(report, cause) {
		t.Error("report does not unwrap to the bus error")
	}
}

func TestMonitor_StateChangeLines(t *testing.T) {
	var out bytes.Buffer
	metrics, reader := newTestMetrics(t)
	m := NewMonitor("pipe", &out, metrics, nil)

	ctx := context.Background()
	m.Handle(ctx, media.NewStateChangedMessage("pipe", media.StateNull, media.StateReady, media.StatePlaying))
	m.Handle(ctx, media.NewStateChangedMessage("framefilter", media.StateReady, media.StatePaused, media.StatePlaying))
	m.Handle(ctx, media.NewStateChangedMessage("pipe", media.StatePaused, media.StatePlaying, media.StateVoidPending))

	want := []string{
		"State changed from pipe: null -> ready (playing)",
		"State changed from framefilter: ready -> paused (playing)",
		"State changed from pipe: paused -> playing (void-pending)",
	}
	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(got) != len(want) {
		t.Fatalf("lines = %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
	if m.StateChanges() != 3 {
		t.Errorf("StateChanges() = %d", m.StateChanges())
	}
	// Only the pipeline's own transitions are counted.
	if n := counterTotal(t, reader, "framefilter.pipeline.state_changes"); n != 2 {
		t.Errorf("state change metric = %d, want 2", n)
	}
}

func TestMonitorState_String(t *testing.T) {
	for state, want := range map[MonitorState]string{
		MonitorRunning:         "running",
		MonitorTerminatedClean: "terminated-clean",
		MonitorTerminatedError: "terminated-error",
	} {
		if got := state.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(state), got, want)
		}
		if state.Terminal() == (state == MonitorRunning) {
			t.Errorf("%s.Terminal() = %v", state, state.Terminal())
		}
	}
}
