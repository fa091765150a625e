package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/observe"
)

// MonitorState is the state of the bus monitor.
type MonitorState int

const (
	MonitorRunning MonitorState = iota
	MonitorTerminatedClean
	MonitorTerminatedError
)

func (s MonitorState) String() string {
	switch s {
	case MonitorRunning:
		return "running"
	case MonitorTerminatedClean:
		return "terminated-clean"
	case MonitorTerminatedError:
		return "terminated-error"
	default:
		return fmt.Sprintf("monitor-state(%d)", int(s))
	}
}

// Terminal reports whether the monitor has stopped consuming messages.
func (s MonitorState) Terminal() bool { return s != MonitorRunning }

// Monitor is the bus monitor state machine:
//
//	running --eos-->   terminated-clean
//	running --error--> terminated-error
//
// State-changed messages are written to the diagnostic output and keep the
// monitor running. Warnings are logged. Everything else is ignored. Once
// terminal, the monitor ignores further messages.
type Monitor struct {
	graph   string
	out     io.Writer
	metrics *observe.Metrics
	logger  *slog.Logger

	state MonitorState
	err   *ErrorMessage

	stateChanges int
}

// NewMonitor returns a running monitor for the pipeline called graph.
// State-change lines go to out.
func NewMonitor(graph string, out io.Writer, metrics *observe.Metrics, logger *slog.Logger) *Monitor {
	if out == nil {
		out = io.Discard
	}
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{graph: graph, out: out, metrics: metrics, logger: logger}
}

// State returns the current monitor state.
func (m *Monitor) State() MonitorState { return m.state }

// Err returns the report of the error that terminated the monitor, or nil.
func (m *Monitor) Err() *ErrorMessage { return m.err }

// StateChanges returns how many state-changed messages were seen.
func (m *Monitor) StateChanges() int { return m.stateChanges }

// Handle advances the state machine with one message and returns the new
// state.
func (m *Monitor) Handle(ctx context.Context, msg *media.Message) MonitorState {
	if m.state.Terminal() || msg == nil {
		return m.state
	}

	switch msg.Type {
	case media.MessageEOS:
		m.onEOS(msg)
	case media.MessageError:
		m.onError(ctx, msg)
	case media.MessageStateChanged:
		m.onStateChanged(ctx, msg)
	case media.MessageWarning:
		m.onWarning(msg)
	}
	return m.state
}

func (m *Monitor) onEOS(msg *media.Message) {
	m.logger.Info("pipeline: end of stream received", "source", msg.Source)
	m.state = MonitorTerminatedClean
}

func (m *Monitor) onError(ctx context.Context, msg *media.Message) {
	report := newErrorMessage(msg)
	m.metrics.RecordBusError(ctx, report.Source, report.Category.String())

	m.logger.Error("pipeline: error received",
		"source", report.Source,
		"error", report.Message,
		"debug", report.Debug,
		"category", report.Category.String(),
	)
	m.err = report
	m.state = MonitorTerminatedError
}

func (m *Monitor) onStateChanged(ctx context.Context, msg *media.Message) {
	m.stateChanges++
	fmt.Fprintf(m.out, "State changed from %s: %s -> %s (%s)\n",
		msg.Source, msg.OldState, msg.NewState, msg.PendingState)

	if msg.Source == m.graph {
		m.metrics.RecordStateChange(ctx, msg.NewState.String())
		m.logger.Debug("pipeline: state changed",
			"from", msg.OldState.String(),
			"to", msg.NewState.String(),
		)
	}
}

func (m *Monitor) onWarning(msg *media.Message) {
	text := ""
	if msg.Err != nil {
		text = msg.Err.Error()
	}
	m.logger.Warn("pipeline: warning received",
		"source", msg.Source,
		"warning", text,
		"debug", msg.Debug,
	)
}
