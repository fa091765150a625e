package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/observe"
)

// ErrBusGone is returned when the bus stops delivering messages before the
// stream ended.
var ErrBusGone = errors.New("pipeline: bus closed before end of stream")

type runOptions struct {
	out     io.Writer
	metrics *observe.Metrics
	events  EventSink
}

// RunOption configures Run.
type RunOption func(*runOptions)

// WithOutput sets where state-change lines are written. Defaults to stdout.
func WithOutput(w io.Writer) RunOption {
	return func(o *runOptions) { o.out = w }
}

// WithMetrics records run metrics on m.
func WithMetrics(m *observe.Metrics) RunOption {
	return func(o *runOptions) { o.metrics = m }
}

// Run plays graph until end-of-stream or an error message and always leaves
// it in StateNull.
//
// It returns nil on a clean end-of-stream and *ErrorMessage when a stage
// reported an error; in that case the pipeline is stopped before Run
// returns. Cancelling ctx sends end-of-stream into the pipeline so it drains
// and finishes cleanly.
func Run(ctx context.Context, graph Graph, opts ...RunOption) error {
	o := runOptions{out: os.Stdout, events: discardEvents{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}

	runID := uuid.New().String()
	logger := slog.With("run_id", runID, "pipeline", graph.Name())
	monitor := NewMonitor(graph.Name(), o.out, o.metrics, logger)
	started := time.Now()
	newEvent := func(kind EventKind) Event {
		return Event{Kind: kind, RunID: runID, Pipeline: graph.Name(), Time: time.Now()}
	}

	logger.Info("pipeline: starting")

	if err := graph.SetState(media.StatePlaying); err != nil {
		logger.Error("pipeline: failed to start", "error", err)
		if stopErr := graph.SetState(media.StateNull); stopErr != nil {
			logger.Error("pipeline: failed to stop", "error", stopErr)
		}
		return fmt.Errorf("failed to set %s to playing: %w", graph.Name(), err)
	}
	o.events.Emit(newEvent(EventStarted))

	done := make(chan struct{})
	var eg errgroup.Group

	eg.Go(func() error {
		select {
		case <-done:
		case <-ctx.Done():
			logger.Info("pipeline: interrupted, sending end-of-stream")
			if !graph.SendEOS() {
				logger.Warn("pipeline: end-of-stream not accepted by any source")
			}
		}
		return nil
	})

	eg.Go(func() error {
		defer close(done)
		for {
			msg := graph.Pop()
			if msg == nil {
				return ErrBusGone
			}
			state := monitor.Handle(ctx, msg)
			if msg.Type == media.MessageStateChanged && msg.Source == graph.Name() {
				ev := newEvent(EventStateChanged)
				ev.OldState = msg.OldState.String()
				ev.NewState = msg.NewState.String()
				ev.PendingState = msg.PendingState.String()
				o.events.Emit(ev)
			}
			switch state {
			case MonitorTerminatedClean:
				return nil
			case MonitorTerminatedError:
				report := monitor.Err()
				ev := newEvent(EventError)
				ev.Source = report.Source
				ev.Message = report.Message
				ev.Debug = report.Debug
				ev.Category = report.Category.String()
				o.events.Emit(ev)
				return report
			}
		}
	})

	runErr := eg.Wait()

	if err := graph.SetState(media.StateNull); err != nil {
		logger.Error("pipeline: failed to stop", "error", err)
		if runErr == nil {
			runErr = fmt.Errorf("failed to set %s to null: %w", graph.Name(), err)
		}
	}

	elapsed := time.Since(started)
	o.metrics.RunDuration.Record(ctx, elapsed.Seconds())

	finished := newEvent(EventFinished)
	finished.DurationSeconds = elapsed.Seconds()
	finished.Clean = runErr == nil
	o.events.Emit(finished)

	if runErr != nil {
		logger.Error("pipeline: run failed", "error", runErr, "duration", elapsed)
		return runErr
	}
	logger.Info("pipeline: finished",
		"duration", elapsed,
		"state_changes", monitor.StateChanges(),
	)
	return nil
}
