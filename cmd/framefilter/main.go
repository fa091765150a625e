// Command framefilter plays the H.264 video of an MP4 file, showing only its
// key frames.
//
// Usage:
//
//	framefilter <path>
//
// FRAMEFILTER_CONFIG names an optional YAML configuration file and
// FRAMEFILTER_DEBUG=1 enables debug logging. Pipeline state changes are
// printed to stdout; logs and diagnostics go to stderr.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/config"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/emitter"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/gstreamer"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/observe"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/pipeline"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s <path>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Plays the H.264 stream of an MP4 file, dropping every frame except key frames.\n\n")
		fmt.Fprintf(os.Stderr, "Environment:\n")
		fmt.Fprintf(os.Stderr, "  %s  YAML configuration file (optional)\n", config.EnvConfigPath)
		fmt.Fprintf(os.Stderr, "  %s   set to 1 for debug logging\n", config.EnvDebug)
		os.Exit(1)
	}

	if err := run(os.Args[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	rec := observe.NewRecorder()
	otel.SetMeterProvider(rec.Provider)
	defer func() {
		if err := rec.Shutdown(context.Background()); err != nil {
			slog.Warn("framefilter: metrics shutdown failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := gstreamer.NewBackend()
	if err != nil {
		return err
	}

	asm, err := pipeline.Assemble(backend, cfg.PipelineConfig(path))
	if err != nil {
		return err
	}

	opts := []pipeline.RunOption{}
	if cfg.MQTT.Enabled() {
		em, err := emitter.Connect(ctx, cfg.MQTT)
		if err != nil {
			slog.Warn("framefilter: run events disabled", "error", err)
		} else {
			defer em.Close()
			opts = append(opts, pipeline.WithEvents(em))
		}
	}

	runErr := pipeline.Run(ctx, asm.Graph, opts...)

	totals, err := rec.Totals(context.Background())
	if err != nil {
		slog.Warn("framefilter: failed to read metrics", "error", err)
	} else {
		slog.Info("framefilter: summary",
			"frames_processed", totals["framefilter.frames.processed"],
			"key_frames", totals["framefilter.frames.forwarded"],
			"dropped", totals["framefilter.frames.dropped"],
			"bus_errors", totals["framefilter.bus.errors"],
			"linked_streams", len(asm.Resolver.Linked()),
			"ignored_streams", len(asm.Resolver.Ignored()),
		)
	}
	return runErr
}
