// Package observe holds the OpenTelemetry instruments shared by the frame
// filter and the pipeline driver.
//
// Instruments are created from a [metric.MeterProvider]. Production code uses
// [DefaultMetrics], which binds to the global provider (a no-op unless the
// embedding program installs one); tests build their own with [NewMetrics]
// and an SDK ManualReader.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope of every instrument below.
const meterName = "github.com/bshubenok-sigma/gstreamer-framefilter"

// Metrics holds the metric instruments. All fields are safe for concurrent
// use.
type Metrics struct {
	// FramesProcessed counts every buffer the frame filter observed.
	FramesProcessed metric.Int64Counter

	// FramesForwarded counts key frames pushed downstream.
	FramesForwarded metric.Int64Counter

	// FramesDropped counts delta frames consumed by the filter.
	FramesDropped metric.Int64Counter

	// FlowErrors counts non-ok downstream results. Use with attribute:
	//   attribute.String("flow", ...)
	FlowErrors metric.Int64Counter

	// BusErrors counts error messages seen on the pipeline bus. Use with
	// attributes:
	//   attribute.String("source", ...), attribute.String("category", ...)
	BusErrors metric.Int64Counter

	// StateChanges counts state-changed messages of the pipeline itself.
	// Use with attribute:
	//   attribute.String("state", ...)
	StateChanges metric.Int64Counter

	// RunDuration tracks wall time of a complete pipeline run.
	RunDuration metric.Float64Histogram
}

// NewMetrics creates every instrument from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.FramesProcessed, err = m.Int64Counter("framefilter.frames.processed",
		metric.WithDescription("Buffers observed by the frame filter."),
	); err != nil {
		return nil, err
	}
	if met.FramesForwarded, err = m.Int64Counter("framefilter.frames.forwarded",
		metric.WithDescription("Key frames forwarded downstream."),
	); err != nil {
		return nil, err
	}
	if met.FramesDropped, err = m.Int64Counter("framefilter.frames.dropped",
		metric.WithDescription("Delta frames dropped by the frame filter."),
	); err != nil {
		return nil, err
	}
	if met.FlowErrors, err = m.Int64Counter("framefilter.flow.errors",
		metric.WithDescription("Downstream push results other than ok, by flow name."),
	); err != nil {
		return nil, err
	}
	if met.BusErrors, err = m.Int64Counter("framefilter.bus.errors",
		metric.WithDescription("Error messages received on the pipeline bus, by source and category."),
	); err != nil {
		return nil, err
	}
	if met.StateChanges, err = m.Int64Counter("framefilter.pipeline.state_changes",
		metric.WithDescription("Pipeline state transitions, by new state."),
	); err != nil {
		return nil, err
	}
	if met.RunDuration, err = m.Float64Histogram("framefilter.run.duration",
		metric.WithDescription("Wall time of a complete pipeline run."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level instance bound to
// [otel.GetMeterProvider]. Panics if instrument creation fails, which the
// global provider never does.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordFrame counts one observed buffer and its outcome.
func (m *Metrics) RecordFrame(ctx context.Context, forwarded bool) {
	m.FramesProcessed.Add(ctx, 1)
	if forwarded {
		m.FramesForwarded.Add(ctx, 1)
	} else {
		m.FramesDropped.Add(ctx, 1)
	}
}

// RecordFlowError counts a downstream push that did not return ok.
func (m *Metrics) RecordFlowError(ctx context.Context, flow string) {
	m.FlowErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("flow", flow)))
}

// RecordBusError counts an error message from source, classified as category.
func (m *Metrics) RecordBusError(ctx context.Context, source, category string) {
	m.BusErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("category", category),
	))
}

// RecordStateChange counts a pipeline transition into state.
func (m *Metrics) RecordStateChange(ctx context.Context, state string) {
	m.StateChanges.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}
