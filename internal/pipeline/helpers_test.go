package pipeline

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/framefilter"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/media/mediatest"
	"github.com/bshubenok-sigma/gstreamer-framefilter/internal/observe"
)

// newBackend returns a native backend with the stand-in stages and the
// frame filter registered.
func newBackend(t *testing.T, opts mediatest.Options) (*NativeBackend, *mediatest.Handles) {
	t.Helper()
	reg, handles := mediatest.NewRegistry(opts)
	if err := framefilter.Register(reg); err != nil {
		t.Fatalf("register frame filter: %v", err)
	}
	return NewNativeBackend(reg), handles
}

// spyBackend records every SetState call made on the graphs it creates.
type spyBackend struct {
	Backend
	graphs []*spyGraph
}

func (b *spyBackend) NewGraph(name string) (Graph, error) {
	g, err := b.Backend.NewGraph(name)
	if err != nil {
		return nil, err
	}
	sg := &spyGraph{Graph: g}
	b.graphs = append(b.graphs, sg)
	return sg, nil
}

type spyGraph struct {
	Graph

	mu        sync.Mutex
	setStates []media.State
}

func (g *spyGraph) SetState(s media.State) error {
	g.mu.Lock()
	g.setStates = append(g.setStates, s)
	g.mu.Unlock()
	return g.Graph.SetState(s)
}

func (g *spyGraph) SetStateCalls() []media.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]media.State(nil), g.setStates...)
}

// runtimePipeline unwraps the native pipeline behind an assembled graph.
func runtimePipeline(t *testing.T, g Graph) *media.Pipeline {
	t.Helper()
	if sg, ok := g.(*spyGraph); ok {
		g = sg.Graph
	}
	ng, ok := g.(*nativeGraph)
	if !ok {
		t.Fatalf("graph %T is not native", g)
	}
	return ng.Pipeline()
}

func frameFilter(t *testing.T, a *Assembly) *framefilter.Element {
	t.Helper()
	ne, ok := a.Element(RoleFilter).(*nativeElement)
	if !ok {
		t.Fatalf("filter %T is not native", a.Element(RoleFilter))
	}
	f, ok := ne.e.(*framefilter.Element)
	if !ok {
		t.Fatalf("filter stage is %T", ne.e)
	}
	return f
}

// syncBuffer is a bytes.Buffer safe for the run goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// runWithTimeout runs g and fails the test if Run does not return.
func runWithTimeout(t *testing.T, ctx context.Context, g Graph, opts ...RunOption) error {
	t.Helper()
	errc := make(chan error, 1)
	go func() { errc <- Run(ctx, g, opts...) }()

	select {
	case err := <-errc:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return within 10s")
		return nil
	}
}

func newTestMetrics(t *testing.T) (*observe.Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// counterTotal sums every data point of the named int64 counter.
func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s is %T, want Sum[int64]", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}
