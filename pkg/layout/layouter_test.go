package layout

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/neatgraph/neatgraph/pkg/diagram"
)

// fakeEngine lays children out on a vertical line, one layer per child.
type fakeEngine struct {
	calls atomic.Int32
	fn    func(ctx context.Context, desc *Descriptor) (*Result, error)
}

func (f *fakeEngine) Layout(ctx context.Context, desc *Descriptor) (*Result, error) {
	f.calls.Add(1)
	if f.fn != nil {
		return f.fn(ctx, desc)
	}
	return columnResult(desc), nil
}

func columnResult(desc *Descriptor) *Result {
	res := &Result{Width: 100}
	boxes := make(map[string]NodeResult, len(desc.Children))
	for i, c := range desc.Children {
		nr := NodeResult{ID: c.ID, X: 10, Y: float64(i) * 120, Width: c.Width, Height: c.Height}
		res.Nodes = append(res.Nodes, nr)
		boxes[c.ID] = nr
		res.Height = nr.Y + nr.Height
	}
	for _, l := range desc.Edges {
		s, d := boxes[l.Sources[0]], boxes[l.Targets[0]]
		start := diagram.Point{X: s.X + s.Width/2, Y: s.Y + s.Height}
		end := diagram.Point{X: d.X + d.Width/2, Y: d.Y}
		res.Edges = append(res.Edges, EdgeRoute{ID: l.ID, Sections: []Section{{
			Start: start,
			Bends: []diagram.Point{{X: start.X, Y: (start.Y + end.Y) / 2}, {X: end.X, Y: (start.Y + end.Y) / 2}},
			End:   end,
		}}})
	}
	return res
}

// warmableEngine adds warm-up bookkeeping on top of fakeEngine.
type warmableEngine struct {
	fakeEngine
	warmErr error
	warmed  atomic.Bool
	closed  atomic.Bool
}

func (w *warmableEngine) Warm(ctx context.Context) error {
	if w.warmErr != nil {
		return w.warmErr
	}
	w.warmed.Store(true)
	return nil
}

func (w *warmableEngine) Close() error {
	w.closed.Store(true)
	return nil
}

func quietLogger() *log.Logger {
	logger := log.New(io.Discard)
	logger.SetLevel(log.FatalLevel)
	return logger
}

func TestLayouterModes(t *testing.T) {
	tests := []struct {
		name   string
		engine Engine
		cfg    Config
		want   Mode
	}{
		{name: "sync by default", engine: &warmableEngine{}, cfg: Config{}, want: ModeSync},
		{name: "worker when warm succeeds", engine: &warmableEngine{}, cfg: Config{Worker: true}, want: ModeWorker},
		{
			name:   "fallback when warm fails",
			engine: &warmableEngine{warmErr: errors.New("no wasm")},
			cfg:    Config{Worker: true},
			want:   ModeSync,
		},
		{name: "fallback without warm support", engine: &fakeEngine{}, cfg: Config{Worker: true}, want: ModeSync},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Logger = quietLogger()
			l := New(tt.engine, tt.cfg)
			defer l.Close()
			if got := l.Mode(); got != tt.want {
				t.Errorf("Mode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFallbackStillComputes(t *testing.T) {
	engine := &warmableEngine{warmErr: errors.New("no wasm")}
	l := New(engine, Config{Worker: true, Logger: quietLogger()})
	defer l.Close()

	res, err := l.Compute(context.Background(), &Descriptor{Children: []Child{{ID: "a"}}})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if len(res.Nodes) != 1 {
		t.Errorf("nodes = %d, want 1", len(res.Nodes))
	}
	if engine.calls.Load() != 1 {
		t.Errorf("engine calls = %d, want 1", engine.calls.Load())
	}
}

func TestEmptyDescriptorShortCircuits(t *testing.T) {
	engine := &warmableEngine{}
	l := New(engine, Config{Worker: true, Logger: quietLogger()})
	defer l.Close()

	for _, desc := range []*Descriptor{nil, {}, {Edges: []Link{{ID: "e"}}}} {
		res, err := l.Compute(context.Background(), desc)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}
		if len(res.Nodes) != 0 || len(res.Edges) != 0 {
			t.Errorf("empty descriptor produced %+v", res)
		}
	}
	if engine.calls.Load() != 0 {
		t.Errorf("engine called %d times for empty input, want 0", engine.calls.Load())
	}
}

func TestErrorsPassThroughUnchanged(t *testing.T) {
	sentinel := errors.New("engine exploded")
	for _, worker := range []bool{false, true} {
		engine := &warmableEngine{}
		engine.fn = func(ctx context.Context, desc *Descriptor) (*Result, error) {
			return nil, sentinel
		}
		l := New(engine, Config{Worker: worker, Logger: quietLogger()})
		_, err := l.Compute(context.Background(), &Descriptor{Children: []Child{{ID: "a"}}})
		if !errors.Is(err, sentinel) {
			t.Errorf("worker=%v: error = %v, want sentinel", worker, err)
		}
		l.Close()
	}
}

func TestWorkerSerializesRuns(t *testing.T) {
	var active, peak atomic.Int32
	engine := &warmableEngine{}
	engine.fn = func(ctx context.Context, desc *Descriptor) (*Result, error) {
		n := active.Add(1)
		if n > peak.Load() {
			peak.Store(n)
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
		return columnResult(desc), nil
	}

	l := New(engine, Config{Worker: true, Queue: 4, Logger: quietLogger()})
	defer l.Close()
	if l.Mode() != ModeWorker {
		t.Fatalf("Mode() = %q, want worker", l.Mode())
	}

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Compute(context.Background(), &Descriptor{Children: []Child{{ID: "a"}}})
			if err != nil {
				t.Errorf("Compute: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := peak.Load(); got != 1 {
		t.Errorf("peak concurrent engine runs = %d, want 1", got)
	}
	if got := engine.calls.Load(); got != 6 {
		t.Errorf("engine calls = %d, want 6", got)
	}
}

func TestComputeHonorsContextWhileQueued(t *testing.T) {
	gate := make(chan struct{})
	engine := &warmableEngine{}
	engine.fn = func(ctx context.Context, desc *Descriptor) (*Result, error) {
		<-gate
		return columnResult(desc), nil
	}

	l := New(engine, Config{Worker: true, Logger: quietLogger()})
	desc := &Descriptor{Children: []Child{{ID: "a"}}}

	// Occupy the worker so the next request cannot be handed off.
	first := make(chan error, 1)
	go func() {
		_, err := l.Compute(context.Background(), desc)
		first <- err
	}()
	// Give the first request time to reach the engine.
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Compute(ctx, desc); !errors.Is(err, context.Canceled) {
		t.Errorf("queued Compute error = %v, want context.Canceled", err)
	}

	close(gate)
	if err := <-first; err != nil {
		t.Errorf("first Compute: %v", err)
	}
	l.Close()
}

func TestCloseShutsDownEngine(t *testing.T) {
	engine := &warmableEngine{}
	l := New(engine, Config{Worker: true, Logger: quietLogger()})
	if !engine.warmed.Load() {
		t.Fatal("worker mode did not warm the engine")
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !engine.closed.Load() {
		t.Error("Close did not close the engine")
	}
	// Close is idempotent.
	if err := l.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestLayoutEndToEnd(t *testing.T) {
	g := chainGraph(t, "a", "b", "c")
	l := New(&fakeEngine{}, Config{Logger: quietLogger()})
	defer l.Close()

	p, err := l.Layout(context.Background(), g, Preset(PresetFlowchart))
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(p.Nodes) != 3 || len(p.Edges) != 2 {
		t.Fatalf("placement = %d nodes, %d edges", len(p.Nodes), len(p.Edges))
	}

	if err := Apply(context.Background(), g, p, ApplyOptions{}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	var lastY float64 = -1
	for _, id := range []string{"a", "b", "c"} {
		n, _ := g.Node(id)
		if n.Y <= lastY {
			t.Errorf("node %q y = %v, want strictly increasing", id, n.Y)
		}
		lastY = n.Y
	}
	e, _ := g.Edge("a->b")
	if len(e.Vertices) != 2 {
		t.Errorf("edge vertices = %v, want two bends", e.Vertices)
	}
}

func TestLayoutEmptyGraph(t *testing.T) {
	engine := &fakeEngine{}
	l := New(engine, Config{Logger: quietLogger()})
	defer l.Close()

	p, err := l.Layout(context.Background(), diagram.New(nil), Options{})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	if len(p.Nodes) != 0 || engine.calls.Load() != 0 {
		t.Error("empty graph should not reach the engine")
	}
}
