package layout

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/neatgraph/neatgraph/pkg/diagram"
	"github.com/neatgraph/neatgraph/pkg/observability"
)

// Mode reports how a Layouter executes layout runs. The mode is fixed at
// construction and never changes afterwards.
type Mode string

const (
	// ModeWorker runs the engine on a dedicated goroutine that owns a
	// warmed engine instance.
	ModeWorker Mode = "worker"

	// ModeSync runs the engine inline on the calling goroutine.
	ModeSync Mode = "sync"
)

// Config controls Layouter construction.
type Config struct {
	// Worker requests a background worker. The worker is only started when
	// the engine supports warm starts and its warm-up probe succeeds;
	// otherwise the layouter silently falls back to synchronous execution.
	Worker bool

	// Queue is the number of requests that may wait for the worker before
	// senders block. Zero means an unbuffered handoff.
	Queue int

	// Logger receives the fallback warning. Defaults to log.Default().
	Logger *log.Logger
}

type layoutRequest struct {
	ctx  context.Context
	desc *Descriptor
	out  chan layoutResult
}

type layoutResult struct {
	res *Result
	err error
}

// Layouter runs layout computations against a single engine. In worker mode
// one goroutine owns the warmed engine and requests are serialized through a
// channel, so concurrent callers never touch the engine at the same time. In
// sync mode the engine runs inline per call.
type Layouter struct {
	engine    Engine
	logger    *log.Logger
	mode      Mode
	reqs      chan layoutRequest
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

// New wraps an engine. When cfg.Worker is set and the engine implements
// WarmEngine, New probes the warm start immediately; a failed probe is not
// an error, the layouter just stays synchronous.
func New(engine Engine, cfg Config) *Layouter {
	l := &Layouter{
		engine: engine,
		logger: cfg.Logger,
		mode:   ModeSync,
	}
	if l.logger == nil {
		l.logger = log.Default()
	}
	if !cfg.Worker {
		return l
	}

	warm, ok := engine.(WarmEngine)
	if !ok {
		l.logger.Debug("engine has no warm start, staying synchronous")
		return l
	}
	start := time.Now()
	err := warm.Warm(context.Background())
	observability.Engine().OnEngineWarm(context.Background(), time.Since(start), err)
	if err != nil {
		l.logger.Warn("layout worker unavailable, falling back to synchronous engine", "error", err)
		return l
	}

	queue := cfg.Queue
	if queue < 0 {
		queue = 0
	}
	l.reqs = make(chan layoutRequest, queue)
	l.done = make(chan struct{})
	l.mode = ModeWorker
	go l.serve()
	return l
}

// Mode reports whether runs go through the worker or execute inline.
func (l *Layouter) Mode() Mode { return l.mode }

func (l *Layouter) serve() {
	defer close(l.done)
	for req := range l.reqs {
		res, err := l.run(req.ctx, req.desc)
		req.out <- layoutResult{res: res, err: err}
	}
}

// run times a single engine call and reports it to the engine hooks.
func (l *Layouter) run(ctx context.Context, desc *Descriptor) (*Result, error) {
	start := time.Now()
	res, err := l.engine.Layout(ctx, desc)
	observability.Engine().OnEngineRun(ctx, time.Since(start), err)
	return res, err
}

// Compute runs the engine on a descriptor. An empty descriptor
// short-circuits to an empty result without touching the engine. Engine
// errors pass through unchanged, whichever mode is active.
func (l *Layouter) Compute(ctx context.Context, desc *Descriptor) (*Result, error) {
	if desc == nil || len(desc.Children) == 0 {
		return &Result{}, nil
	}
	if l.mode != ModeWorker {
		return l.run(ctx, desc)
	}

	out := make(chan layoutResult, 1)
	select {
	case l.reqs <- layoutRequest{ctx: ctx, desc: desc, out: out}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-out:
		return r.res, r.err
	case <-ctx.Done():
		// The worker finishes the run in the background; the result channel
		// is buffered so it never blocks on the abandoned receiver.
		return nil, ctx.Err()
	}
}

// Layout is the full forward and reverse trip: convert the graph, run the
// engine, and match the result back against the cells.
func (l *Layouter) Layout(ctx context.Context, g *diagram.Graph, opts Options) (*Placement, error) {
	nodes, edges := g.Nodes(), g.Edges()
	if len(nodes) == 0 {
		return &Placement{}, nil
	}
	desc := Convert(nodes, edges, opts)
	res, err := l.Compute(ctx, desc)
	if err != nil {
		return nil, err
	}
	return MapResult(res, nodes, edges, opts), nil
}

// Close stops the worker, waits for an in-flight run to finish, and closes
// the engine if it holds warm state. Compute must not be called after Close.
func (l *Layouter) Close() error {
	l.closeOnce.Do(func() {
		if l.mode == ModeWorker {
			close(l.reqs)
			<-l.done
		}
		if warm, ok := l.engine.(WarmEngine); ok {
			l.closeErr = warm.Close()
		}
	})
	return l.closeErr
}
