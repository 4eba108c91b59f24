package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/neatgraph/neatgraph/pkg/cache"
	"github.com/neatgraph/neatgraph/pkg/diagram"
	"github.com/neatgraph/neatgraph/pkg/layout"
	"github.com/neatgraph/neatgraph/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache    cache.Cache
	Keyer    cache.Keyer
	Layouter *layout.Layouter
	Renderer Renderer
	Logger   *log.Logger
}

// NewRunner creates a runner around a layouter.
// If renderer is nil, only the json format is available.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(layouter *layout.Layouter, renderer Renderer, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:    c,
		Keyer:    keyer,
		Layouter: layouter,
		Renderer: renderer,
		Logger:   logger,
	}
}

// Execute runs the complete select → layout → apply → render pipeline with
// caching. The computed geometry is written onto g directly, without
// animation; embedding hosts that want eased transitions call layout.Apply
// on the returned Placement themselves.
func (r *Runner) Execute(ctx context.Context, g *diagram.Graph, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)
	if g == nil {
		return nil, fmt.Errorf("nil diagram")
	}
	if r.Layouter == nil {
		return nil, fmt.Errorf("no layouter configured")
	}

	result := &Result{
		Diagram:   g,
		Artifacts: make(map[string][]byte),
	}
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	// Stage 1: Select
	var traits layout.Traits
	if opts.IsAuto() {
		traits = layout.Measure(g)
	}
	result.Preset = opts.EffectivePreset(traits)
	lo := opts.LayoutOptions(traits)
	if opts.IsAuto() {
		opts.Logger.Debug("selected preset from traits",
			"preset", result.Preset,
			"nodes", traits.Nodes,
			"density", traits.Density,
			"max_degree", traits.MaxDegree)
	}

	// Compute diagram hash for cache keys and API responses
	if data, err := diagram.MarshalGraph(g); err == nil {
		result.DiagramHash = cache.Hash(data)
	}

	nodes, edges := g.Nodes(), g.Edges()
	desc := layout.Convert(nodes, edges, lo)

	// Stage 2: Layout
	layoutStart := time.Now()
	res, layoutHit, err := r.layoutStage(ctx, desc, lo, result.DiagramHash, opts.Refresh)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = res
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	opts.Logger.Info("computed layout",
		"preset", result.Preset,
		"nodes", len(res.Nodes),
		"duration", result.Stats.LayoutTime,
		"cache_hit", layoutHit)

	// Stage 3: Apply
	result.Placement = layout.MapResult(res, nodes, edges, lo)
	if err := layout.Apply(ctx, g, result.Placement, layout.ApplyOptions{}); err != nil {
		return nil, fmt.Errorf("apply: %w", err)
	}

	// Stage 4: Render
	if len(opts.Formats) > 0 {
		renderStart := time.Now()
		artifacts, renderHit, err := r.renderStage(ctx, g, desc, opts)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		result.Artifacts = artifacts
		result.Stats.RenderTime = time.Since(renderStart)
		result.CacheInfo.RenderHit = renderHit

		opts.Logger.Info("rendered artifacts",
			"formats", opts.Formats,
			"duration", result.Stats.RenderTime,
			"cache_hit", renderHit)
	}

	return result, nil
}

// ComputeLayoutWithCacheInfo runs the layout stage alone with caching and
// reports whether the result came from the cache.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, g *diagram.Graph, opts Options) (*layout.Result, bool, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)
	if g == nil {
		return nil, false, fmt.Errorf("nil diagram")
	}
	if r.Layouter == nil {
		return nil, false, fmt.Errorf("no layouter configured")
	}

	var traits layout.Traits
	if opts.IsAuto() {
		traits = layout.Measure(g)
	}
	lo := opts.LayoutOptions(traits)

	var diagramHash string
	if data, err := diagram.MarshalGraph(g); err == nil {
		diagramHash = cache.Hash(data)
	}

	desc := layout.Convert(g.Nodes(), g.Edges(), lo)
	return r.layoutStage(ctx, desc, lo, diagramHash, opts.Refresh)
}

// ComputeLayout is a convenience wrapper that calls ComputeLayoutWithCacheInfo
// and discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, g *diagram.Graph, opts Options) (*layout.Result, error) {
	res, _, err := r.ComputeLayoutWithCacheInfo(ctx, g, opts)
	return res, err
}

// layoutStage wraps the cached layout computation with the pipeline hooks.
func (r *Runner) layoutStage(ctx context.Context, desc *layout.Descriptor, lo layout.Options, diagramHash string, refresh bool) (*layout.Result, bool, error) {
	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, lo.Algorithm, len(desc.Children))
	start := time.Now()
	res, hit, err := r.computeCached(ctx, desc, lo, diagramHash, refresh)
	hooks.OnLayoutComplete(ctx, lo.Algorithm, time.Since(start), err)
	return res, hit, err
}

// computeCached runs the engine behind the layout cache. An unreadable cache
// entry falls through to recomputation; refresh skips the read but still
// writes the fresh result back.
func (r *Runner) computeCached(ctx context.Context, desc *layout.Descriptor, lo layout.Options, diagramHash string, refresh bool) (*layout.Result, bool, error) {
	cacheable := diagramHash != ""
	var key string
	if cacheable {
		key = r.Keyer.LayoutKey(diagramHash, layoutKeyOpts(lo))
	}

	if cacheable && !refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if res, err := layout.UnmarshalResult(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return res, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	res, err := r.Layouter.Compute(ctx, desc)
	if err != nil {
		return nil, false, err
	}

	if cacheable {
		if data, err := layout.MarshalResult(res); err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.TTLLayout); err == nil {
				observability.Cache().OnCacheSet(ctx, "layout", len(data))
			}
		}
	}
	return res, false, nil
}

// layoutKeyOpts maps resolved layout options onto the cache key fields.
func layoutKeyOpts(lo layout.Options) cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Algorithm:       lo.Algorithm,
		Direction:       lo.Direction,
		NodeSpacing:     lo.NodeSpacing,
		LayerSpacing:    lo.LayerSpacing,
		EdgeNodeSpacing: lo.EdgeNodeSpacing,
		EdgeEdgeSpacing: lo.EdgeEdgeSpacing,
		EdgeRouting:     lo.EdgeRouting,
		Directives:      lo.Directives,
	}
}

// Close releases resources held by the runner: the layout worker and the
// cache backend.
func (r *Runner) Close() error {
	var firstErr error
	if r.Layouter != nil {
		firstErr = r.Layouter.Close()
	}
	if r.Cache != nil {
		if err := r.Cache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
