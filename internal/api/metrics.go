package api

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/neatgraph/neatgraph/pkg/observability"
)

// Prometheus collectors for the HTTP surface and the layout pipeline.
// promauto registers them on the default registry at package init, which
// is what /metrics serves.
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neatgraph_http_requests_total",
		Help: "HTTP requests processed, by method, route and status code.",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "neatgraph_http_request_duration_seconds",
		Help:    "HTTP request latency, by method and route.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"method", "path"})

	tasksActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "neatgraph_async_tasks_active",
		Help: "Async layout tasks currently pending or running.",
	})

	layoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neatgraph_layouts_total",
		Help: "Layout stage executions, by algorithm and outcome.",
	}, []string{"algorithm", "status"})

	layoutDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "neatgraph_layout_duration_seconds",
		Help:    "Layout stage latency, by algorithm. Includes cache hits.",
		Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"algorithm"})

	rendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neatgraph_renders_total",
		Help: "Render stage executions, by outcome.",
	}, []string{"status"})

	renderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "neatgraph_render_duration_seconds",
		Help:    "Render stage latency across all requested formats.",
		Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	cacheEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neatgraph_cache_events_total",
		Help: "Cache hits, misses and writes, by key type.",
	}, []string{"key_type", "event"})

	engineRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neatgraph_engine_runs_total",
		Help: "Layout engine invocations, by outcome.",
	}, []string{"status"})

	engineRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "neatgraph_engine_run_duration_seconds",
		Help:    "Wall time of individual layout engine runs.",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})

	engineWarmsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neatgraph_engine_warms_total",
		Help: "Layout engine warm-up probes, by outcome.",
	}, []string{"status"})
)

// RegisterMetricsHooks routes the pipeline, cache and engine
// observability hooks into the collectors above. Safe to call more than
// once; the last registration wins.
func RegisterMetricsHooks() {
	observability.SetPipelineHooks(promPipelineHooks{})
	observability.SetCacheHooks(promCacheHooks{})
	observability.SetEngineHooks(promEngineHooks{})
}

type promPipelineHooks struct{}

func (promPipelineHooks) OnLayoutStart(context.Context, string, int) {}

func (promPipelineHooks) OnLayoutComplete(_ context.Context, algorithm string, d time.Duration, err error) {
	layoutsTotal.WithLabelValues(algorithm, outcome(err)).Inc()
	layoutDuration.WithLabelValues(algorithm).Observe(d.Seconds())
}

func (promPipelineHooks) OnRenderStart(context.Context, []string) {}

func (promPipelineHooks) OnRenderComplete(_ context.Context, _ []string, d time.Duration, err error) {
	rendersTotal.WithLabelValues(outcome(err)).Inc()
	renderDuration.Observe(d.Seconds())
}

type promCacheHooks struct{}

func (promCacheHooks) OnCacheHit(_ context.Context, keyType string) {
	cacheEventsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (promCacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	cacheEventsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (promCacheHooks) OnCacheSet(_ context.Context, keyType string, _ int) {
	cacheEventsTotal.WithLabelValues(keyType, "set").Inc()
}

type promEngineHooks struct{}

func (promEngineHooks) OnEngineWarm(_ context.Context, _ time.Duration, err error) {
	engineWarmsTotal.WithLabelValues(outcome(err)).Inc()
}

func (promEngineHooks) OnEngineRun(_ context.Context, d time.Duration, err error) {
	engineRunsTotal.WithLabelValues(outcome(err)).Inc()
	engineRunDuration.Observe(d.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
