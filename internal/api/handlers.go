package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"

	"github.com/neatgraph/neatgraph/pkg/buildinfo"
	"github.com/neatgraph/neatgraph/pkg/diagram"
	neaterrors "github.com/neatgraph/neatgraph/pkg/errors"
	"github.com/neatgraph/neatgraph/pkg/layout"
	"github.com/neatgraph/neatgraph/pkg/pipeline"
)

// maxRequestBody caps request payloads at 8 MiB. Graphs past that size
// should go through the CLI, not a JSON POST.
const maxRequestBody = 8 << 20

// asyncTaskTimeout bounds a single async layout run.
const asyncTaskTimeout = 2 * time.Minute

var startTime = time.Now()

// ============================================================================
// Health and presets
// ============================================================================

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Mode    string `json:"engineMode"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	mode := ""
	if s.runner != nil && s.runner.Layouter != nil {
		mode = string(s.runner.Layouter.Mode())
	}
	s.respondJSON(w, r, http.StatusOK, healthResponse{
		Status:  "ok",
		Service: "neatgraph",
		Version: buildinfo.Version,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Mode:    mode,
	})
}

type presetInfo struct {
	Name    string         `json:"name"`
	Options layout.Options `json:"options"`
}

type presetsResponse struct {
	Default string       `json:"default"`
	Auto    string       `json:"auto"`
	Presets []presetInfo `json:"presets"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	names := layout.PresetNames()
	presets := make([]presetInfo, 0, len(names))
	for _, name := range names {
		presets = append(presets, presetInfo{Name: name, Options: layout.Preset(name)})
	}
	s.respondJSON(w, r, http.StatusOK, presetsResponse{
		Default: layout.DefaultPreset,
		Auto:    pipeline.PresetAuto,
		Presets: presets,
	})
}

// ============================================================================
// Layout
// ============================================================================

// layoutRequest is the envelope accepted by the layout endpoints.
type layoutRequest struct {
	Diagram diagram.GraphData `json:"diagram"`
	Options pipeline.Options  `json:"options"`
}

// layoutResponse carries the laid-out diagram plus everything a client
// needs to judge the run: the chosen preset, timings and cache outcome.
// Requested artifacts ride along base64-encoded.
type layoutResponse struct {
	Diagram     diagram.GraphData `json:"diagram"`
	Bounds      diagram.Bounds    `json:"bounds"`
	Preset      string            `json:"preset"`
	DiagramHash string            `json:"diagramHash"`
	Stats       layoutStats       `json:"stats"`
	Cache       cacheStatus       `json:"cache"`
	Artifacts   map[string][]byte `json:"artifacts,omitempty"`
}

type layoutStats struct {
	Nodes    int     `json:"nodes"`
	Edges    int     `json:"edges"`
	LayoutMS float64 `json:"layoutMs"`
	RenderMS float64 `json:"renderMs,omitempty"`
}

type cacheStatus struct {
	LayoutHit bool `json:"layoutHit"`
	RenderHit bool `json:"renderHit"`
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeLayoutRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	g, err := diagram.Import(req.Diagram)
	if err != nil {
		s.respondError(w, r, neaterrors.Wrap(neaterrors.ErrCodeInvalidDiagram, err, "%v", err))
		return
	}

	ctx, span := startSpan(r.Context(), "api.layout",
		attribute.Int("diagram.nodes", len(req.Diagram.Nodes)),
		attribute.String("layout.preset", req.Options.Preset),
	)
	result, err := s.runner.Execute(ctx, g, req.Options)
	endSpan(span, err)
	if err != nil {
		s.respondError(w, r, engineError(err))
		return
	}
	s.respondJSON(w, r, http.StatusOK, buildLayoutResponse(result))
}

func (s *Server) handleLayoutAsync(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeLayoutRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	g, err := diagram.Import(req.Diagram)
	if err != nil {
		s.respondError(w, r, neaterrors.Wrap(neaterrors.ErrCodeInvalidDiagram, err, "%v", err))
		return
	}
	task, err := s.tasks.Begin()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	go s.runTask(task, g, req.Options)

	w.Header().Set("Location", "/api/v1/tasks/"+task.ID)
	s.respondJSON(w, r, http.StatusAccepted, task.View())
}

// runTask drives one async layout to completion. The task gets its own
// context so a closed client connection cannot cancel the work.
func (s *Server) runTask(task *Task, g *diagram.Graph, opts pipeline.Options) {
	s.tasks.Start(task)
	ctx, cancel := context.WithTimeout(context.Background(), asyncTaskTimeout)
	defer cancel()
	ctx, span := startSpan(ctx, "api.layout.async",
		attribute.String("task.id", task.ID),
	)
	result, err := s.runner.Execute(ctx, g, opts)
	endSpan(span, err)
	if err != nil {
		s.logger.Error("async layout failed", "task", task.ID, "error", err)
		s.tasks.Fail(task, engineError(err))
		return
	}
	s.tasks.Complete(task, buildLayoutResponse(result))
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	task, ok := s.tasks.Get(id)
	if !ok {
		s.respondError(w, r, neaterrors.New(neaterrors.ErrCodeTaskNotFound, "no task %q", id))
		return
	}
	s.respondJSON(w, r, http.StatusOK, task.View())
}

// ============================================================================
// Request plumbing
// ============================================================================

// decodeLayoutRequest parses the request body and folds in the query
// overrides shared by the sync and async endpoints. The body must carry
// a diagram object; everything else is optional.
func (s *Server) decodeLayoutRequest(w http.ResponseWriter, r *http.Request) (*layoutRequest, error) {
	var req layoutRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, neaterrors.Wrap(neaterrors.ErrCodeInvalidInput, err, "malformed request body")
	}
	if req.Diagram.Nodes == nil && req.Diagram.Edges == nil {
		return nil, neaterrors.New(neaterrors.ErrCodeInvalidDiagram, "request has no diagram")
	}
	if err := s.prepareOptions(r, &req.Options); err != nil {
		return nil, err
	}
	return &req, nil
}

// prepareOptions applies query overrides and server defaults to opts and
// validates the result. Query values win over the body.
func (s *Server) prepareOptions(r *http.Request, opts *pipeline.Options) error {
	q := r.URL.Query()
	if v := q.Get("preset"); v != "" {
		opts.Preset = v
	}
	if q.Get("refresh") == "true" {
		opts.Refresh = true
	}
	if v := q["format"]; len(v) > 0 {
		opts.Formats = v
	}
	if opts.Preset == "" {
		opts.Preset = s.preset
	}
	opts.Policy = s.policy
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return neaterrors.Wrap(neaterrors.ErrCodeInvalidOption, err, "%v", err)
	}
	return nil
}

func buildLayoutResponse(res *pipeline.Result) *layoutResponse {
	return &layoutResponse{
		Diagram:     diagram.Export(res.Diagram),
		Bounds:      res.Diagram.BoundingBox(),
		Preset:      res.Preset,
		DiagramHash: res.DiagramHash,
		Stats: layoutStats{
			Nodes:    res.Stats.NodeCount,
			Edges:    res.Stats.EdgeCount,
			LayoutMS: durationMS(res.Stats.LayoutTime),
			RenderMS: durationMS(res.Stats.RenderTime),
		},
		Cache: cacheStatus{
			LayoutHit: res.CacheInfo.LayoutHit,
			RenderHit: res.CacheInfo.RenderHit,
		},
		Artifacts: res.Artifacts,
	}
}

func durationMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
