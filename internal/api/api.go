// Package api exposes the layout pipeline over HTTP.
//
// The server offers synchronous layout (POST /api/v1/layout), submitted
// tasks that are polled for completion (POST /api/v1/layout/async plus
// GET /api/v1/tasks/{id}) and CRUD for stored diagrams under
// /api/v1/diagrams. Prometheus metrics are served on /metrics, liveness
// on /healthz.
//
// Every response body is JSON. Errors carry a stable machine-readable
// code next to the human message:
//
//	{"error": "no diagram \"prod\"", "code": "DOCUMENT_NOT_FOUND"}
//
// Appending ?pretty=true to any endpoint switches the response to
// indented JSON.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neatgraph/neatgraph/pkg/config"
	"github.com/neatgraph/neatgraph/pkg/layout"
	"github.com/neatgraph/neatgraph/pkg/pipeline"
	"github.com/neatgraph/neatgraph/pkg/store"
)

// Server is the HTTP front end. It owns the router and the async task
// registry; the pipeline runner and the document store are borrowed and
// stay the caller's responsibility to close.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	tasks  *TaskManager
	logger *log.Logger
	policy layout.DensityPolicy
	preset string

	router chi.Router
	srv    *http.Server
}

// New assembles a server from the given configuration and collaborators.
// A nil logger falls back to log.Default().
func New(cfg *config.Config, runner *pipeline.Runner, st store.Store, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		store:  st,
		tasks:  NewTaskManager(cfg.Server.TaskLimit),
		logger: logger,
		policy: cfg.Layout.Density,
		preset: cfg.Layout.Preset,
	}
	RegisterMetricsHooks()
	s.router = s.routes()
	s.srv = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
	return s
}

// routes builds the chi router. The request logger sits outside the
// recoverer so that panics still show up in the access log as 500s.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(cors)

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/presets", s.handlePresets)
		r.Post("/layout", s.handleLayout)
		r.Post("/layout/async", s.handleLayoutAsync)
		r.Get("/tasks/{id}", s.handleTask)

		r.Route("/diagrams", func(r chi.Router) {
			r.Get("/", s.handleListDiagrams)
			r.Post("/", s.handleCreateDiagram)
			r.Get("/{id}", s.handleGetDiagram)
			r.Put("/{id}", s.handlePutDiagram)
			r.Delete("/{id}", s.handleDeleteDiagram)
			r.Post("/{id}/layout", s.handleLayoutDiagram)
		})
	})
	return r
}

// Handler returns the routed handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts serving and blocks until the listener closes. A clean
// Shutdown is reported as nil.
func (s *Server) Run() error {
	s.logger.Info("api server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
