package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/neatgraph/neatgraph/pkg/diagram"
	neaterrors "github.com/neatgraph/neatgraph/pkg/errors"
	"github.com/neatgraph/neatgraph/pkg/pipeline"
	"github.com/neatgraph/neatgraph/pkg/store"
)

// documentRequest is the body for creating or replacing a stored
// diagram. A missing ID on create gets a generated UUID.
type documentRequest struct {
	ID      string            `json:"id,omitempty"`
	Name    string            `json:"name"`
	Preset  string            `json:"preset,omitempty"`
	Diagram diagram.GraphData `json:"diagram"`
}

type documentList struct {
	Diagrams []store.Info `json:"diagrams"`
	Count    int          `json:"count"`
}

func (s *Server) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	infos, err := s.store.List(r.Context())
	if err != nil {
		s.respondError(w, r, storeError(err, ""))
		return
	}
	s.respondJSON(w, r, http.StatusOK, documentList{Diagrams: infos, Count: len(infos)})
}

func (s *Server) handleCreateDiagram(w http.ResponseWriter, r *http.Request) {
	req, err := decodeDocumentRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	doc, err := buildDocument(req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.store.Put(r.Context(), doc); err != nil {
		s.respondError(w, r, storeError(err, doc.ID))
		return
	}
	s.respondJSON(w, r, http.StatusCreated, doc)
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, storeError(err, id))
		return
	}
	s.respondJSON(w, r, http.StatusOK, doc)
}

func (s *Server) handlePutDiagram(w http.ResponseWriter, r *http.Request) {
	req, err := decodeDocumentRequest(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	// The path is authoritative for the ID.
	req.ID = chi.URLParam(r, "id")
	doc, err := buildDocument(req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.store.Put(r.Context(), doc); err != nil {
		s.respondError(w, r, storeError(err, doc.ID))
		return
	}
	s.respondJSON(w, r, http.StatusOK, doc)
}

func (s *Server) handleDeleteDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.respondError(w, r, storeError(err, id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleLayoutDiagram lays out a stored diagram. The body may carry an
// options envelope but is optional; the document's preferred preset is
// the fallback. With ?save=true the laid-out geometry is written back.
func (s *Server) handleLayoutDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, storeError(err, id))
		return
	}

	var opts pipeline.Options
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		s.respondError(w, r, neaterrors.Wrap(neaterrors.ErrCodeInvalidInput, err, "reading request body"))
		return
	}
	if len(bytes.TrimSpace(body)) > 0 {
		var req struct {
			Options pipeline.Options `json:"options"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			s.respondError(w, r, neaterrors.Wrap(neaterrors.ErrCodeInvalidInput, err, "malformed request body"))
			return
		}
		opts = req.Options
	}
	if opts.Preset == "" {
		opts.Preset = doc.Preset
	}
	if err := s.prepareOptions(r, &opts); err != nil {
		s.respondError(w, r, err)
		return
	}

	g, err := diagram.Import(doc.Diagram)
	if err != nil {
		s.respondError(w, r, neaterrors.Wrap(neaterrors.ErrCodeInvalidDiagram, err, "stored diagram %q: %v", id, err))
		return
	}

	ctx, span := startSpan(r.Context(), "api.diagram.layout",
		attribute.String("diagram.id", id),
	)
	result, err := s.runner.Execute(ctx, g, opts)
	endSpan(span, err)
	if err != nil {
		s.respondError(w, r, engineError(err))
		return
	}

	if r.URL.Query().Get("save") == "true" {
		doc.Diagram = diagram.Export(result.Diagram)
		if err := s.store.Put(r.Context(), doc); err != nil {
			s.respondError(w, r, storeError(err, id))
			return
		}
	}
	s.respondJSON(w, r, http.StatusOK, buildLayoutResponse(result))
}

func decodeDocumentRequest(w http.ResponseWriter, r *http.Request) (*documentRequest, error) {
	var req documentRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, neaterrors.Wrap(neaterrors.ErrCodeInvalidInput, err, "malformed request body")
	}
	return &req, nil
}

// buildDocument validates a request and shapes it into a store document.
func buildDocument(req *documentRequest) (*store.Document, error) {
	if err := neaterrors.ValidateDocumentID(req.ID); err != nil {
		return nil, err
	}
	if err := neaterrors.ValidateDocumentName(req.Name); err != nil {
		return nil, err
	}
	if req.Preset != "" {
		if err := pipeline.ValidatePreset(req.Preset); err != nil {
			return nil, neaterrors.Wrap(neaterrors.ErrCodeInvalidPreset, err, "%v", err)
		}
	}
	if req.Diagram.Nodes == nil && req.Diagram.Edges == nil {
		return nil, neaterrors.New(neaterrors.ErrCodeInvalidDiagram, "request has no diagram")
	}
	return &store.Document{
		ID:      req.ID,
		Name:    req.Name,
		Preset:  req.Preset,
		Diagram: req.Diagram,
	}, nil
}

// storeError translates store failures into coded errors.
func storeError(err error, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return neaterrors.New(neaterrors.ErrCodeDocumentNotFound, "no diagram %q", id)
	}
	return neaterrors.Wrap(neaterrors.ErrCodeStore, err, "document store failure")
}
