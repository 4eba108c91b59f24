package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	neaterrors "github.com/neatgraph/neatgraph/pkg/errors"
)

// errorResponse is the JSON body for every failed request.
type errorResponse struct {
	Error string          `json:"error"`
	Code  neaterrors.Code `json:"code,omitempty"`
}

// respondJSON writes v with the given status. ?pretty=true switches the
// encoder to indented output.
func (s *Server) respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if r.URL.Query().Get("pretty") == "true" {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// respondError maps err onto an HTTP status and writes the error body.
// A BusyError additionally advertises a Retry-After header so clients
// can back off instead of hammering the queue.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var busy *neaterrors.BusyError
	if errors.As(err, &busy) {
		after := busy.RetryAfter
		if after <= 0 {
			after = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(after))
		s.respondJSON(w, r, http.StatusServiceUnavailable, errorResponse{
			Error: busy.Error(),
			Code:  neaterrors.ErrCodeBusy,
		})
		return
	}
	code := neaterrors.GetCode(err)
	s.respondJSON(w, r, statusForCode(code), errorResponse{
		Error: neaterrors.UserMessage(err),
		Code:  code,
	})
}

// statusForCode translates error codes into HTTP statuses. Uncoded
// errors land on 500.
func statusForCode(code neaterrors.Code) int {
	switch {
	case code == neaterrors.ErrCodeBusy:
		return http.StatusServiceUnavailable
	case code == neaterrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case strings.HasPrefix(string(code), "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(string(code), "NOT_FOUND"):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// engineError tags runner failures that carry no code of their own, so
// statusForCode has something to work with.
func engineError(err error) error {
	if neaterrors.GetCode(err) != "" {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return neaterrors.Wrap(neaterrors.ErrCodeTimeout, err, "layout timed out")
	}
	return neaterrors.Wrap(neaterrors.ErrCodeEngine, err, "%v", err)
}
