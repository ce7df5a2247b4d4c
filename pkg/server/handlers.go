package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/nestview/pkg/buildinfo"
	"github.com/matzehuels/nestview/pkg/compose"
	"github.com/matzehuels/nestview/pkg/diag"
	"github.com/matzehuels/nestview/pkg/errors"
	"github.com/matzehuels/nestview/pkg/pipeline"
	"github.com/matzehuels/nestview/pkg/visibility"
)

// =============================================================================
// Responses
// =============================================================================

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type errorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

type visibilityResponse struct {
	Expanded *visibility.Set `json:"expanded"`
}

type diagnosticsResponse struct {
	Diagnostics diag.Events `json:"diagnostics"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Current()})
}

// GET /v1/model
func (s *Server) getModel(w http.ResponseWriter, r *http.Request) {
	m := s.view.Model()
	if m == nil {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no layout computed yet"))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// POST /v1/nodes/{id}/toggle
func (s *Server) toggle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	m, err := s.view.Toggle(r.Context(), id)
	if err != nil {
		s.logger.Warn("toggle failed", "node", id, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GET /v1/visibility
func (s *Server) getVisibility(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, visibilityResponse{Expanded: s.view.Visibility()})
}

// PUT /v1/visibility with {"expanded": [...]}
func (s *Server) putVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityResponse
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid JSON"))
		return
	}
	doc := s.view.Document()
	for _, id := range req.Expanded.IDs() {
		if doc == nil || doc.Find(id) == nil {
			writeError(w, errors.New(errors.ErrCodeNodeNotFound, "node %q not found", id))
			return
		}
	}
	m, err := s.view.SetVisibility(r.Context(), req.Expanded)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GET /v1/diagnostics
func (s *Server) getDiagnostics(w http.ResponseWriter, r *http.Request) {
	events := s.view.Diagnostics()
	if events == nil {
		events = diag.Events{}
	}
	writeJSON(w, http.StatusOK, diagnosticsResponse{Diagnostics: events})
}

// POST /v1/refresh
func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	m, err := s.view.Refresh(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// GET /v1/render.svg
func (s *Server) renderSVG(w http.ResponseWriter, r *http.Request) {
	m := s.view.Model()
	if m == nil {
		writeError(w, errors.New(errors.ErrCodeNotFound, "no layout computed yet"))
		return
	}
	opts := s.render
	opts.Formats = []string{pipeline.FormatSVG}
	if theme := r.URL.Query().Get("theme"); theme != "" {
		opts.Theme = theme
	}
	artifacts, err := s.renderModel(r, m, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[pipeline.FormatSVG])
}

func (s *Server) renderModel(r *http.Request, m *compose.Model, opts pipeline.RenderOptions) (map[string][]byte, error) {
	if s.runner != nil {
		return s.runner.Render(r.Context(), m, opts)
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return pipeline.RenderModel(r.Context(), m, opts.Formats, opts)
}

// =============================================================================
// Helpers
// =============================================================================

// statusFor maps an error code to an HTTP status.
func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidDocument:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeNodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeSuperseded:
		return http.StatusConflict
	case errors.ErrCodeOracleFailure:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{
		Error: errors.UserMessage(err),
		Code:  errors.GetCode(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
