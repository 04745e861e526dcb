package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/search/query"
	"github.com/kailas-cloud/vecsync/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/vecsync/internal/usecase/health"
	searchuc "github.com/kailas-cloud/vecsync/internal/usecase/search"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeNotFound         = "not_found"
	CodeModelUnavailable = "model_unavailable"
	CodeEmbeddingError   = "embedding_provider_error"
	CodeEngineError      = "engine_error"
	CodeInternalError    = "internal_error"
)

// ErrorResponse is the JSON error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SearchResponse is the body of GET /search.
type SearchResponse struct {
	IDs   []string `json:"ids"`
	Total int      `json:"total"`
}

// SimilarItem is one ranked record.
type SimilarItem struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Portal      string  `json:"portal,omitempty"`
	Score       float64 `json:"score"`
}

// SimilarResponse is the body of the similarity endpoints.
type SimilarResponse struct {
	Items []SimilarItem `json:"items"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server is the read-only HTTP surface over search and health.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{search: search, health: health, logger: logger}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrModelUnavailable, http.StatusServiceUnavailable, CodeModelUnavailable),
		sentinelHandler(domain.ErrEmbeddingFailed, http.StatusBadGateway, CodeEmbeddingError),
		sentinelHandler(domain.ErrEngineQueryFailed, http.StatusBadGateway, CodeEngineError),
	}
	return s
}

// Router mounts the routes with the standard middleware chain.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	for _, mw := range Middlewares(s.logger) {
		r.Use(mw)
	}
	r.Get("/search", s.Search)
	r.Get("/similar", s.Similar)
	r.Get("/records/{id}/similar", s.SimilarToRecord)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	return r
}

// Search handles GET /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	page, err := s.search.Search(r.Context(), params)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ids := page.IDs
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{IDs: ids, Total: page.Total})
}

// Similar handles GET /similar.
func (s *Server) Similar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := s.search.Similar(r.Context(), q.Get("text"), q.Get("portal"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, similarToResponse(items))
}

// SimilarToRecord handles GET /records/{id}/similar.
func (s *Server) SimilarToRecord(w http.ResponseWriter, r *http.Request) {
	items, err := s.search.SimilarToRecord(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("portal"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, similarToResponse(items))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func similarToResponse(items []result.Scored) SimilarResponse {
	out := make([]SimilarItem, len(items))
	for i := range items {
		rec := &items[i].Record
		out[i] = SimilarItem{
			ID:          rec.ID,
			Title:       rec.Name,
			Description: rec.Description,
			Portal:      rec.PortalID,
			Score:       items[i].Score,
		}
	}
	return SimilarResponse{Items: out}
}

// bindSearchParams reads form-style query parameters. List facets repeat
// the key (categories=a&categories=b).
func bindSearchParams(q url.Values) (query.Params, error) {
	p := query.Params{Term: q.Get("term"), Portal: q.Get("portal")}
	binds := []struct {
		name string
		dest any
	}{
		{"columns", &p.Columns},
		{"categories", &p.Categories},
		{"departments", &p.Departments},
		{"offset", &p.Offset},
		{"limit", &p.Limit},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			return query.Params{}, fmt.Errorf("invalid %s parameter", b.name)
		}
	}
	return p, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrNotFound,
		domain.ErrModelUnavailable,
		domain.ErrEmbeddingFailed,
		domain.ErrEngineQueryFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		msg := safeDomainMessage(err)
		if errors.Is(err, domain.ErrInvalidRequest) {
			msg = err.Error()
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := loggerFrom(r, s.logger)
	log.Warn("Domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
