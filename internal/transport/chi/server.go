package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Di-Twin/nlp-search-lite/internal/domain"
	logpkg "github.com/Di-Twin/nlp-search-lite/internal/logger"
	healthuc "github.com/Di-Twin/nlp-search-lite/internal/usecase/health"
	searchuc "github.com/Di-Twin/nlp-search-lite/internal/usecase/search"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the search pipeline over HTTP. Logging uses the
// request-scoped logger installed in the context by the middleware chain.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search *searchuc.Service, health *healthuc.Service) *Server {
	s := &Server{
		search: search,
		health: health,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, "invalid_query"),
		sentinelHandler(domain.ErrNoRelevantResults, http.StatusNotFound, "no_relevant_results"),
		sentinelHandler(domain.ErrRetrievalFailure, http.StatusInternalServerError, "retrieval_failure"),
	}
	return s
}

// Metrics handles GET /metrics.
func (s *Server) Metrics() http.Handler {
	return promhttp.Handler()
}

// SearchCatalog handles GET /api/v1/search?q=&limit=&offset=.
// Unparseable limit/offset values fall back to defaults rather than failing.
func (s *Server) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := intParam(r, "limit")
	offset := intParam(r, "offset")

	page, err := s.search.Search(r.Context(), query, limit, offset)
	if err != nil {
		s.handleDomainError(r, w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// Healthz handles GET /healthz.
func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// intParam parses an integer query parameter, returning 0 when absent or
// malformed so the pipeline's defaults and clamping apply.
func intParam(r *http.Request, name string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

// safeDomainMessage returns the sentinel's message for known errors and a
// generic one otherwise, keeping collaborator details out of responses.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrNoRelevantResults,
		domain.ErrRetrievalFailure,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler builds a handler that maps a sentinel error to a status code.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(r *http.Request, w http.ResponseWriter, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}
