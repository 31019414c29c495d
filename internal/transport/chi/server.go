// Package chi exposes the retrieval engine over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shoprag/internal/domain"
	"github.com/kailas-cloud/shoprag/internal/domain/candidate"
	domintent "github.com/kailas-cloud/shoprag/internal/domain/intent"
	"github.com/kailas-cloud/shoprag/internal/domain/search/filter"
	"github.com/kailas-cloud/shoprag/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/shoprag/internal/usecase/health"
	"github.com/kailas-cloud/shoprag/internal/usecase/query"
	"github.com/kailas-cloud/shoprag/internal/usecase/search"
)

// maxBodyBytes caps request bodies; queries are short.
const maxBodyBytes = 64 << 10

// QueryService is the retrieval façade served by the API.
type QueryService interface {
	Search(ctx context.Context, req request.Request) ([]candidate.Candidate, error)
	SmartSearch(ctx context.Context, query string, n int) (search.SmartResult, error)
	Retrieve(ctx context.Context, query string, fetchN int, f filter.QueryFilter) ([]candidate.Candidate, error)
	SearchProducts(ctx context.Context, pq query.ProductQuery) ([]candidate.Candidate, error)
	Stats(ctx context.Context) []query.CollectionStats
}

// Classifier maps a query to an intent.
type Classifier interface {
	Classify(query string) domintent.Label
}

// scorer is implemented by classifiers that expose per-intent scores.
type scorer interface {
	Scores(query string) map[domintent.Label]int
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server holds the HTTP handlers.
type Server struct {
	query         QueryService
	classifier    Classifier
	health        HealthChecker
	logger        *zap.Logger
	defaultLimit  int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(q QueryService, classifier Classifier, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		query:      q,
		classifier: classifier,
		health:     health,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeCollectionNotFound),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, CodeEmbeddingUnavailable),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, CodeEmbeddingUnavailable),
		sentinelHandler(domain.ErrCollectionUnavailable, http.StatusServiceUnavailable, CodeCollectionUnavailable),
		sentinelHandler(domain.ErrIndexQueryFailed, http.StatusBadGateway, CodeIndexQueryFailed),
		sentinelHandler(context.DeadlineExceeded, http.StatusGatewayTimeout, CodeTimeout),
	}
	return s
}

// WithDefaultLimit sets the result count used when a request omits limit.
func (s *Server) WithDefaultLimit(n int) *Server {
	if n > 0 {
		s.defaultLimit = n
	}
	return s
}

func (s *Server) limitOr(n int) int {
	if n <= 0 && s.defaultLimit > 0 {
		return s.defaultLimit
	}
	return n
}

// Search handles POST /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	f, err := req.Filters.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	searchReq, err := request.New(req.Query, s.limitOr(req.Limit), req.Collections, f)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, err := s.query.Search(r.Context(), searchReq)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ResultListResponse{Results: resultsToDTO(results), Total: len(results)})
}

// SmartSearch handles POST /api/search/smart.
func (s *Server) SmartSearch(w http.ResponseWriter, r *http.Request) {
	var req SmartSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.query.SmartSearch(r.Context(), req.Query, s.limitOr(req.Limit))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SmartSearchResponse{
		Intent:  string(res.Intent),
		Query:   res.Query,
		Results: resultsToDTO(res.Results),
		Total:   len(res.Results),
	})
}

// SearchProducts handles POST /api/search/products.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	var req ProductSearchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	results, err := s.query.SearchProducts(r.Context(), query.ProductQuery{
		Query:    req.Query,
		Category: req.Category,
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
		Limit:    s.limitOr(req.Limit),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ResultListResponse{Results: resultsToDTO(results), Total: len(results)})
}

// Retrieve handles POST /api/retrieve.
func (s *Server) Retrieve(w http.ResponseWriter, r *http.Request) {
	var req RetrieveRequest
	if !decodeBody(w, r, &req) {
		return
	}

	f, err := req.Filters.toDomain()
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	results, err := s.query.Retrieve(r.Context(), req.Query, req.FetchN, f)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ResultListResponse{Results: resultsToDTO(results), Total: len(results)})
}

// Intent handles POST /api/intent.
func (s *Server) Intent(w http.ResponseWriter, r *http.Request) {
	var req IntentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	q, err := request.NormalizeQuery(req.Query)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := IntentResponse{Query: q, Intent: string(s.classifier.Classify(q))}
	if sc, ok := s.classifier.(scorer); ok {
		resp.Scores = make(map[string]int)
		for label, n := range sc.Scores(q) {
			resp.Scores[string(label)] = n
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// CollectionStats handles GET /api/admin/collections/stats.
func (s *Server) CollectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, statsToDTO(s.query.Stats(r.Context())))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	// degraded still serves from the remaining collections
	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client only sees the sentinel text, never the wrapped internals.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
