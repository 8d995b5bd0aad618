// Package chi exposes the product search engine over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/shoplens/shoplens/internal/domain"
	"github.com/shoplens/shoplens/internal/domain/filter"
	enumsuc "github.com/shoplens/shoplens/internal/usecase/enums"
	ingestuc "github.com/shoplens/shoplens/internal/usecase/ingest"
)

// maxTopK bounds the result size a single request may ask for.
const maxTopK = 100

// Error codes returned in the JSON error body.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeNotFound         = "product_not_found"
	codeAlreadyExists    = "product_already_exists"
	codeEncoderError     = "encoder_error"
	codeIndexUnavailable = "index_unavailable"
	codeIndexingFailed   = "indexing_failed"
	codeInternalError    = "internal_error"
)

// IngestService registers and indexes products.
type IngestService interface {
	Register(ctx context.Context, metadata map[string]any) (*domain.Product, ingestuc.Status, error)
	Reindex(ctx context.Context, id string) (ingestuc.Status, error)
}

// QueryService serves semantic and keyword search.
type QueryService interface {
	Search(ctx context.Context, query string, f *filter.Filter, topK int) ([]*domain.Product, error)
	Keyword(ctx context.Context, keyword string, f *filter.Filter, topK int) ([]*domain.Product, error)
}

// EnumsService serves the filterable value sets.
type EnumsService interface {
	Get(ctx context.Context) (*enumsuc.Enums, error)
}

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	ingest        IngestService
	query         QueryService
	enums         EnumsService
	health        map[string]HealthCheck
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	ingest IngestService,
	query QueryService,
	enums EnumsService,
	health map[string]HealthCheck,
	logger *zap.Logger,
) *Server {
	s := &Server{
		ingest: ingest,
		query:  query,
		enums:  enums,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrEmbedding, http.StatusBadGateway, codeEncoderError),
		sentinelHandler(domain.ErrIndexing, http.StatusBadGateway, codeIndexingFailed),
		sentinelHandler(domain.ErrIndexRead, http.StatusBadGateway, codeIndexUnavailable),
		sentinelHandler(domain.ErrIndexWrite, http.StatusBadGateway, codeIndexUnavailable),
	}
	return s
}

// Routes mounts all API routes on a fresh chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/products", s.RegisterProduct)
	r.Post("/products/{id}/reindex", s.ReindexProduct)
	r.Post("/search", s.SearchProducts)
	r.Post("/keyword-search", s.KeywordSearch)
	r.Get("/enums", s.GetEnums)
	r.Get("/health", s.HealthCheckHandler)
	r.Get("/metrics", s.Metrics)
	return r
}

type registerResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// RegisterProduct handles POST /products. The body is the raw product
// attribute mapping; id and images are mandatory.
func (s *Server) RegisterProduct(w http.ResponseWriter, r *http.Request) {
	var metadata map[string]any
	if err := json.NewDecoder(r.Body).Decode(&metadata); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p, status, err := s.ingest.Register(r.Context(), metadata)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/products/"+p.ID())
	writeJSON(w, http.StatusCreated, registerResponse{
		ID:     p.ID(),
		Status: string(status),
	})
}

// ReindexProduct handles POST /products/{id}/reindex.
func (s *Server) ReindexProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	status, err := s.ingest.Reindex(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, registerResponse{
		ID:     id,
		Status: string(status),
	})
}

type filterRequest struct {
	Category     string   `json:"category_name"`
	Shop         string   `json:"shop_name"`
	Status       string   `json:"status"`
	Region       string   `json:"region"`
	Currency     string   `json:"currency"`
	MinPrice     *float64 `json:"min_current_price"`
	MaxPrice     *float64 `json:"max_current_price"`
	MinDiscount  *float64 `json:"off_percent"`
	UpdatedAfter string   `json:"update_date"`
}

type searchRequest struct {
	Query  string         `json:"query"`
	TopK   int            `json:"top_k"`
	Filter *filterRequest `json:"filter"`
}

type keywordRequest struct {
	Keyword string         `json:"keyword"`
	TopK    int            `json:"top_k"`
	Filter  *filterRequest `json:"filter"`
}

type productResponse struct {
	ID       string         `json:"id"`
	Images   []string       `json:"images"`
	Metadata map[string]any `json:"metadata"`
}

type searchResponse struct {
	Items []productResponse `json:"items"`
	Total int               `json:"total"`
}

// SearchProducts handles POST /search.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.TopK < 0 || req.TopK > maxTopK {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("top_k must be between 0 and %d", maxTopK))
		return
	}

	products, err := s.query.Search(r.Context(), req.Query, filterFromRequest(req.Filter), req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseFrom(products))
}

// KeywordSearch handles POST /keyword-search.
func (s *Server) KeywordSearch(w http.ResponseWriter, r *http.Request) {
	var req keywordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Keyword == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "keyword is required")
		return
	}
	if req.TopK < 0 || req.TopK > maxTopK {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("top_k must be between 0 and %d", maxTopK))
		return
	}

	products, err := s.query.Keyword(r.Context(), req.Keyword, filterFromRequest(req.Filter), req.TopK)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponseFrom(products))
}

// GetEnums handles GET /enums.
func (s *Server) GetEnums(w http.ResponseWriter, r *http.Request) {
	enums, err := s.enums.Get(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, enums)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheckHandler handles GET /health.
func (s *Server) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status: "healthy",
		Checks: make(map[string]string, len(s.health)),
	}

	httpStatus := http.StatusOK
	for name, check := range s.health {
		if err := check(r.Context()); err != nil {
			s.logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "unhealthy"
			resp.Status = "unhealthy"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "healthy"
	}

	writeJSON(w, httpStatus, resp)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func filterFromRequest(req *filterRequest) *filter.Filter {
	if req == nil {
		return nil
	}
	return &filter.Filter{
		Category:     req.Category,
		Shop:         req.Shop,
		Status:       req.Status,
		Region:       req.Region,
		Currency:     req.Currency,
		MinPrice:     req.MinPrice,
		MaxPrice:     req.MaxPrice,
		MinDiscount:  req.MinDiscount,
		UpdatedAfter: req.UpdatedAfter,
	}
}

func searchResponseFrom(products []*domain.Product) searchResponse {
	items := make([]productResponse, len(products))
	for i, p := range products {
		items[i] = productResponse{
			ID:       p.ID(),
			Images:   p.Images(),
			Metadata: p.Metadata(),
		}
	}
	return searchResponse{
		Items: items,
		Total: len(items),
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrInvalidFilter,
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrEmbedding,
		domain.ErrIndexing,
		domain.ErrIndexRead,
		domain.ErrIndexWrite,
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
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
