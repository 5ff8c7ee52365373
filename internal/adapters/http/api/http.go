// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zainab-hr/ProjetProduits/internal/adapters/http/swagger"
	"github.com/zainab-hr/ProjetProduits/internal/domain/batch"
	"github.com/zainab-hr/ProjetProduits/internal/domain/classifier"
	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
	"github.com/zainab-hr/ProjetProduits/internal/domain/model"
	"github.com/zainab-hr/ProjetProduits/internal/domain/types"
	"github.com/zainab-hr/ProjetProduits/pkg/logger"
	"github.com/zainab-hr/ProjetProduits/pkg/metrics"
)

const (
	defaultMaxBatchSize = 1000
	defaultListLimit    = 100
	maxBodyBytes        = 16 << 20
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	// Predict classifies without storing.
	Predict(ctx context.Context, in features.Input) (classifier.Result, error)
	// CreateProduct classifies and stores one product.
	CreateProduct(ctx context.Context, in model.ProductInput) (batch.Routed, error)
	// BulkImport classifies and stores each product independently.
	BulkImport(ctx context.Context, items []model.ProductInput) model.BatchOutcome
	// ListProducts reads one partition, newest first.
	ListProducts(ctx context.Context, p types.Partition, limit int) ([]model.Product, error)
	// Health probes the model and both partitions.
	Health(ctx context.Context) model.HealthReport
	// Ready reports whether the artifact bundle is loaded.
	Ready() bool
}

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithMaxBatchSize caps the number of items per bulk import.
func WithMaxBatchSize(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBatchSize = n
		}
	}
}

// WithListLimit sets the default and maximum page size of product listings.
func WithListLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.listLimit = n
		}
	}
}

// WithAllowedOrigins sets the CORS origins. "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithRateLimit limits write requests per client IP per minute. 0 disables it.
func WithRateLimit(perMinute int) Option {
	return func(s *Server) {
		if perMinute >= 0 {
			s.ratePerMinute = perMinute
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps  Dependencies
	stats StatsProvider
	log   logger.Logger

	maxBatchSize   int
	listLimit      int
	allowedOrigins []string
	ratePerMinute  int
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, stats StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		stats:          stats,
		maxBatchSize:   defaultMaxBatchSize,
		listLimit:      defaultListLimit,
		allowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrGet(s.log, "api")
	return s
}

// Routes builds the router with every endpoint, the docs and the middleware stack.
func (s *Server) Routes(ctx context.Context) http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(s.observe)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.fail(w, r, NewKind("api.route", ErrNotFound))
	})

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/healthz", s.handleLiveness)
	r.Get("/readyz", s.handleReadiness)
	r.Get("/stats", s.handleStats)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	r.Get("/products/{partition}", s.handleListProducts)

	r.Group(func(r chi.Router) {
		if s.ratePerMinute > 0 {
			r.Use(httprate.LimitByIP(s.ratePerMinute, time.Minute))
		}
		r.Post("/predict", s.handlePredict)
		r.Post("/predict-and-save", s.handlePredictAndSave)
		r.Post("/products/bulk-import", s.handleBulkImport)
	})

	swagger.Register(ctx, r)
	return r
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// fail renders err with the status of its kind. Server-side failures are
// logged; encoding errors point at a broken artifact bundle and are logged
// at error level.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.String("request_id", RequestIDFrom(r.Context())),
			logger.Error(err),
		)
	}
	writeError(w, status, code, err)
}

// decodeJSON reads one JSON document from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
