// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/portfolio-service/internal/logging"
	"github.com/portfolio-service/internal/models"
	"github.com/portfolio-service/internal/storage"
)

// Service interfaces for dependency injection and testing

// AccountServiceInterface defines the interface for transaction operations
type AccountServiceInterface interface {
	CreateTransaction(ctx context.Context, tx *models.Transaction) (*models.Transaction, error)
	ListTransactions(ctx context.Context, userID int64) ([]*models.Transaction, error)
}

// ValuationServiceInterface defines the interface for valuation operations
type ValuationServiceInterface interface {
	Valuation(ctx context.Context, userID int64) (*models.ValuationResult, error)
	Breakdown(ctx context.Context, userID int64) (*models.HoldingBreakdown, error)
}

// SnapshotServiceInterface defines the interface for snapshot operations
type SnapshotServiceInterface interface {
	ListSnapshots(ctx context.Context, userID int64, from, to time.Time) ([]*models.PortfolioSnapshot, error)
}

// Server represents the HTTP API server.
type Server struct {
	router           *mux.Router
	httpServer       *http.Server
	accountService   AccountServiceInterface
	valuationService ValuationServiceInterface
	snapshotService  SnapshotServiceInterface
	cache            *storage.RedisCache
	config           *ServerConfig
	logger           *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	RequestsPerWindow int
	RateLimitWindow   time.Duration
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	accountService AccountServiceInterface,
	valuationService ValuationServiceInterface,
	snapshotService SnapshotServiceInterface,
	cache *storage.RedisCache,
	logger *logging.Logger,
) *Server {
	s := &Server{
		router:           mux.NewRouter(),
		accountService:   accountService,
		valuationService: valuationService,
		snapshotService:  snapshotService,
		cache:            cache,
		config:           config,
		logger:           logger,
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	// Middleware order matters: logging first so every outcome is recorded
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	if s.cache != nil {
		rateLimiter := NewRateLimiter(s.cache, s.config.RequestsPerWindow, s.config.RateLimitWindow)
		s.router.Use(RateLimitMiddleware(rateLimiter))
	}

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Transaction endpoints
	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods("POST")
	api.HandleFunc("/users/{id}/transactions", s.handleListTransactions).Methods("GET")

	// Valuation endpoints
	api.HandleFunc("/users/{id}/valuation", s.handleGetValuation).Methods("GET")
	api.HandleFunc("/users/{id}/breakdown", s.handleGetBreakdown).Methods("GET")
	api.HandleFunc("/users/{id}/snapshots", s.handleListSnapshots).Methods("GET")
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "portfolio-service",
	})
}

// Router returns the configured router, used by tests
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server...")
	return s.httpServer.Shutdown(ctx)
}
