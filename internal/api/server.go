package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opensource-finance/tradewatch/internal/domain"
	"github.com/opensource-finance/tradewatch/internal/scoring"
)

// MaxBodyBytes caps the size of a request body.
const MaxBodyBytes = 8 << 20

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, scorer *scoring.Scorer, version string) *Server {
	handler := NewHandler(scorer, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(TracingMiddleware)      // Request span and IDs
	router.Use(LoggingMiddleware)      // Access log with scoring outcome
	router.Use(RecoverMiddleware)      // Panics become a logged 500
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression
	router.Use(BodyLimitMiddleware(MaxBodyBytes))

	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	router.Post("/score", handler.Score)
	router.Post("/score/batch", handler.ScoreBatch)
	router.Get("/rules", handler.ListRules)

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
		server:  &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

// Start serves until Shutdown is called. A Shutdown that happens first
// makes Start return http.ErrServerClosed immediately.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
