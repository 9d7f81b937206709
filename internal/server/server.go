// Package server provides the HTTP API for ivfgo.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/ivfgo"
	"github.com/hupe1980/ivfgo/codec"
	"github.com/hupe1980/ivfgo/internal/config"
)

// Server is the HTTP server for the ivfgo API.
type Server struct {
	db      *ivfgo.DB
	config  *config.Config
	logger  *ivfgo.Logger
	codec   codec.Codec
	metrics http.Handler
	server  *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithMetricsHandler replaces the /metrics handler (default promhttp.Handler()).
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithCodec replaces the request and response body codec.
func WithCodec(c codec.Codec) Option {
	return func(s *Server) { s.codec = c }
}

// NewServer creates a server for db.
func NewServer(db *ivfgo.DB, cfg *config.Config, logger *ivfgo.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = ivfgo.NoopLogger()
	}
	s := &Server{
		db:      db,
		config:  cfg,
		logger:  logger,
		codec:   codec.Default,
		metrics: promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.config.Server.WriteTimeout > 0 {
		r.Use(middleware.Timeout(s.config.Server.WriteTimeout))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/vectors", s.handleInsert)
		r.Get("/vectors/{id}", s.handleGetVector)
		r.Post("/build", s.handleBuild)
		r.Post("/checkpoint", s.handleCheckpoint)
		r.Get("/stats", s.handleStats)
	})
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics)
	return r
}

// Start starts the HTTP server and blocks until it stops.
// It returns nil after a graceful Stop.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:              s.config.Server.Addr(),
		Handler:           s.Handler(),
		ReadTimeout:       s.config.Server.ReadTimeout,
		ReadHeaderTimeout: s.config.Server.ReadTimeout,
		WriteTimeout:      s.config.Server.WriteTimeout + 5*time.Second,
	}
	s.logger.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
