// Package server provides the HTTP API for bizsearch.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/bizsearch/internal/config"
	"github.com/hyperjump/bizsearch/internal/ranking"
	"github.com/hyperjump/bizsearch/internal/search"
	"github.com/hyperjump/bizsearch/internal/storage"
	"go.uber.org/zap"
)

// Server is the HTTP server for the bizsearch API.
type Server struct {
	engine         *search.Engine
	catalog        storage.Catalog
	models         *ranking.ModelHandle
	missingLogPath string
	config         *config.ServerConfig
	logger         *zap.Logger
	server         *http.Server
}

// NewServer creates a server with the given dependencies.
// handle and missingLogPath are only used for status reporting and may be empty.
func NewServer(
	engine *search.Engine,
	catalog storage.Catalog,
	handle *ranking.ModelHandle,
	missingLogPath string,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		engine:         engine,
		catalog:        catalog,
		models:         handle,
		missingLogPath: missingLogPath,
		config:         cfg,
		logger:         logger,
	}
}

// Handler returns the router with all API routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/businesses", s.handleListBusinesses)
		r.Get("/businesses/{id}", s.handleGetBusiness)
		r.Get("/status", s.handleStatus)
	})
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
