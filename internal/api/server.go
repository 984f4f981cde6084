// Package api serves the dashboard computations as JSON over chi.
package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"attritionboard/internal/pipeline"
	"attritionboard/ports"
)

// Server is the JSON API.
type Server struct {
	router   *chi.Mux
	provider ports.DatasetProvider
	pipeline *pipeline.Pipeline
}

// NewServer wires the API routes over a dataset provider and a pipeline.
func NewServer(provider ports.DatasetProvider, p *pipeline.Pipeline) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		provider: provider,
		pipeline: p,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures HTTP middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(60 * time.Second))
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Get("/schema", s.handleSchema)
	s.router.Get("/charts", s.handleCharts)
	s.router.Get("/frequency/{column}", s.handleFrequency)
	s.router.Get("/crosstab/{column}", s.handleCrossTab)
	s.router.Get("/histogram/{column}", s.handleHistogram)
	s.router.Get("/outliers/{column}", s.handleOutliers)
	s.router.Get("/describe/{column}", s.handleDescribe)
	s.router.Get("/preview", s.handlePreview)

	s.router.Get("/report.md", s.handleReport)
	s.router.Get("/export.xlsx", s.handleExport)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start listens on addr until the server fails.
func (s *Server) Start(addr string) error {
	log.Printf("[API] listening on %s", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
