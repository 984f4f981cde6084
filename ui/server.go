// Package ui serves the HTML dashboard over gin.
package ui

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"attritionboard/internal/pipeline"
	"attritionboard/ports"
)

//go:embed templates static
var embeddedFiles embed.FS

// Server is the dashboard web server.
type Server struct {
	router    *gin.Engine
	provider  ports.DatasetProvider
	pipeline  *pipeline.Pipeline
	api       http.Handler
	templates *template.Template
}

// NewServer creates the dashboard. api, when set, is mounted under /api.
func NewServer(provider ports.DatasetProvider, p *pipeline.Pipeline, api http.Handler) (*Server, error) {
	templates, err := template.New("").Funcs(funcMap()).ParseFS(embeddedFiles, "templates/*.html", "templates/fragments/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		router:    gin.New(),
		provider:  provider,
		pipeline:  p,
		api:       api,
		templates: templates,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Logger(), gin.Recovery())

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		log.Printf("[setupMiddleware] Error creating static filesystem: %v", err)
		return
	}
	s.router.StaticFS("/static", http.FS(staticFS))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.GET("/fragments/charts", s.handleFragmentCharts)
	s.router.GET("/report", s.handleReport)
	s.router.GET("/charts/:file", s.handleChartPNG)

	s.router.GET("/api/dataset/status", s.handleDatasetStatus)

	// The JSON API shares the /api prefix; gin cannot hold a catch-all next
	// to static /api routes, so unmatched paths are forwarded.
	s.router.NoRoute(func(c *gin.Context) {
		if s.api != nil && strings.HasPrefix(c.Request.URL.Path, "/api/") {
			// NoRoute starts out as 404; handlers that never call WriteHeader mean 200.
			c.Status(http.StatusOK)
			http.StripPrefix("/api", s.api).ServeHTTP(c.Writer, c.Request)
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found", "code": "NOT_FOUND"})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start starts the web server
func (s *Server) Start(addr string) error {
	log.Printf("[UI] dashboard on http://%s", addr)
	return s.router.Run(addr)
}
