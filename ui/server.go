package ui

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/simonsteiger/strix/app"
	"github.com/simonsteiger/strix/internal"
	"github.com/simonsteiger/strix/internal/config"
	"github.com/simonsteiger/strix/ports"
)

// Server exposes the contrast pipeline over HTTP. The pipeline itself stays
// in app/domain; this layer only translates JSON in and out.
type Server struct {
	router   *chi.Mux
	service  *app.ContrastService
	repo     ports.ContrastRepositoryPort // nil disables the runs endpoints
	defaults config.AnalysisConfig
	logger   *internal.Logger
}

// NewServer creates the HTTP server around a contrast service
func NewServer(service *app.ContrastService, repo ports.ContrastRepositoryPort, defaults config.AnalysisConfig, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}

	s := &Server{
		router:   chi.NewRouter(),
		service:  service,
		repo:     repo,
		defaults: defaults,
		logger:   logger,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/contrast", s.handleContrast)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/runs/{id}/report", s.handleRunReport)
	})

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the server on the given address
func (s *Server) ListenAndServe(addr string) error {
	s.logger.Info("listening on %s", addr)
	return http.ListenAndServe(addr, s.router)
}
