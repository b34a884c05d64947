// Package api exposes impact analysis and the signal feed over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sells-group/competitive-intel/internal/config"
	"github.com/sells-group/competitive-intel/internal/impact"
	"github.com/sells-group/competitive-intel/internal/store"
)

// requestTimeout bounds a single request, including directory calls.
const requestTimeout = 60 * time.Second

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	analyzer    *impact.Analyzer
	competitors store.CompetitorRepository
	signals     store.SignalRepository
	cfg         config.ServerConfig
}

// NewServer creates a Server.
func NewServer(analyzer *impact.Analyzer, competitors store.CompetitorRepository, signals store.SignalRepository, cfg config.ServerConfig) *Server {
	return &Server{analyzer: analyzer, competitors: competitors, signals: signals, cfg: cfg}
}

// Routes returns the router serving every endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/impact-analysis", s.handleImpactAnalysis)
		r.Get("/competitors", s.handleListCompetitors)
		r.Get("/signals", s.handleListSignals)
		r.Get("/signals/{id}/impact", s.handleSignalImpact)
		r.Get("/digest", s.handleDigest)
	})

	return r
}
