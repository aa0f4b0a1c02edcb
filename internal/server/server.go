// Package server provides the HTTP API for the returns assistant.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"returns-insights/internal/agents/router"
	"returns-insights/internal/common/config"
	"returns-insights/internal/common/logger"
	"returns-insights/internal/notify"
	"returns-insights/internal/report"
	"returns-insights/internal/session"
)

// Server is the HTTP front of the conversation router.
type Server struct {
	router   *router.Router
	sessions session.Store
	reports  *report.Renderer
	notifier *notify.Notifier
	config   config.ServerConfig
	logger   logger.Logger
	server   *http.Server
}

// New creates a server with the given collaborators. The notifier may
// be nil when no confirmation channel is configured.
func New(
	rt *router.Router,
	sessions session.Store,
	reports *report.Renderer,
	notifier *notify.Notifier,
	cfg config.ServerConfig,
	log logger.Logger,
) *Server {
	return &Server{
		router:   rt,
		sessions: sessions,
		reports:  reports,
		notifier: notifier,
		config:   cfg,
		logger:   log.WithFields(map[string]interface{}{"component": "server"}),
	}
}

// Handler builds the route tree. Split out from Start so tests can
// drive it through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/api/chat", s.handleChat)
	r.Get("/api/history/{sessionID}", s.handleHistory)
	r.Post("/api/clear", s.handleClear)
	r.Get("/api/reports/{id}", s.handleReport)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.handleHealth)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.config.Addr(),
		Handler: s.Handler(),
	}
	s.logger.Info("starting server", map[string]interface{}{"addr": s.config.Addr()})
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
