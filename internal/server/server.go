package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/runhub/internal/archive"
	"github.com/me/runhub/internal/config"
	"github.com/me/runhub/internal/dispatch"
	"github.com/me/runhub/internal/queue"
	"github.com/me/runhub/internal/registry"
)

// Server is the runhub coordinator REST API server.
type Server struct {
	router     chi.Router
	logger     *slog.Logger
	config     config.ServerConfig
	startTime  time.Time
	queue      *queue.Queue
	registry   *registry.Registry
	dispatcher *dispatch.Dispatcher
	archive    *archive.Store // optional; nil when history is disabled
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithArchive sets the terminal-run history store backing /history.
func WithArchive(st *archive.Store) Option {
	return func(s *Server) {
		s.archive = st
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, q *queue.Queue, reg *registry.Registry, disp *dispatch.Dispatcher, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:     chi.NewRouter(),
		logger:     logger.With("component", "server"),
		config:     cfg,
		startTime:  time.Now(),
		queue:      q,
		registry:   reg,
		dispatcher: disp,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))

	r.Route("/api/v1", func(r chi.Router) {
		// Health
		r.Get("/health", s.handleHealth)

		// Runs
		r.Route("/runs", func(r chi.Router) {
			r.Get("/", s.handleListRuns)
			r.Post("/", s.handleSubmitRun)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRun)
				r.Post("/stop", s.handleStopRun)
			})
		})

		// Archived terminal runs
		r.Get("/history", s.handleListHistory)

		// Sessions
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", s.handleListSessions)
			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
			})
		})

		// Runners
		r.Route("/runners", func(r chi.Router) {
			r.Get("/", s.handleListRunners)
			r.Post("/", s.handleRegisterRunner)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/heartbeat", s.handleRunnerHeartbeat)
				r.Get("/work", s.handleRunnerWork)
				r.Delete("/", s.handleDeregisterRunner)
				r.Route("/runs/{rid}", func(r chi.Router) {
					r.Put("/started", s.handleReportStarted)
					r.Put("/completed", s.handleReportCompleted)
					r.Put("/failed", s.handleReportFailed)
					r.Put("/stopped", s.handleReportStopped)
				})
			})
		})
	})
}
