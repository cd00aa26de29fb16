package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/me/gofleet/internal/config"
	"github.com/me/gofleet/internal/mapselect"
	"github.com/me/gofleet/internal/scheduler"
	"github.com/me/gofleet/internal/store"
)

// Version is reported by the health and discovery endpoints.
const Version = "0.1.0"

// Server is the gofleet REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	store     store.Store
	maps      *mapselect.Service
	scheduler scheduler.Scheduler // optional; reported by /health
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithScheduler records the running scheduler so /health can report it.
func WithScheduler(sched scheduler.Scheduler) Option {
	return func(s *Server) {
		s.scheduler = sched
	}
}

// New creates a new Server with all routes registered.
func New(cfg config.ServerConfig, st store.Store, maps *mapselect.Service, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		store:     st,
		maps:      maps,
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
		r.Get("/", s.handleDiscovery)
		r.Get("/health", s.handleHealth)

		r.Route("/missions", func(r chi.Router) {
			r.Get("/", s.handleListMissions)
			r.Post("/", s.handleCreateMission)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetMission)
				r.Post("/cancel", s.handleCancelMission)
				r.Get("/map", s.handleGetMissionMap)
			})
		})

		r.Route("/robots", func(r chi.Router) {
			r.Get("/", s.handleListRobots)
			r.Post("/", s.handleCreateRobot)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetRobot)
				r.Put("/status", s.handleUpdateRobotStatus)
			})
		})

		r.Route("/assets/{code}/maps", func(r chi.Router) {
			r.Get("/", s.handleListMaps)
			r.Put("/{name}", s.handleUploadMap)
		})
	})
}
