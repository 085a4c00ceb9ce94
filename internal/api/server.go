package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/edvin/labdeploy/internal/api/handler"
	mw "github.com/edvin/labdeploy/internal/api/middleware"
	"github.com/edvin/labdeploy/internal/api/response"
	"github.com/edvin/labdeploy/internal/config"
)

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	router      chi.Router
	logger      zerolog.Logger
	deployments handler.DeploymentService
	db          Pinger
	cfg         *config.Config
}

func NewServer(logger zerolog.Logger, deployments handler.DeploymentService, db Pinger, cfg *config.Config) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		logger:      logger,
		deployments: deployments,
		db:          db,
		cfg:         cfg,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(mw.RequestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(mw.Metrics)
	s.router.Use(mw.CORS(s.cfg.CORSOrigins))
}

func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.WriteError(w, http.StatusNotFound, "not_found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed")
	})

	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/healthz", s.handleHealthz)
	s.router.Get("/readyz", s.handleReadyz)

	s.router.Route("/api", func(r chi.Router) {
		deployment := handler.NewDeployment(s.deployments)
		r.Post("/deploy", deployment.Create)
		r.Get("/deployments", deployment.List)
		r.Get("/deployments/{id}", deployment.Get)
	})
}

func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	response.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := s.db.Ping(ctx); err != nil {
		checks["db"] = err.Error()
		healthy = false
	} else {
		checks["db"] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	response.WriteJSON(w, status, map[string]any{
		"ok":     healthy,
		"checks": checks,
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
