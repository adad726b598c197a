package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
	"github.com/hyndhavamahesh345/LexGuard/internal/service"
	"github.com/hyndhavamahesh345/LexGuard/internal/session"
)

// Deps are the collaborators of the API. Service is required. Evaluator
// overrides where POST /evaluate runs, e.g. a worker over the bus; it
// defaults to Service.
type Deps struct {
	Service   *service.Service
	Evaluator domain.ComplianceEvaluator
	Repo      domain.Repository
	Cache     domain.Cache
	Bus       domain.EventBus
	Sessions  *session.Store
}

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, deps Deps, version string) *Server {
	handler := NewHandler(deps, version)
	router := chi.NewRouter()

	router.Use(CORSMiddleware)
	router.Use(RecoverMiddleware)
	router.Use(TracingMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(middleware.RealIP)
	router.Use(middleware.Compress(5))

	// Health endpoints (no tenant required)
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	router.Group(func(r chi.Router) {
		r.Use(TenantMiddleware)

		r.Group(func(r chi.Router) {
			r.Use(RateLimitMiddleware(deps.Cache, cfg.RateLimitPerMinute))
			r.Post("/evaluate", handler.Evaluate)
			r.Post("/api/transactions/analyze", handler.Analyze)
		})

		r.Get("/evaluations/{id}", handler.GetEvaluation)
		r.Get("/transactions/{id}", handler.GetTransaction)

		r.Get("/rules", handler.ListRules)
		r.Get("/rules/{id}", handler.GetRule)
		r.Post("/rules", handler.CreateRule)
		r.Post("/rules/reload", handler.ReloadRules)

		r.Post("/auth/login", handler.Login)
		r.Post("/auth/logout", handler.Logout)
		r.Get("/auth/me", handler.Me)
	})

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
