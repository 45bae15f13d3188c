// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/minhdang/aegis/internal/core/audit"
	"github.com/minhdang/aegis/internal/core/permission"
	"github.com/minhdang/aegis/internal/core/role"
	"github.com/minhdang/aegis/internal/core/tenant"
	"github.com/minhdang/aegis/internal/platform/config"
	"github.com/minhdang/aegis/internal/platform/constants"
	"github.com/minhdang/aegis/internal/platform/middleware"
	"github.com/minhdang/aegis/internal/users/account"
	"github.com/minhdang/aegis/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
//
// # Usage
//
// New domains add a field here — no other change to server.go is required.
type Handlers struct {
	// Liveness is the /health handler — always returns 200 if process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler — returns 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles the token lifecycle (login, refresh, logout).
	Auth *auth.Handler

	// Account handles the /me profile surface and tenant user administration.
	Account *account.Handler

	// Tenant manages the tenant directory.
	Tenant *tenant.Handler

	// Role manages roles, permission grants, and assignments.
	Role *role.Handler

	// Audit exposes the tenant audit trail.
	Audit *audit.Handler
}

// Dependencies groups the platform services the middleware chain needs.
type Dependencies struct {
	// Verifier validates access token signatures.
	Verifier middleware.TokenVerifier

	// Sessions answers whether a session ID sits on the revocation denylist.
	Sessions middleware.SessionChecker

	// Permissions is the resolver backing every route permission gate.
	Permissions middleware.PermissionChecker

	// Tenants backs the guard's superadmin tenant-existence check.
	Tenants middleware.TenantChecker

	// Redis backs the distributed rate limiter.
	Redis *redis.Client
}

// # Server Initialization

// NewServer constructs the chi router with the full middleware chain and
// registers all route groups.
func NewServer(cfg *config.Config, log *slog.Logger, deps Dependencies, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(chimw.Timeout(constants.GlobalRequestTimeout))
	r.Use(middleware.RateLimit(deps.Redis, middleware.RateLimitConfig{
		Enabled:  cfg.RateLimitEnabled,
		Requests: cfg.RateLimitRequests,
		Window:   cfg.RateLimitWindow(),
	}))
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.Authenticate(deps.Verifier, deps.Sessions))
	r.Use(middleware.CORS(cfg))
	r.Use(chimw.CleanPath)

	// # Infrastructure Endpoints
	// Unauthenticated health probes for container orchestration.
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)

	// # Application API
	// Domain-specific route groups mounted under versioned prefix. Auth,
	// tenant, role, and account routers carry their own guard stacks; the
	// audit router expects its gates mounted here.
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/auth", h.Auth.Routes())
		api.Mount("/tenants", h.Tenant.Routes())
		api.Mount("/roles", h.Role.Routes())

		api.Group(func(protected chi.Router) {
			protected.Use(middleware.RequireTenant(deps.Tenants))
			protected.Use(middleware.RequirePermission(deps.Permissions, permission.AuditRead))
			protected.Mount("/audit", h.Audit.Routes())
		})

		api.Mount("/", h.Account.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
