// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

// Command api is the entry point for the Aegis authorization API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Wire domain services and HTTP handlers.
//  7. Start background workers (cache invalidation listener, session sweeper).
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/minhdang/aegis/internal/api"
	"github.com/minhdang/aegis/internal/core/audit"
	"github.com/minhdang/aegis/internal/core/permission"
	"github.com/minhdang/aegis/internal/core/role"
	"github.com/minhdang/aegis/internal/core/tenant"
	"github.com/minhdang/aegis/internal/platform/config"
	"github.com/minhdang/aegis/internal/platform/constants"
	"github.com/minhdang/aegis/internal/platform/migration"
	pgstore "github.com/minhdang/aegis/internal/platform/postgres"
	redisstore "github.com/minhdang/aegis/internal/platform/redis"
	"github.com/minhdang/aegis/internal/platform/sec"
	"github.com/minhdang/aegis/internal/users/account"
	"github.com/minhdang/aegis/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Aegis] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Long-lived context for background workers, cancelled during shutdown.
	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Token Service ──────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health Handlers ────────────────────────────────────────────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	auditRepository := audit.NewRepository(pool)
	auditService := audit.NewService(auditRepository, log)
	auditHandler := audit.NewHandler(auditService)

	permissionCache := permission.NewCache(rdb)
	grantRepository := permission.NewGrantRepository(pool)
	permissionService := permission.NewService(grantRepository, grantRepository, permissionCache)

	userRepository := auth.NewUserRepository(pool)
	sessionRepository := auth.NewSessionRepository(pool)
	revocationRepository := auth.NewRevokedSessionRepository(rdb)
	authService := auth.NewService(
		userRepository,
		sessionRepository,
		revocationRepository,
		jwtSvc,
		auditService,
		cfg.AccessTokenTTL,
		cfg.RefreshTokenTTL,
	)
	authHandler := auth.NewHandler(authService)

	tenantRepository := tenant.NewRepository(pool)
	tenantService := tenant.NewService(tenantRepository, auditService)
	tenantHandler := tenant.NewHandler(tenantService, permissionService)

	roleRepository := role.NewRepository(pool)
	roleService := role.NewService(roleRepository, permissionCache, auditService)
	roleHandler := role.NewHandler(roleService, permissionService, tenantService)

	accountRepository := account.NewRepository(pool)
	accountService := account.NewService(
		accountRepository,
		tenantService,
		permissionService,
		authService,
		auditService,
		log,
	)
	accountHandler := account.NewHandler(accountService, permissionService, tenantService)

	// ── 9. Background Workers ─────────────────────────────────────────────
	// Cache invalidation listener: fans pub/sub invalidation events into the
	// local permission cache tier. Reconnects internally until runCtx ends.
	go permissionCache.Listen(runCtx, log)

	// Session sweeper: expired refresh sessions carry no rights but clutter
	// the table; remove them on a slow cadence.
	go func() {
		ticker := time.NewTicker(auth.SessionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				if err := sessionRepository.DeleteExpired(runCtx); err != nil {
					log.Warn("session_sweep_failed", slog.Any("error", err))
				}
			}
		}
	}()

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Account:   accountHandler,
		Tenant:    tenantHandler,
		Role:      roleHandler,
		Audit:     auditHandler,
	}

	dependencies := api.Dependencies{
		Verifier:    jwtSvc,
		Sessions:    revocationRepository,
		Permissions: permissionService,
		Tenants:     tenantService,
		Redis:       rdb,
	}

	server := api.NewServer(cfg, log, dependencies, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Stop background workers before draining in-flight requests.
	runCancel()

	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
