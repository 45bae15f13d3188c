// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

// Package postgres owns the pgx connection pool shared by every store.
//
// # Architecture
//
// One pool per process. Traffic is dominated by short point reads (session
// rows, role grants, tenant lookups) with the occasional paginated listing,
// so the pool favors a small warm floor over a large ceiling. Session-level
// settings travel as runtime parameters in the connect string rather than a
// per-connection callback: every connection carries them from its first
// query, including the ones pgx opens mid-burst.
package postgres

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdang/aegis/internal/platform/constants"
)

// # Pool Tuning

const (
	// maxConns caps concurrent database work. Admin traffic is bursty but
	// shallow; 20 leaves headroom for the audit writer and the session
	// sweeper without starving interactive requests.
	maxConns = 20

	// minConns keeps a warm floor so the first login after a quiet period
	// does not pay the TLS and auth handshake.
	minConns = 4

	// maxConnLifetime forces periodic reconnects so server-side changes
	// (failover, parameter reloads, certificate rotation) get picked up.
	maxConnLifetime = time.Hour

	// maxConnIdleTime releases connections a burst no longer needs.
	maxConnIdleTime = 15 * time.Minute

	// healthCheckPeriod is how often idle connections are liveness-checked.
	healthCheckPeriod = time.Minute

	// connectTimeout bounds the initial dial during boot.
	connectTimeout = 5 * time.Second

	// pingTimeout bounds a single readiness probe.
	pingTimeout = 2 * time.Second
)

/*
NewPool connects to PostgreSQL and verifies the connection before returning.

Description: Parses the DSN, applies the pool tuning above, stamps the
application name and statement timeout as session parameters, and pings once
so a bad DSN fails the boot instead of the first request.

Parameters:
  - context: stdctx.Context
  - dsn: string (libpq DSN or postgres:// URL)
  - logger: *slog.Logger

Returns:
  - *pgxpool.Pool: The ready pool
  - error: Parse, connect, or ping failures
*/
func NewPool(context stdctx.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres_dsn_parse_failed: %w", err)
	}

	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnLifetime = maxConnLifetime
	poolConfig.MaxConnIdleTime = maxConnIdleTime
	poolConfig.HealthCheckPeriod = healthCheckPeriod
	poolConfig.ConnConfig.ConnectTimeout = connectTimeout

	// The server kills any statement that outlives the request deadline.
	// Without this a slow query keeps burning a connection long after the
	// client already received a timeout response.
	statementTimeout := strconv.FormatInt(constants.GlobalRequestTimeout.Milliseconds(), 10)
	poolConfig.ConnConfig.RuntimeParams["statement_timeout"] = statementTimeout
	poolConfig.ConnConfig.RuntimeParams["application_name"] = constants.AppName

	connectCtx, cancel := stdctx.WithTimeout(context, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres_pool_create_failed: %w", err)
	}

	if err := Ping(context, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres_connected",
		slog.String("database", poolConfig.ConnConfig.Database),
		slog.Int("max_conns", maxConns),
		slog.Int("min_conns", minConns),
	)

	return pool, nil
}

/*
Ping verifies that the database answers.

Description: Backs the readiness probe. Bounded by a short timeout of its own
so a wedged database degrades the probe instead of hanging it.

Parameters:
  - context: stdctx.Context
  - pool: *pgxpool.Pool

Returns:
  - error: Non-nil when the database did not answer in time
*/
func Ping(context stdctx.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres_ping_failed: %w", err)
	}

	return nil
}
