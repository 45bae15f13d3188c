// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package redis provides the client for the volatile side of the platform.

Redis holds everything that must be fast and is allowed to vanish: cached
permission sets, the revoked-session denylist, and rate-limit counters. All
of it carries a TTL, and all of it can be rebuilt from PostgreSQL, so a cache
flush degrades latency rather than correctness.

Core Responsibilities:

  - Volatility: Every key expires; nothing here is a system of record.
  - Speed: Permission checks on the hot path never touch SQL.
  - Fan-out: Pub/sub carries cache invalidation to every instance.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minhdang/aegis/internal/platform/constants"
)

// # Client Tuning

const (
	// dialTimeout bounds the initial TCP connect.
	dialTimeout = 3 * time.Second

	// readTimeout and writeTimeout keep a slow Redis from holding request
	// goroutines; callers treat a timeout like a cache miss.
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second

	// pingTimeout bounds a single readiness probe.
	pingTimeout = 2 * time.Second

	// poolSize matches the HTTP worker profile: each request does at most
	// one or two cache round trips, so a modest pool is plenty.
	poolSize     = 12
	minIdleConns = 3
)

/*
NewClient parses a Redis URL and returns a verified client.

Description: Applies the tuning above, names the connection so it is
identifiable in CLIENT LIST, and pings once so a bad URL fails the boot
rather than the first permission check.

Parameters:
  - context: stdctx.Context
  - redisURL: string (redis:// or rediss:// URL)
  - logger: *slog.Logger

Returns:
  - *redis.Client: The ready client
  - error: Parse or connectivity failures
*/
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis_url_parse_failed: %w", err)
	}

	options.ClientName = constants.AppName
	options.PoolSize = poolSize
	options.MinIdleConns = minIdleConns
	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Int("pool_size", options.PoolSize),
	)

	return client, nil
}

/*
Ping verifies that Redis answers.

Description: Backs the readiness probe, bounded by its own short timeout.

Parameters:
  - context: stdctx.Context
  - client: *redis.Client

Returns:
  - error: Non-nil when Redis did not answer in time
*/
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis_ping_failed: %w", err)
	}

	return nil
}
