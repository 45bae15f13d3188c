// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package config maps the process environment into one typed struct.

Everything the server needs to boot (addresses, key paths, token lifetimes,
rate-limit budget) arrives as environment variables, parsed once by
'caarlos0/env' and validated before any component starts. A missing required
variable or a nonsensical value stops the boot with a named error instead of
surfacing later as a half-working server.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/minhdang/aegis/pkg/query"
)

// # Configuration Schema

// Config holds all runtime configuration for the Aegis API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis): permission cache, revocation list, rate limiter.
	RedisURL string `env:"REDIS_URL,required"`

	// Cryptographic keys for identity signing
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH,required"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH,required"`

	// Token lifetimes
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	// Sliding-window rate limiter
	RateLimitEnabled  bool `env:"RATE_LIMIT_ENABLED"        envDefault:"true"`
	RateLimitRequests int  `env:"RATE_LIMIT_REQUESTS"       envDefault:"100"`
	RateLimitWindowS  int  `env:"RATE_LIMIT_WINDOW_SECONDS" envDefault:"60"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses the environment into a [Config], failing fast on a missing
// required variable or an invalid rate-limit budget.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// A zero or negative budget would either reject everything or divide by
	// zero in the limiter; neither is a sane deployment.
	if cfg.RateLimitRequests <= 0 || cfg.RateLimitWindowS <= 0 {
		return nil, fmt.Errorf("config: rate limit requests and window must be positive")
	}

	return cfg, nil
}

// RateLimitWindow returns the sliding window span as a [time.Duration].
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowS) * time.Second
}

// AllowedOrigins returns the extra CORS origins granted beyond the platform
// domain, parsed from the comma-separated EXTRA_ORIGINS variable.
func (c *Config) AllowedOrigins() []string {
	return query.StringSlice(c.ExtraOrigins)
}

// IsDevelopment reports whether the server runs in development mode, which
// relaxes CORS for local consoles.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
