// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

// Package migration applies the SQL schema migrations at startup.
//
// # Architecture
//
// A thin wrapper around golang-migrate. The server refuses to take traffic
// before the schema is current: authorization decisions against a stale
// schema are worse than a failed boot. Migrations are idempotent, so every
// instance in a rollout can run them concurrently; golang-migrate serializes
// via its advisory lock.
package migration

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	// Registers the "pgx5" database scheme.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	// Registers the "file" source scheme for .sql files on disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

/*
RunUp applies every pending up migration.

Description: A dirty version (a previous run died mid-migration) aborts the
boot; that state needs an operator, not a retry loop.

Parameters:
  - dsn: string (libpq DSN or postgres:// URL)
  - migrationsPath: string (directory holding the versioned .sql files)
  - logger: *slog.Logger

Returns:
  - error: Initialization failures, dirty schema, or a failed migration
*/
func RunUp(dsn string, migrationsPath string, logger *slog.Logger) error {
	migrator, err := migrate.New("file://"+migrationsPath, pgx5URL(dsn))
	if err != nil {
		return fmt.Errorf("migration_init_failed: %w", err)
	}
	defer func() {
		if sourceErr, dbErr := migrator.Close(); sourceErr != nil || dbErr != nil {
			logger.Warn("migration_close_failed",
				slog.Any("source_error", sourceErr),
				slog.Any("db_error", dbErr),
			)
		}
	}()
	migrator.Log = &slogBridge{logger: logger}

	before, dirty, err := migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migration_version_lookup_failed: %w", err)
	}
	if dirty {
		return fmt.Errorf("migration_dirty_schema: version %d needs manual repair", before)
	}

	if err := migrator.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("schema_up_to_date", slog.Int("version", int(before)))
			return nil
		}
		return fmt.Errorf("migration_up_failed: %w", err)
	}

	after, _, _ := migrator.Version()
	logger.Info("schema_migrated",
		slog.Int("from_version", int(before)),
		slog.Int("to_version", int(after)),
	)

	return nil
}

// pgx5URL rewrites a postgres:// or postgresql:// URL to the pgx5:// scheme
// golang-migrate uses to select its pgx/v5 driver. Other schemes pass through.
func pgx5URL(dsn string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

// slogBridge adapts golang-migrate's printf-style logger to slog. Migration
// chatter goes to Debug; the interesting transitions are logged by RunUp.
type slogBridge struct {
	logger *slog.Logger
}

func (bridge *slogBridge) Printf(format string, args ...any) {
	bridge.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (bridge *slogBridge) Verbose() bool {
	return false
}
