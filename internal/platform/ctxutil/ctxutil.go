// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

// Package ctxutil is the typed accessor layer over request-scoped context
// values.
//
// Four facts travel with a request: its correlation ID, its logger, the
// verified claims of the caller, and the tenant scope. Middleware writes
// them, handlers and services read them, and nobody touches [ctxkey] keys
// or does type assertions outside this package.
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/minhdang/aegis/internal/platform/ctxkey"
	"github.com/minhdang/aegis/internal/platform/sec"
)

// # Request Tracing

// WithRequestID attaches the correlation ID minted by the request-ID
// middleware.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID returns the correlation ID, or an empty string for contexts
// that never passed the middleware (background jobs, tests).
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger attaches a logger pre-tagged with request fields.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger returns the request logger, falling back to the process default
// so callers can always log without a nil check.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithAuthUser attaches the verified token claims. Only the authentication
// middleware calls this; anything already in the context is overwritten, so
// a spoofed upstream value cannot survive verification.
func WithAuthUser(ctx context.Context, user *sec.AuthClaims) context.Context {
	return context.WithValue(ctx, ctxkey.KeyUser, user)
}

// GetAuthUser returns the verified claims, or nil for anonymous requests.
func GetAuthUser(ctx context.Context) *sec.AuthClaims {
	claims, ok := ctx.Value(ctxkey.KeyUser).(*sec.AuthClaims)
	if !ok {
		return nil
	}
	return claims
}

// # Tenant Scope

// WithTenantID attaches the active tenant. The tenant guard calls this after
// validating the X-Tenant-ID header against the caller's memberships.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyTenant, tenantID)
}

// GetTenantID returns the active tenant ID, or an empty string when the
// request never passed the tenant guard.
func GetTenantID(ctx context.Context) string {
	tenantID, _ := ctx.Value(ctxkey.KeyTenant).(string)
	return tenantID
}
