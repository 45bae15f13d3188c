// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

// Package middleware provides the HTTP middleware chain for the Aegis API server.
//
// # Architecture
//
// Middleware intercepts incoming HTTP requests to apply global policies
// before they reach the domain handlers. This includes cross-cutting concerns
// like Logging, AuthZ/AuthN, Rate Limiting, and CORS.
package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/minhdang/aegis/internal/core/permission"
	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/platform/constants"
	"github.com/minhdang/aegis/internal/platform/ctxkey"
	"github.com/minhdang/aegis/internal/platform/ctxutil"
	"github.com/minhdang/aegis/internal/platform/respond"
	"github.com/minhdang/aegis/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the `sec` package
// implementation, allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// SessionChecker reports whether a session ID sits on the server-side
// revocation denylist. Implemented by the auth session store (Redis).
type SessionChecker interface {
	IsSessionRevoked(ctx context.Context, sessionID string) (bool, error)
}

// PermissionChecker answers "may this user perform this action in this tenant".
// Implemented by [permission.Service].
type PermissionChecker interface {
	Check(ctx context.Context, tenantID, userID string, required permission.Permission) (bool, error)
}

// TenantChecker reports whether a tenant ID refers to a real tenant.
// Implemented by [tenant.Service]; consulted only when a superadmin assumes
// a tenant other than their home tenant.
type TenantChecker interface {
	Exists(ctx context.Context, tenantID string) (bool, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, parse and verify the JWT via [TokenVerifier].
//  4. Reject tokens whose session sits on the revocation denylist.
//  5. Inject [*sec.AuthClaims] into the request context for downstream use.
//
// # Parameters
//   - verifier: The TokenVerifier instance.
//   - sessions: The SessionChecker consulted for revoked sessions.
//
// # Returns
//   - An [http.Handler] middleware.
func Authenticate(verifier TokenVerifier, sessions SessionChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.TokenInvalid("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			tokenStr := parts[1]
			claims, err := verifier.VerifyToken(tokenStr)
			if err != nil {
				if errors.Is(err, sec.ErrTokenExpired) {
					respond.Error(writer, request, apperr.TokenExpired("Access token has expired"))
					return
				}
				respond.Error(writer, request, apperr.TokenInvalid("Invalid access token"))
				return
			}

			// ── 4. Revocation Check ───────────────────────────────────────────
			// The denylist lives in Redis. An unreachable cache must not take
			// authentication down with it, so lookup errors are logged and the
			// signed token is trusted until the cache recovers.
			revoked, err := sessions.IsSessionRevoked(request.Context(), claims.SessionID)
			if err != nil {
				ctxutil.GetLogger(request.Context()).WarnContext(request.Context(),
					"session_revocation_check_degraded",
					slog.String("session_id", claims.SessionID),
					slog.Any("error", err),
				)
			} else if revoked {
				respond.Error(writer, request, apperr.TokenInvalid("Session has been revoked"))
				return
			}

			// ── 5. Context Injection ──────────────────────────────────────────
			ctx := context.WithValue(request.Context(), ctxkey.KeyUser, claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// # Flow
//  1. Check if [*sec.AuthClaims] exists in context.
//  2. If missing, abort with HTTP 401 Unauthorized.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := GetUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireTenant enforces tenant isolation on every tenant-scoped route.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate] and BEFORE any
// permission checks: a request must never reach permission resolution with
// an unverified tenant context.
//
// # Flow
//  1. Check if [*sec.AuthClaims] exists in context (implies AuthN).
//  2. Require the X-Tenant-ID header; absence is a hard 400, never a default.
//  3. Regular users may only assume their home tenant. Superadmins may assume
//     any tenant that exists: membership is waived, existence is not, and an
//     unknown tenant ID is a 404. Active status is enforced downstream by the
//     permission resolver.
//  4. Inject the validated tenant ID into the request context.
//
// # Parameters
//   - directory: The TenantChecker answering the superadmin existence check.
func RequireTenant(directory TenantChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := GetUser(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Header Presence ────────────────────────────────────────────
			tenantID := strings.TrimSpace(request.Header.Get(constants.HeaderXTenantID))
			if tenantID == "" {
				respond.Error(writer, request, apperr.TenantRequired())
				return
			}

			// ── 3. Isolation Check ────────────────────────────────────────────
			if tenantID != claims.TenantID {
				if !claims.Superadmin {
					respond.Error(writer, request, apperr.TenantMismatch("Access to the requested tenant is denied"))
					return
				}

				exists, err := directory.Exists(request.Context(), tenantID)
				if err != nil {
					respond.Error(writer, request, err)
					return
				}
				if !exists {
					respond.Error(writer, request, apperr.NotFound("Tenant"))
					return
				}
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithTenantID(request.Context(), tenantID)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequirePermission blocks requests whose user lacks the required permission
// in the active tenant.
//
// # Usage
//
// Must be registered in the router AFTER [RequireTenant]. It automatically
// implies [RequireAuth] so you don't need to mount both.
//
// # Flow
//  1. Check if [*sec.AuthClaims] and a validated tenant exist in context.
//  2. Ask the [PermissionChecker] whether the user holds the permission
//     (superadmin bypass and caching live inside the resolver).
//  3. If denied, abort with HTTP 403 PERMISSION_DENIED.
func RequirePermission(checker PermissionChecker, required permission.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			claims := GetUser(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if claims == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Tenant Scope Check ─────────────────────────────────────────
			tenantID := ctxutil.GetTenantID(request.Context())
			if tenantID == "" {
				respond.Error(writer, request, apperr.TenantRequired())
				return
			}

			// ── 3. Authorization Check ────────────────────────────────────────
			allowed, err := checker.Check(request.Context(), tenantID, claims.UserID, required)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}
			if !allowed {
				respond.Error(writer, request, apperr.PermissionDenied("Missing required permission: "+string(required)))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

// RequireSuperadmin blocks requests from non-superadmin users.
//
// # Usage
//
// Reserved for platform-level routes (tenant directory management) that have
// no meaningful tenant scope of their own.
func RequireSuperadmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := GetUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		if !claims.Superadmin {
			respond.Error(writer, request, apperr.Forbidden("Superadmin access required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// GetUser retrieves the [*sec.AuthClaims] from the [context.Context].
//
// # Returns
//   - A pointer to [*sec.AuthClaims] if the user is authenticated.
//   - nil if the user is anonymous.
func GetUser(ctx context.Context) *sec.AuthClaims {
	claims, ok := ctx.Value(ctxkey.KeyUser).(*sec.AuthClaims)
	if !ok {
		return nil
	}
	return claims
}
