// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package auth provides the HTTP delivery layer for user identity management.

It implements the gateway for the token lifecycle: login, rotation-based
refresh, and session revocation.

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Handles JWT orchestration and refresh token cookie injection.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/platform/constants"
	"github.com/minhdang/aegis/internal/platform/middleware"
	requestutil "github.com/minhdang/aegis/internal/platform/request"
	"github.com/minhdang/aegis/internal/platform/respond"
	"github.com/minhdang/aegis/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the session lifecycle entry points (Login, Refresh,
// Logout). Account provisioning lives in the account package; this one only
// authenticates identities that already exist.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /login      : Authenticates and returns a token pair.
//   - POST /refresh    : Rotates a refresh token into a new pair.
//   - POST /logout     : Revokes a session by ID, defaulting to the caller's.
//   - POST /logout-all : Revokes every session of the caller.
//   - GET  /sessions   : Lists the caller's live sessions.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/logout", handler.logout)
		r.Post("/logout-all", handler.logoutAll)
		r.Get("/sessions", handler.sessions)
	})

	return router
}

// # Request Payloads

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantID string `json:"tenant_id"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type logoutRequest struct {
	SessionID string `json:"session_id"`
}

// # Handlers

/*
Login authenticates a user and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials, generates an RS256 access token, and
starts a new refresh token family. The refresh token travels both in an
HttpOnly cookie for browsers and in the body for API clients. The optional
tenant_id hint scopes the session to a foreign tenant; only superadmins may
use it.

Request:
  - Body: loginRequest (Email, Password, optional TenantID)

Response:
  - 200: Session: Token pair and user profile
  - 401: ErrAuthentication: Invalid credentials or deactivated account
  - 403: ErrTenantMismatch: Tenant hint rejected
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)
	if input.TenantID != "" {
		validator.UUID(FieldTenantID, input.TenantID)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		TenantID:  input.TenantID,
		UserAgent: request.UserAgent(),
		IPAddress: getClientIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session.RefreshToken, session.RefreshTokenExpiresAt)

	respond.OK(writer, map[string]any{
		FieldSessionID:    session.SessionID,
		FieldAccessToken:  session.AccessToken,
		FieldRefreshToken: session.RefreshToken,
		FieldTokenType:    "Bearer",
		FieldExpiresIn:    handler.authService.AccessTokenTTL() / time.Second,
		FieldUser:         session.User,
	})
}

/*
Refresh rotates a refresh token into a fresh token pair.

POST /api/v1/auth/refresh

Description: Accepts the refresh token from the HttpOnly cookie or, for
non-browser clients, from the request body. The presented token is consumed
either way: success yields a new pair in the same family, replay yields
TOKEN_REUSE and a revoked family.

Request:
  - Body: refreshRequest (RefreshToken; optional when the cookie is present)

Response:
  - 200: RefreshResponse: New token pair
  - 401: ErrTokenInvalid / ErrTokenExpired / ErrTokenReuse
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	refreshToken := readRefreshToken(request)
	if refreshToken == "" {
		respond.Error(writer, request, apperr.TokenInvalid("Missing refresh token"))
		return
	}

	session, err := handler.authService.RefreshSession(
		request.Context(),
		refreshToken,
		request.UserAgent(),
		getClientIP(request),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session.RefreshToken, session.RefreshTokenExpiresAt)

	respond.OK(writer, map[string]any{
		FieldSessionID:    session.SessionID,
		FieldAccessToken:  session.AccessToken,
		FieldRefreshToken: session.RefreshToken,
		FieldTokenType:    "Bearer",
		FieldExpiresIn:    handler.authService.AccessTokenTTL() / time.Second,
	})
}

/*
Logout terminates one of the caller's sessions by ID.

POST /api/v1/auth/logout

Description: Revokes the targeted session and denylists its access tokens.
The session ID comes from the body, the session_id query parameter, or
defaults to the caller's own current session. The security cookie is cleared
only when the current session is the one being terminated, so revoking
another device does not sign this one out. Idempotent.

Request:
  - Body: logoutRequest (optional SessionID)

Response:
  - 200: Revocation summary
  - 401: ErrUnauthorized: Authentication required
  - 404: ErrNotFound: Session belongs to another account
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionID := resolveLogoutTarget(request, claims.SessionID)

	if err := handler.authService.Logout(request.Context(), claims.UserID, sessionID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if sessionID == claims.SessionID {
		clearRefreshCookie(writer)
	}

	respond.OK(writer, map[string]any{
		FieldMessage:         "Session revoked",
		FieldSessionsRevoked: 1,
	})
}

/*
LogoutAll terminates every session of the authenticated user.

POST /api/v1/auth/logout-all

Description: Panic button for a stolen device: revokes all sessions across
all rotation families and denylists their access tokens.

Response:
  - 200: Revocation summary with the number of sessions revoked
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) logoutAll(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	revoked, err := handler.authService.LogoutAll(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	clearRefreshCookie(writer)

	respond.OK(writer, map[string]any{
		FieldMessage:         "All sessions revoked",
		FieldSessionsRevoked: revoked,
	})
}

/*
Sessions lists the caller's live sessions.

GET /api/v1/auth/sessions

Description: Device overview showing where the account is currently signed
in. Token hashes never leave the server.

Response:
  - 200: []Session: Live sessions, newest first
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) sessions(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessions, err := handler.authService.Sessions(request.Context(), claims.UserID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, sessions)
}

// # Transport Helpers

// resolveLogoutTarget picks the session to revoke: explicit body field first,
// then the session_id query parameter, then the caller's own session.
func resolveLogoutTarget(request *http.Request, currentSessionID string) string {
	var input logoutRequest
	if err := requestutil.DecodeJSON(request, &input); err == nil && input.SessionID != "" {
		return input.SessionID
	}

	if sessionID := request.URL.Query().Get(FieldSessionID); sessionID != "" {
		return sessionID
	}

	return currentSessionID
}

// readRefreshToken pulls the refresh token from the HttpOnly cookie, falling
// back to the JSON body for non-browser clients.
func readRefreshToken(request *http.Request) string {
	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		return ""
	}
	return input.RefreshToken
}

// setRefreshCookie installs the refresh token for browser clients, scoped to
// the auth endpoints only.
func setRefreshCookie(writer http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  expiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearRefreshCookie expires the refresh token cookie on the client.
func clearRefreshCookie(writer http.ResponseWriter) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// getClientIP tries to extract the real IP address of a user over proxy environments.
func getClientIP(request *http.Request) string {

	ip := request.Header.Get(constants.HeaderXRealIP)
	if ip == "" {
		ip = request.Header.Get(constants.HeaderXForwardedFor)
	}

	if ip == "" {
		ip = request.RemoteAddr
	}
	return ip
}
