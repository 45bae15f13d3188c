// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package auth implements the core identity and access management (IAM) system.

It pairs short-lived RS256 access tokens with stateful refresh tokens stored
in PostgreSQL, organized into rotation families for reuse detection.

Architecture:

  - Service: Orchestrates business logic (Login, Refresh, Logout).
  - Repository: Abstracted interfaces for Postgres (Users, Sessions) and
    Redis (revoked-session denylist).
  - Security: Bcrypt password hashing, SHA-256 refresh token digests,
    single-use rotation with family-wide revocation on replay.

The package ensures that identity data remains consistent and secure throughout
the platform's lifecycle.
*/
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/minhdang/aegis/internal/core/audit"
	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/platform/ctxutil"
	"github.com/minhdang/aegis/internal/platform/sec"
	"github.com/minhdang/aegis/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for generating security tokens.
type TokenProvider interface {
	// GenerateAccessToken creates a signed JWT string for the given user.
	//
	// # Parameters
	//   - userID: The ID of the account.
	//   - tenantID: The tenant scope of the session backing this token.
	//   - sessionID: The session backing this token, used for revocation checks.
	//   - superadmin: Whether the account holds the platform superadmin flag.
	//   - timeToLive: The duration before the token expires.
	//
	// # Returns
	//   - A signed JWT string, or an err if signing fails.
	GenerateAccessToken(userID, tenantID, sessionID string, superadmin bool, timeToLive time.Duration) (string, error)
}

// AuditRecorder records authentication events without blocking the request.
type AuditRecorder interface {
	Record(context context.Context, entry *audit.Entry)
}

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to rotation, reuse
// handling, or login logic must be reviewed by the security team.
type Service struct {
	userRepository    UserRepository
	sessionRepository SessionRepository
	revocations       RevokedSessionRepository
	tokenProvider     TokenProvider
	auditor           AuditRecorder
	accessTokenTTL    time.Duration
	refreshTokenTTL   time.Duration
}

// NewService constructs a new auth [Service] with necessary dependencies.
// Token lifetimes come from configuration so environments can tune them.
func NewService(
	userRepo UserRepository,
	sessionRepo SessionRepository,
	revocationRepo RevokedSessionRepository,
	tokenProv TokenProvider,
	auditor AuditRecorder,
	accessTokenTTL time.Duration,
	refreshTokenTTL time.Duration,
) *Service {
	return &Service{
		userRepository:    userRepo,
		sessionRepository: sessionRepo,
		revocations:       revocationRepo,
		tokenProvider:     tokenProv,
		auditor:           auditor,
		accessTokenTTL:    accessTokenTTL,
		refreshTokenTTL:   refreshTokenTTL,
	}
}

// AccessTokenTTL returns the configured access token lifetime.
func (service *Service) AccessTokenTTL() time.Duration {
	return service.accessTokenTTL
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt. TenantID is
// an optional scope hint; empty means the account's home tenant.
type LoginInput struct {
	Email     string
	Password  string
	TenantID  string
	UserAgent string
	IPAddress string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	SessionID             string
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
Login validates user credentials and issues security tokens.

Description: Verifies identity with constant-time password comparison and
starts a brand-new rotation family. Unknown email, wrong password, and
deactivated account all produce the same generic failure so callers cannot
enumerate accounts or probe their status. The session binds to the account's
home tenant unless a superadmin supplies an explicit tenant hint; either way
the resolved tenant must be active, because tokens scoped to a suspended
tenant would fail every later authorization check anyway.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - error: Authentication failure or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {

	// Look up the account by email
	user, err := service.userRepository.FindByEmail(context, input.Email)
	if err != nil {
		service.recordLoginFailure(context, "", "unknown_account", input)
		return nil, apperr.Authentication("Invalid login credentials")
	}

	// Deactivated accounts authenticate exactly like wrong passwords. The
	// distinction must not leak through the login endpoint.
	if !user.IsActive {
		service.recordLoginFailure(context, user.ID, "account_inactive", input)
		return nil, apperr.Authentication("Invalid login credentials")
	}

	// Verify password hash using constant-time comparison in bcrypt to prevent timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		service.recordLoginFailure(context, user.ID, "bad_password", input)
		return nil, apperr.Authentication("Invalid login credentials")
	}

	sessionTenant, err := service.resolveSessionTenant(context, user, input)
	if err != nil {
		return nil, err
	}

	// A fresh login starts a fresh rotation family
	session := &Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TenantID:  sessionTenant,
		FamilyID:  uuid.New(),
		UserAgent: input.UserAgent,
		IPAddress: input.IPAddress,
		ExpiresAt: time.Now().Add(service.refreshTokenTTL),
	}

	loginSession, err := service.issueTokens(context, user, session)
	if err != nil {
		return nil, err
	}

	// Best-effort bookkeeping, never blocks a successful login
	_ = service.userRepository.UpdateLastLogin(context, user.ID)

	service.auditor.Record(context, &audit.Entry{
		TenantID:   sessionTenant,
		ActorID:    user.ID,
		Action:     audit.ActionLogin,
		TargetType: "session",
		TargetID:   session.ID,
		Detail:     map[string]any{"ip_address": input.IPAddress, "user_agent": input.UserAgent},
	})

	return loginSession, nil
}

// resolveSessionTenant decides which tenant the new session is scoped to and
// verifies that tenant is usable. Only superadmins may pick a tenant other
// than their home one; everyone else gets TENANT_MISMATCH. An inactive home
// tenant reads as plain authentication failure so the login endpoint never
// discloses tenant status to credential-guessing callers.
func (service *Service) resolveSessionTenant(context context.Context, user *User, input LoginInput) (string, error) {

	sessionTenant := user.TenantID
	if input.TenantID != "" && input.TenantID != user.TenantID {
		if !user.IsSuperadmin {
			service.recordLoginFailure(context, user.ID, "tenant_mismatch", input)
			return "", apperr.TenantMismatch("Access to the requested tenant is denied")
		}
		sessionTenant = input.TenantID
	}

	active, err := service.userRepository.TenantActive(context, sessionTenant)
	if err != nil {
		return "", fmt.Errorf("auth_service_tenant_lookup_failed: %w", err)
	}
	if !active {
		if sessionTenant != user.TenantID {
			service.recordLoginFailure(context, user.ID, "tenant_unavailable", input)
			return "", apperr.TenantMismatch("Requested tenant is not available")
		}
		service.recordLoginFailure(context, user.ID, "tenant_inactive", input)
		return "", apperr.Authentication("Invalid login credentials")
	}

	return sessionTenant, nil
}

/*
Logout revokes one of the caller's sessions by ID.

Description: Idempotent. An unknown or already-revoked session reports
success without side effects. A session owned by a different account reads
as NOT_FOUND rather than FORBIDDEN so callers cannot probe which session IDs
exist. On revocation the session ID is also denylisted so access tokens
already minted for it stop working immediately instead of coasting to their
natural expiry.

Parameters:
  - context: context.Context
  - userID: string
  - sessionID: string

Returns:
  - error: apperr.NotFound for a foreign session, or revocation failures
*/
func (service *Service) Logout(context context.Context, userID, sessionID string) error {

	session, err := service.sessionRepository.FindByID(context, sessionID)

	// Already gone counts as logged out
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return nil
		}
		return fmt.Errorf("auth_service_logout_lookup_failed: %w", err)
	}

	// Someone else's session is indistinguishable from no session
	if session.UserID != userID {
		return apperr.NotFound("Session")
	}

	if session.IsRevoked {
		return nil
	}

	if err := service.sessionRepository.Revoke(context, session.ID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	service.denylist(context, []string{session.ID})

	service.auditor.Record(context, &audit.Entry{
		TenantID:   session.TenantID,
		ActorID:    session.UserID,
		Action:     audit.ActionLogout,
		TargetType: "session",
		TargetID:   session.ID,
	})

	return nil
}

/*
LogoutAll revokes every live session of the user across all devices.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - int: How many sessions were revoked
  - error: Revocation failures
*/
func (service *Service) LogoutAll(context context.Context, userID string) (int, error) {

	sessionIDs, err := service.sessionRepository.RevokeAll(context, userID)
	if err != nil {
		return 0, fmt.Errorf("auth_service_logout_all_failed: %w", err)
	}

	service.denylist(context, sessionIDs)

	user, err := service.userRepository.FindByID(context, userID)
	tenantID := ""
	if err == nil {
		tenantID = user.TenantID
	}

	service.auditor.Record(context, &audit.Entry{
		TenantID:   tenantID,
		ActorID:    userID,
		Action:     audit.ActionLogoutAll,
		TargetType: "account",
		TargetID:   userID,
		Detail:     map[string]any{"revoked_sessions": len(sessionIDs)},
	})

	return len(sessionIDs), nil
}

// # Session Management

/*
RefreshSession implements single-use refresh token rotation.

Description: Resolves the presented token to its session in any state and
decides between three outcomes. A live session is rotated via an atomic
compare-and-set, so concurrent refreshes of the same token produce exactly
one winner; the winner receives a new session in the same family. A rotated
or revoked session means the token was already spent: the entire family is
revoked, in-flight access tokens are denylisted, and the caller gets a
TOKEN_REUSE failure. An expired session simply reports TOKEN_EXPIRED.

Parameters:
  - context: context.Context
  - refreshToken: string
  - userAgent: string
  - ipAddress: string

Returns:
  - *LoginSession: New session credentials
  - error: TokenInvalid, TokenExpired, TokenReuse, or storage failures
*/
func (service *Service) RefreshSession(context context.Context, refreshToken, userAgent, ipAddress string) (*LoginSession, error) {

	// Hash the incoming refresh token to look it up
	tokenHash := sec.HashToken(refreshToken)
	session, err := service.sessionRepository.FindByTokenHash(context, tokenHash)

	// A hash with no session at all is a forged or long-purged token
	if err != nil {
		return nil, apperr.TokenInvalid("Refresh token is not recognized")
	}

	// A spent or revoked session means this exact token was presented twice
	if session.IsRotated || session.IsRevoked {
		return nil, service.handleReuse(context, session)
	}

	// Expiry is checked only after reuse: a replayed-then-expired token is
	// still a replay and must still burn the family.
	if time.Now().After(session.ExpiresAt) {
		return nil, apperr.TokenExpired("Refresh token has expired")
	}

	// Claim the rotation. Losing the compare-and-set means someone else spent
	// this token between our read and now, which is reuse by definition.
	won, err := service.sessionRepository.Rotate(context, session.ID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_rotate_failed: %w", err)
	}
	if !won {
		return nil, service.handleReuse(context, session)
	}

	// Fetch the user associated with this session
	user, err := service.userRepository.FindByID(context, session.UserID)
	if err != nil {
		return nil, apperr.Authentication("Account is disabled")
	}
	if !user.IsActive {
		return nil, apperr.Authentication("Account is disabled")
	}

	// The next generation stays in the same family and the same tenant scope
	// so that replaying THIS token later still maps back to one revocable
	// lineage, and a superadmin's assumed scope survives the rotation
	nextSession := &Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TenantID:  session.TenantID,
		FamilyID:  session.FamilyID,
		UserAgent: userAgent,
		IPAddress: ipAddress,
		ExpiresAt: time.Now().Add(service.refreshTokenTTL),
	}

	loginSession, err := service.issueTokens(context, user, nextSession)
	if err != nil {
		return nil, err
	}

	service.auditor.Record(context, &audit.Entry{
		TenantID:   session.TenantID,
		ActorID:    user.ID,
		Action:     audit.ActionRefresh,
		TargetType: "session",
		TargetID:   nextSession.ID,
		Detail:     map[string]any{"family_id": session.FamilyID, "rotated_from": session.ID},
	})

	return loginSession, nil
}

/*
Sessions lists the user's live sessions for the device overview screen.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []*Session: Refreshable sessions, newest first
  - error: Retrieval failures
*/
func (service *Service) Sessions(context context.Context, userID string) ([]*Session, error) {
	return service.sessionRepository.ListActiveForUser(context, userID)
}

// # Internal Helpers

// issueTokens generates the access/refresh pair for a prepared session and
// persists the session. The refresh secret never touches storage, only its
// SHA-256 digest does.
func (service *Service) issueTokens(context context.Context, user *User, session *Session) (*LoginSession, error) {

	refreshToken, err := sec.GenerateSecureToken(RefreshTokenLength)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}
	session.TokenHash = sec.HashToken(refreshToken)

	accessToken, err := service.tokenProvider.GenerateAccessToken(
		user.ID,
		session.TenantID,
		session.ID,
		user.IsSuperadmin,
		service.accessTokenTTL,
	)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	if err := service.sessionRepository.Create(context, session); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	return &LoginSession{
		SessionID:             session.ID,
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: session.ExpiresAt,
		User:                  user,
	}, nil
}

// handleReuse is the security response to a replayed refresh token: burn the
// whole family, denylist its access tokens, and report TOKEN_REUSE. The
// returned error is what the caller must surface.
func (service *Service) handleReuse(context context.Context, session *Session) error {

	sessionIDs, err := service.sessionRepository.RevokeFamily(context, session.FamilyID)
	if err != nil {
		return fmt.Errorf("auth_service_family_revoke_failed: %w", err)
	}

	service.denylist(context, sessionIDs)

	service.auditor.Record(context, &audit.Entry{
		TenantID:   session.TenantID,
		ActorID:    session.UserID,
		Action:     audit.ActionRefreshReuse,
		TargetType: "session",
		TargetID:   session.ID,
		Detail:     map[string]any{"family_id": session.FamilyID, "revoked_sessions": len(sessionIDs)},
	})

	return apperr.TokenReuse("Refresh token has already been used; its session family is revoked")
}

// denylist pushes revoked session IDs to Redis so their access tokens die
// immediately. Failures degrade to tokens coasting to natural expiry, which
// is logged but never fails the calling operation.
func (service *Service) denylist(context context.Context, sessionIDs []string) {
	if err := service.revocations.MarkRevoked(context, sessionIDs, service.accessTokenTTL); err != nil {
		ctxutil.GetLogger(context).Warn("session_denylist_degraded",
			slog.Int("sessions", len(sessionIDs)),
			slog.String("error", err.Error()),
		)
	}
}

// recordLoginFailure audits a failed authentication attempt. ActorID stays
// empty when the account could not be identified.
func (service *Service) recordLoginFailure(context context.Context, userID, reason string, input LoginInput) {
	service.auditor.Record(context, &audit.Entry{
		ActorID:    userID,
		Action:     audit.ActionLoginFailed,
		TargetType: "account",
		TargetID:   userID,
		Detail: map[string]any{
			"reason":     reason,
			"ip_address": input.IPAddress,
			"user_agent": input.UserAgent,
		},
	})
}
