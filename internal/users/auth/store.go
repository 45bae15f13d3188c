// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access the token lifecycle needs from accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email.

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		UpdateLastLogin stamps the account's most recent successful login.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: Persistence failures
	*/
	UpdateLastLogin(context context.Context, userID string) error

	/*
		TenantActive reports whether a tenant exists and is active.

		Description: Logins bind a session to a tenant. A suspended or missing
		tenant must reject the login outright instead of minting tokens that
		every later authorization decision would deny.

		Parameters:
		  - context: context.Context
		  - tenantID: string

		Returns:
		  - bool: True when the tenant exists and is active
		  - error: Database retrieval failures
	*/
	TenantActive(context context.Context, tenantID string) (bool, error)
}

// # Session Data Access

// SessionRepository defines the data access contract for refresh-token sessions.
type SessionRepository interface {

	/*
		Create persists a new session generation.

		Parameters:
		  - context: context.Context
		  - session: *Session

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, session *Session) error

	/*
		FindByTokenHash returns the session matching the given token hash in
		ANY state, including rotated, revoked, and expired sessions.

		Description: Reuse detection depends on seeing dead sessions: a token
		that maps to a rotated or revoked row is a replay, not a miss. Callers
		are responsible for inspecting the session state.

		Parameters:
		  - context: context.Context
		  - tokenHash: string

		Returns:
		  - *Session: Hydrated entity regardless of state
		  - error: apperr.NotFound only when no row matches the hash
	*/
	FindByTokenHash(context context.Context, tokenHash string) (*Session, error)

	/*
		FindByID returns the session with the given ID in any state.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - *Session: Hydrated entity regardless of state
		  - error: apperr.NotFound when no row matches
	*/
	FindByID(context context.Context, sessionID string) (*Session, error)

	/*
		Rotate atomically marks a session as consumed by a refresh.

		Description: Compare-and-set on (isrotated = FALSE, isrevoked = FALSE).
		Exactly one concurrent caller observes true; everyone else observes
		false and must treat the token as reused.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - bool: Whether this caller won the rotation
		  - error: Persistence failures
	*/
	Rotate(context context.Context, sessionID string) (bool, error)

	/*
		Revoke marks a specific session as permanently invalidated.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - error: Persistence failures
	*/
	Revoke(context context.Context, sessionID string) error

	/*
		RevokeFamily revokes every live session in a rotation family.

		Parameters:
		  - context: context.Context
		  - familyID: string

		Returns:
		  - []string: IDs of the sessions revoked by this call
		  - error: Persistence failures
	*/
	RevokeFamily(context context.Context, familyID string) ([]string, error)

	/*
		RevokeAll revokes every live session belonging to the userID.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []string: IDs of the sessions revoked by this call
		  - error: Persistence failures
	*/
	RevokeAll(context context.Context, userID string) ([]string, error)

	/*
		ListActiveForUser returns the user's live sessions, newest first.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []*Session: Sessions that can still be refreshed
		  - error: Retrieval failures
	*/
	ListActiveForUser(context context.Context, userID string) ([]*Session, error)

	/*
		DeleteExpired physically removes sessions whose ExpiresAt is in the past.

		Parameters:
		  - context: context.Context

		Returns:
		  - error: Cleanup failures
	*/
	DeleteExpired(context context.Context) error
}

// # Volatile Data Access

// RevokedSessionRepository defines the contract for the access-token denylist.
//
// Access tokens are stateless, so revoking a session cannot recall tokens
// already issued for it. The denylist bridges that gap: revoked session IDs
// are held for one access-token lifetime and checked on every request.
type RevokedSessionRepository interface {

	/*
		MarkRevoked adds the given session IDs to the denylist.

		Parameters:
		  - context: context.Context
		  - sessionIDs: []string
		  - ttl: time.Duration (one access-token lifetime is sufficient)

		Returns:
		  - error: Persistence failures
	*/
	MarkRevoked(context context.Context, sessionIDs []string, ttl time.Duration) error

	/*
		IsSessionRevoked reports whether a session ID is on the denylist.

		Parameters:
		  - context: context.Context
		  - sessionID: string

		Returns:
		  - bool: Whether the session has been revoked
		  - error: Connectivity failures
	*/
	IsSessionRevoked(context context.Context, sessionID string) (bool, error)
}
