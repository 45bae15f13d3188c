// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

// PostgreSQL persistence for the authentication domain.
//
// # Architecture
//
// Repositories in this file are strictly separated from domain logic. They
// implement domain-defined interfaces (e.g., [UserRepository]) using the
// [pgxpool.Pool] connection manager.
//
// # Error Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdang/aegis/internal/platform/apperr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

/*
FindByID retrieves a user record by their unique ID.

Description: Primary key resolution for user accounts, filtering out
soft-deleted rows.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT id, tenantid, email, passwordhash, displayname, issuperadmin, isactive, lastloginat, createdat, updatedat
		FROM users.account
		WHERE id = $1 AND deletedat IS NULL`

	user := &User{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&user.ID,
		&user.TenantID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.IsSuperadmin,
		&user.IsActive,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
FindByEmail retrieves a user record by their unique email address.

Description: Performs a lookup on the account table, filtering out soft-deleted users.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT id, tenantid, email, passwordhash, displayname, issuperadmin, isactive, lastloginat, createdat, updatedat
		FROM users.account
		WHERE email = $1 AND deletedat IS NULL`

	user := &User{}
	err := repository.pool.QueryRow(context, query, email).Scan(
		&user.ID,
		&user.TenantID,
		&user.Email,
		&user.PasswordHash,
		&user.DisplayName,
		&user.IsSuperadmin,
		&user.IsActive,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
UpdateLastLogin stamps the account's most recent successful login.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) UpdateLastLogin(context context.Context, userID string) error {
	const query = "UPDATE users.account SET lastloginat = NOW() WHERE id = $1"
	_, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_last_login_failed: %w", err)
	}
	return nil
}

/*
TenantActive reports whether a tenant exists and is active.

Parameters:
  - context: context.Context
  - tenantID: string

Returns:
  - bool: False for suspended, soft-deleted, and unknown tenants alike
  - error: Execution errors
*/
func (repository *PostgresUserRepository) TenantActive(context context.Context, tenantID string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM core.tenant
			WHERE id = $1 AND deletedat IS NULL AND isactive = TRUE
		)`

	var active bool
	if err := repository.pool.QueryRow(context, query, tenantID).Scan(&active); err != nil {
		return false, fmt.Errorf("postgres_user_repo_tenant_active_failed: %w", err)
	}

	return active, nil
}

// # Session Repository

// PostgresSessionRepository implements the SessionRepository interface.
type PostgresSessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new PostgreSQL implementation of SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *PostgresSessionRepository {
	return &PostgresSessionRepository{pool: pool}
}

/*
Create persists a new session generation into the users.session table.

Parameters:
  - context: context.Context
  - session: *Session

Returns:
  - error: Storage failures
*/
func (repository *PostgresSessionRepository) Create(context context.Context, session *Session) error {
	const query = `
		INSERT INTO users.session (
			id, userid, tenantid, familyid, tokenhash, useragent, ipaddress, expiresat, isrevoked, isrotated, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		session.ID,
		session.UserID,
		session.TenantID,
		session.FamilyID,
		session.TokenHash,
		session.UserAgent,
		session.IPAddress,
		session.ExpiresAt,
		session.IsRevoked,
		session.IsRotated,
		session.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_session_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByTokenHash retrieves a session by its unique token hash in any state.

Description: Deliberately does NOT filter on isrevoked, isrotated, or
expiresat. A token hash matching a dead session is the reuse signal the
service layer acts on; filtering here would erase it.

Parameters:
  - context: context.Context
  - tokenHash: string

Returns:
  - *Session: Hydrated session metadata
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresSessionRepository) FindByTokenHash(context context.Context, tokenHash string) (*Session, error) {
	const query = `
		SELECT id, userid, tenantid, familyid, tokenhash, useragent, ipaddress, expiresat, isrevoked, isrotated, rotatedat, createdat
		FROM users.session
		WHERE tokenhash = $1`

	session := &Session{}
	err := repository.pool.QueryRow(context, query, tokenHash).Scan(
		&session.ID,
		&session.UserID,
		&session.TenantID,
		&session.FamilyID,
		&session.TokenHash,
		&session.UserAgent,
		&session.IPAddress,
		&session.ExpiresAt,
		&session.IsRevoked,
		&session.IsRotated,
		&session.RotatedAt,
		&session.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_failed: %w", err)
	}

	return session, nil
}

/*
FindByID retrieves a session by its primary key in any state.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - *Session: Hydrated session metadata
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresSessionRepository) FindByID(context context.Context, sessionID string) (*Session, error) {
	const query = `
		SELECT id, userid, tenantid, familyid, tokenhash, useragent, ipaddress, expiresat, isrevoked, isrotated, rotatedat, createdat
		FROM users.session
		WHERE id = $1`

	session := &Session{}
	err := repository.pool.QueryRow(context, query, sessionID).Scan(
		&session.ID,
		&session.UserID,
		&session.TenantID,
		&session.FamilyID,
		&session.TokenHash,
		&session.UserAgent,
		&session.IPAddress,
		&session.ExpiresAt,
		&session.IsRevoked,
		&session.IsRotated,
		&session.RotatedAt,
		&session.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Session")
		}
		return nil, fmt.Errorf("postgres_session_repo_find_by_id_failed: %w", err)
	}

	return session, nil
}

/*
Rotate atomically marks a session as consumed by a refresh.

Description: The WHERE clause is the whole mechanism: it only matches a
session that is still live, so under concurrent refreshes of the same token
exactly one UPDATE reports an affected row. The losers see zero rows and
must take the reuse path.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - bool: Whether this caller won the rotation
  - error: Execution errors
*/
func (repository *PostgresSessionRepository) Rotate(context context.Context, sessionID string) (bool, error) {
	const query = `
		UPDATE users.session
		SET isrotated = TRUE, rotatedat = NOW()
		WHERE id = $1 AND isrotated = FALSE AND isrevoked = FALSE`

	tag, err := repository.pool.Exec(context, query, sessionID)
	if err != nil {
		return false, fmt.Errorf("postgres_session_repo_rotate_failed: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

/*
Revoke marks a specific session as revoked.

Parameters:
  - context: context.Context
  - sessionID: string

Returns:
  - error: Revocation failures
*/
func (repository *PostgresSessionRepository) Revoke(context context.Context, sessionID string) error {
	const query = "UPDATE users.session SET isrevoked = TRUE WHERE id = $1"
	_, err := repository.pool.Exec(context, query, sessionID)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_revoke_failed: %w", err)
	}
	return nil
}

/*
RevokeFamily revokes every live session in a rotation family.

Description: Security response to refresh token reuse. Returns the affected
IDs so the caller can denylist any access tokens still in flight.

Parameters:
  - context: context.Context
  - familyID: string

Returns:
  - []string: IDs of the sessions revoked by this call
  - error: Batch revocation failures
*/
func (repository *PostgresSessionRepository) RevokeFamily(context context.Context, familyID string) ([]string, error) {
	const query = `
		UPDATE users.session
		SET isrevoked = TRUE
		WHERE familyid = $1 AND isrevoked = FALSE
		RETURNING id`

	rows, err := repository.pool.Query(context, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_revoke_family_failed: %w", err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

/*
RevokeAll revokes every live session belonging to the userID.

Description: Security nuking of all active sessions for a user, across all
rotation families and devices.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []string: IDs of the sessions revoked by this call
  - error: Batch revocation failures
*/
func (repository *PostgresSessionRepository) RevokeAll(context context.Context, userID string) ([]string, error) {
	const query = `
		UPDATE users.session
		SET isrevoked = TRUE
		WHERE userid = $1 AND isrevoked = FALSE
		RETURNING id`

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_revoke_all_failed: %w", err)
	}
	defer rows.Close()

	return collectIDs(rows)
}

/*
ListActiveForUser returns the user's refreshable sessions, newest first.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []*Session: Sessions that are neither rotated, revoked, nor expired
  - error: Retrieval failures
*/
func (repository *PostgresSessionRepository) ListActiveForUser(context context.Context, userID string) ([]*Session, error) {
	const query = `
		SELECT id, userid, tenantid, familyid, tokenhash, useragent, ipaddress, expiresat, isrevoked, isrotated, rotatedat, createdat
		FROM users.session
		WHERE userid = $1 AND isrevoked = FALSE AND isrotated = FALSE AND expiresat > NOW()
		ORDER BY createdat DESC`

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_session_repo_list_active_failed: %w", err)
	}
	defer rows.Close()

	sessions := make([]*Session, 0)
	for rows.Next() {
		session := &Session{}
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.TenantID,
			&session.FamilyID,
			&session.TokenHash,
			&session.UserAgent,
			&session.IPAddress,
			&session.ExpiresAt,
			&session.IsRevoked,
			&session.IsRotated,
			&session.RotatedAt,
			&session.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_session_repo_scan_failed: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_session_repo_rows_failed: %w", err)
	}

	return sessions, nil
}

/*
DeleteExpired permanently removes all sessions that have passed their expiration.

Description: Cleanup task to reclaim storage from stale sessions.

Parameters:
  - context: context.Context

Returns:
  - error: Cleanup failures
*/
func (repository *PostgresSessionRepository) DeleteExpired(context context.Context) error {
	const query = "DELETE FROM users.session WHERE expiresat <= NOW()"
	_, err := repository.pool.Exec(context, query)
	if err != nil {
		return fmt.Errorf("postgres_session_repo_delete_expired_failed: %w", err)
	}
	return nil
}

// collectIDs drains a single-column id result set.
func collectIDs(rows pgx.Rows) ([]string, error) {
	identifiers := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres_session_repo_collect_failed: %w", err)
		}
		identifiers = append(identifiers, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_session_repo_collect_rows_failed: %w", err)
	}
	return identifiers, nil
}
