// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package permission

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdang/aegis/internal/platform/apperr"
)

// PostgresGrantRepository implements [SubjectRepository] and [GrantRepository]
// using pgx.
type PostgresGrantRepository struct {
	pool *pgxpool.Pool
}

// NewGrantRepository creates a new PostgreSQL implementation of the resolver
// data access contracts.
func NewGrantRepository(pool *pgxpool.Pool) *PostgresGrantRepository {
	return &PostgresGrantRepository{pool: pool}
}

/*
AccountFlags retrieves the activity and superadmin flags for an account.

Description: Minimal projection of users.account used on every authorization
decision, kept narrow to stay index-only.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *SubjectFlags: Current account state
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresGrantRepository) AccountFlags(context context.Context, userID string) (*SubjectFlags, error) {
	const query = `
		SELECT isactive, issuperadmin
		FROM users.account
		WHERE id = $1 AND deletedat IS NULL`

	flags := &SubjectFlags{}
	err := repository.pool.QueryRow(context, query, userID).Scan(
		&flags.IsActive,
		&flags.IsSuperadmin,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("postgres_grant_repo_account_flags_failed: %w", err)
	}

	return flags, nil
}

/*
TenantActive reports whether a tenant exists and is active.

Parameters:
  - context: context.Context
  - tenantID: string

Returns:
  - bool: false for missing, deleted, or suspended tenants
  - error: Execution errors
*/
func (repository *PostgresGrantRepository) TenantActive(context context.Context, tenantID string) (bool, error) {
	const query = `
		SELECT isactive
		FROM core.tenant
		WHERE id = $1 AND deletedat IS NULL`

	var isActive bool
	err := repository.pool.QueryRow(context, query, tenantID).Scan(&isActive)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("postgres_grant_repo_tenant_active_failed: %w", err)
	}

	return isActive, nil
}

/*
ListGrants aggregates the user's effective permissions within a tenant.

Description: Unions the permission rows of every role assigned to the user in
the tenant. Tenant-owned roles and platform-wide system roles (tenantid IS
NULL) both contribute; DISTINCT collapses overlapping grants.

Parameters:
  - context: context.Context
  - tenantID: string
  - userID: string

Returns:
  - []Permission: Deduplicated grants, empty when the user holds no roles
  - error: Execution errors
*/
func (repository *PostgresGrantRepository) ListGrants(context context.Context, tenantID, userID string) ([]Permission, error) {
	const query = `
		SELECT DISTINCT rp.permission
		FROM core.accountrole ar
		JOIN core.role r ON r.id = ar.roleid
		JOIN core.rolepermission rp ON rp.roleid = r.id
		WHERE ar.accountid = $1
		  AND ar.tenantid = $2
		  AND (r.tenantid = $2 OR r.tenantid IS NULL)
		ORDER BY rp.permission`

	rows, err := repository.pool.Query(context, query, userID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("postgres_grant_repo_list_grants_failed: %w", err)
	}
	defer rows.Close()

	grants := make([]Permission, 0)
	for rows.Next() {
		var grant Permission
		if err := rows.Scan(&grant); err != nil {
			return nil, fmt.Errorf("postgres_grant_repo_scan_grant_failed: %w", err)
		}
		grants = append(grants, grant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_grant_repo_grant_rows_failed: %w", err)
	}

	return grants, nil
}
