// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package tenant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/pkg/pagination"
)

// PostgresRepository implements the [Repository] interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the tenant Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Create persists a new tenant record into the core.tenant table.

Parameters:
  - context: context.Context
  - tenant: *Tenant

Returns:
  - error: Database constraint violations or connectivity errors
*/
func (repository *PostgresRepository) Create(context context.Context, tenant *Tenant) error {
	const query = `
		INSERT INTO core.tenant (
			id, name, domain, isactive, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6)`

	now := time.Now()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	tenant.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		tenant.ID,
		tenant.Name,
		tenant.Domain,
		tenant.IsActive,
		tenant.CreatedAt,
		tenant.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_tenant_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves a tenant by its primary key.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Tenant: Hydrated entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Tenant, error) {
	const query = `
		SELECT id, name, domain, isactive, createdat, updatedat
		FROM core.tenant
		WHERE id = $1 AND deletedat IS NULL`

	tenant := &Tenant{}
	err := repository.pool.QueryRow(context, query, id).Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Domain,
		&tenant.IsActive,
		&tenant.CreatedAt,
		&tenant.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Tenant")
		}
		return nil, fmt.Errorf("postgres_tenant_repo_find_by_id_failed: %w", err)
	}

	return tenant, nil
}

/*
Exists reports whether a live tenant row carries the given ID.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - bool: True when the tenant exists and is not soft-deleted
  - error: Execution errors
*/
func (repository *PostgresRepository) Exists(context context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM core.tenant WHERE id = $1 AND deletedat IS NULL)`

	var exists bool
	if err := repository.pool.QueryRow(context, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_tenant_repo_exists_failed: %w", err)
	}

	return exists, nil
}

/*
Update persists changes to a tenant's mutable fields.

Parameters:
  - context: context.Context
  - tenant: *Tenant

Returns:
  - error: Update failures
*/
func (repository *PostgresRepository) Update(context context.Context, tenant *Tenant) error {
	const query = `
		UPDATE core.tenant
		SET name = $2, domain = $3, isactive = $4, updatedat = $5
		WHERE id = $1 AND deletedat IS NULL`

	tenant.UpdatedAt = time.Now()
	_, err := repository.pool.Exec(context, query,
		tenant.ID,
		tenant.Name,
		tenant.Domain,
		tenant.IsActive,
		tenant.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_tenant_repo_update_failed: %w", err)
	}

	return nil
}

/*
List returns a page of tenants together with the total count.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []*Tenant: Requested page ordered by name
  - int: Total tenant count
  - error: Execution errors
*/
func (repository *PostgresRepository) List(context context.Context, params pagination.Params) ([]*Tenant, int, error) {
	const countQuery = `SELECT COUNT(*) FROM core.tenant WHERE deletedat IS NULL`
	const listQuery = `
		SELECT id, name, domain, isactive, createdat, updatedat
		FROM core.tenant
		WHERE deletedat IS NULL
		ORDER BY name ASC
		LIMIT $1 OFFSET $2`

	var total int
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_tenant_repo_count_failed: %w", err)
	}

	rows, err := repository.pool.Query(context, listQuery, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_tenant_repo_list_failed: %w", err)
	}
	defer rows.Close()

	tenants, err := scanTenants(rows)
	if err != nil {
		return nil, 0, err
	}

	return tenants, total, nil
}

/*
ListActive returns every active tenant ordered by name.

Parameters:
  - context: context.Context

Returns:
  - []*Tenant: Active tenants
  - error: Execution errors
*/
func (repository *PostgresRepository) ListActive(context context.Context) ([]*Tenant, error) {
	const query = `
		SELECT id, name, domain, isactive, createdat, updatedat
		FROM core.tenant
		WHERE deletedat IS NULL AND isactive = TRUE
		ORDER BY name ASC`

	rows, err := repository.pool.Query(context, query)
	if err != nil {
		return nil, fmt.Errorf("postgres_tenant_repo_list_active_failed: %w", err)
	}
	defer rows.Close()

	return scanTenants(rows)
}

/*
ListForUser returns the active tenants a user can work in.

Description: The user's home tenant always qualifies; other tenants qualify
when the user holds at least one role assignment there.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - []*Tenant: Accessible tenants ordered by name
  - error: Execution errors
*/
func (repository *PostgresRepository) ListForUser(context context.Context, userID string) ([]*Tenant, error) {
	const query = `
		SELECT id, name, domain, isactive, createdat, updatedat
		FROM core.tenant
		WHERE deletedat IS NULL AND isactive = TRUE
		  AND (
			id = (SELECT tenantid FROM users.account WHERE id = $1)
			OR id IN (SELECT tenantid FROM core.accountrole WHERE accountid = $1)
		  )
		ORDER BY name ASC`

	rows, err := repository.pool.Query(context, query, userID)
	if err != nil {
		return nil, fmt.Errorf("postgres_tenant_repo_list_for_user_failed: %w", err)
	}
	defer rows.Close()

	return scanTenants(rows)
}

// scanTenants drains a row set into tenant entities.
func scanTenants(rows pgx.Rows) ([]*Tenant, error) {
	tenants := make([]*Tenant, 0)
	for rows.Next() {
		tenant := &Tenant{}
		if err := rows.Scan(
			&tenant.ID,
			&tenant.Name,
			&tenant.Domain,
			&tenant.IsActive,
			&tenant.CreatedAt,
			&tenant.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_tenant_repo_scan_failed: %w", err)
		}
		tenants = append(tenants, tenant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_tenant_repo_rows_failed: %w", err)
	}

	return tenants, nil
}
