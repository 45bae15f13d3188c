// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package role

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdang/aegis/internal/core/permission"
	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/pkg/pagination"
)

// # Definitions & Constructors

// PostgresRepository persists roles and assignments in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new [PostgresRepository].
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// # Role Persistence

/*
Create persists a new role and its permission set atomically.
*/
func (repository *PostgresRepository) Create(context context.Context, role *Role) error {

	// Open a transaction so the role row and its permission rows land together
	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_role_repo_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	now := time.Now()
	role.CreatedAt = now
	role.UpdatedAt = now

	query := `
		INSERT INTO core.role (id, tenantid, name, description, issystem, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = transaction.Exec(context, query,
		role.ID,
		nullableText(role.TenantID),
		role.Name,
		role.Description,
		role.IsSystem,
		role.CreatedAt,
		role.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_role_repo_create_failed: %w", err)
	}

	if err := repository.replacePermissions(context, transaction, role.ID, role.Permissions); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_role_repo_commit_failed: %w", err)
	}

	return nil
}

/*
FindByID returns one role visible to the given tenant, with its permissions.
*/
func (repository *PostgresRepository) FindByID(context context.Context, tenantID, roleID string) (*Role, error) {

	query := `
		SELECT id, COALESCE(tenantid::text, ''), name, description, issystem, createdat, updatedat
		FROM core.role
		WHERE id = $1 AND (tenantid = $2 OR tenantid IS NULL)
	`

	role := &Role{}
	err := repository.pool.QueryRow(context, query, roleID, tenantID).Scan(
		&role.ID,
		&role.TenantID,
		&role.Name,
		&role.Description,
		&role.IsSystem,
		&role.CreatedAt,
		&role.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Role")
		}
		return nil, fmt.Errorf("postgres_role_repo_find_failed: %w", err)
	}

	if err := repository.attachPermissions(context, []*Role{role}); err != nil {
		return nil, err
	}

	return role, nil
}

/*
List returns a page of roles visible to the tenant, with their permissions.

Description: Visibility covers the tenant's own roles plus system roles.
Permissions for the whole page are loaded in a single batched query.
*/
func (repository *PostgresRepository) List(context context.Context, tenantID string, params pagination.Params) ([]*Role, int, error) {

	countQuery := `SELECT COUNT(*) FROM core.role WHERE tenantid = $1 OR tenantid IS NULL`

	var total int
	if err := repository.pool.QueryRow(context, countQuery, tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_role_repo_count_failed: %w", err)
	}

	query := `
		SELECT id, COALESCE(tenantid::text, ''), name, description, issystem, createdat, updatedat
		FROM core.role
		WHERE tenantid = $1 OR tenantid IS NULL
		ORDER BY issystem DESC, name ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := repository.pool.Query(context, query, tenantID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_role_repo_list_failed: %w", err)
	}
	defer rows.Close()

	roles := make([]*Role, 0)
	for rows.Next() {
		role := &Role{}
		if err := rows.Scan(
			&role.ID,
			&role.TenantID,
			&role.Name,
			&role.Description,
			&role.IsSystem,
			&role.CreatedAt,
			&role.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_role_repo_scan_failed: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_role_repo_rows_failed: %w", err)
	}

	if err := repository.attachPermissions(context, roles); err != nil {
		return nil, 0, err
	}

	return roles, total, nil
}

/*
Update persists role metadata and replaces its permission set atomically.
*/
func (repository *PostgresRepository) Update(context context.Context, role *Role) error {

	transaction, err := repository.pool.Begin(context)
	if err != nil {
		return fmt.Errorf("postgres_role_repo_begin_failed: %w", err)
	}
	defer transaction.Rollback(context)

	role.UpdatedAt = time.Now()

	query := `
		UPDATE core.role
		SET name = $2, description = $3, updatedat = $4
		WHERE id = $1
	`

	tag, err := transaction.Exec(context, query, role.ID, role.Name, role.Description, role.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres_role_repo_update_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Role")
	}

	if err := repository.replacePermissions(context, transaction, role.ID, role.Permissions); err != nil {
		return err
	}

	if err := transaction.Commit(context); err != nil {
		return fmt.Errorf("postgres_role_repo_commit_failed: %w", err)
	}

	return nil
}

/*
Delete removes a tenant role; assignments and permission rows cascade.

Description: The tenant filter binds on the tenant's own rows only, so system
roles (NULL tenant) can never be deleted here regardless of caller identity.
*/
func (repository *PostgresRepository) Delete(context context.Context, tenantID, roleID string) error {

	query := `DELETE FROM core.role WHERE id = $1 AND tenantid = $2`

	tag, err := repository.pool.Exec(context, query, roleID, tenantID)
	if err != nil {
		return fmt.Errorf("postgres_role_repo_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Role")
	}

	return nil
}

// # Assignment Persistence

/*
Assign links a user to a role within a tenant.
*/
func (repository *PostgresRepository) Assign(context context.Context, assignment *Assignment) error {

	assignment.CreatedAt = time.Now()

	query := `
		INSERT INTO core.accountrole (tenantid, accountid, roleid, assignedby, createdat)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := repository.pool.Exec(context, query,
		assignment.TenantID,
		assignment.UserID,
		assignment.RoleID,
		nullableText(assignment.AssignedBy),
		assignment.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_role_repo_assign_failed: %w", err)
	}

	return nil
}

/*
Unassign removes a role from a user within a tenant.
*/
func (repository *PostgresRepository) Unassign(context context.Context, tenantID, roleID, userID string) error {

	query := `DELETE FROM core.accountrole WHERE tenantid = $1 AND roleid = $2 AND accountid = $3`

	tag, err := repository.pool.Exec(context, query, tenantID, roleID, userID)
	if err != nil {
		return fmt.Errorf("postgres_role_repo_unassign_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Role assignment")
	}

	return nil
}

// # Internal Helpers

// replacePermissions swaps the full permission set of a role inside the
// caller's transaction using a clear-and-insert batch.
func (repository *PostgresRepository) replacePermissions(context context.Context, transaction pgx.Tx, roleID string, permissions []permission.Permission) error {

	if _, err := transaction.Exec(context, `DELETE FROM core.rolepermission WHERE roleid = $1`, roleID); err != nil {
		return fmt.Errorf("postgres_role_repo_clear_permissions_failed: %w", err)
	}

	if len(permissions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, value := range permissions {
		batch.Queue(`INSERT INTO core.rolepermission (roleid, permission) VALUES ($1, $2)`, roleID, string(value))
	}

	response := transaction.SendBatch(context, batch)
	if err := response.Close(); err != nil {
		return fmt.Errorf("postgres_role_repo_insert_permissions_failed: %w", err)
	}

	return nil
}

// attachPermissions hydrates the Permissions slice of every role in one query.
func (repository *PostgresRepository) attachPermissions(context context.Context, roles []*Role) error {

	if len(roles) == 0 {
		return nil
	}

	index := make(map[string]*Role, len(roles))
	identifiers := make([]string, 0, len(roles))
	for _, role := range roles {
		role.Permissions = make([]permission.Permission, 0)
		index[role.ID] = role
		identifiers = append(identifiers, role.ID)
	}

	query := `
		SELECT roleid, permission
		FROM core.rolepermission
		WHERE roleid = ANY($1::uuid[])
		ORDER BY permission ASC
	`

	rows, err := repository.pool.Query(context, query, identifiers)
	if err != nil {
		return fmt.Errorf("postgres_role_repo_permissions_failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var roleID, value string
		if err := rows.Scan(&roleID, &value); err != nil {
			return fmt.Errorf("postgres_role_repo_permissions_scan_failed: %w", err)
		}
		if role, ok := index[roleID]; ok {
			role.Permissions = append(role.Permissions, permission.Permission(value))
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("postgres_role_repo_permissions_rows_failed: %w", err)
	}

	return nil
}

// nullableText maps an empty string to NULL for nullable uuid columns.
func nullableText(value string) any {
	if value == "" {
		return nil
	}
	return value
}
