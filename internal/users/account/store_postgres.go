// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/users/auth"
	"github.com/minhdang/aegis/pkg/pagination"
)

// # Definitions & Constructors

// PostgresRepository implements [Repository] against the users.account table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a new [PostgresRepository].
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// # Repository Methods

/*
Create inserts a new account row.
*/
func (repository *PostgresRepository) Create(context context.Context, user *auth.User) error {

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users.account
			(id, tenantid, email, passwordhash, displayname, issuperadmin, isactive, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.TenantID,
		user.Email,
		user.PasswordHash,
		user.DisplayName,
		user.IsSuperadmin,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves a live account by primary key.
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*auth.User, error) {

	query := `
		SELECT id, tenantid, email, passwordhash, displayname, issuperadmin, isactive, lastloginat, createdat, updatedat
		FROM users.account
		WHERE id = $1 AND deletedat IS NULL
	`

	user := &auth.User{}
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
		return nil, fmt.Errorf("postgres_account_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
ListByTenant returns one page of a tenant's accounts, newest first.
*/
func (repository *PostgresRepository) ListByTenant(context context.Context, tenantID string, params pagination.Params) ([]*auth.User, int, error) {

	countQuery := `SELECT COUNT(*) FROM users.account WHERE tenantid = $1 AND deletedat IS NULL`

	var total int
	if err := repository.pool.QueryRow(context, countQuery, tenantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_count_failed: %w", err)
	}

	query := `
		SELECT id, tenantid, email, passwordhash, displayname, issuperadmin, isactive, lastloginat, createdat, updatedat
		FROM users.account
		WHERE tenantid = $1 AND deletedat IS NULL
		ORDER BY createdat DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := repository.pool.Query(context, query, tenantID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", err)
	}
	defer rows.Close()

	users := make([]*auth.User, 0)
	for rows.Next() {
		user := &auth.User{}
		if err := rows.Scan(
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
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_account_repo_scan_failed: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_rows_failed: %w", err)
	}

	return users, total, nil
}

/*
Update persists the mutable account fields.
*/
func (repository *PostgresRepository) Update(context context.Context, user *auth.User) error {

	query := `
		UPDATE users.account
		SET displayname = $2, isactive = $3, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL
	`

	tag, err := repository.pool.Exec(context, query, user.ID, user.DisplayName, user.IsActive)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
UpdatePassword replaces the stored bcrypt digest.
*/
func (repository *PostgresRepository) UpdatePassword(context context.Context, userID, passwordHash string) error {

	query := `
		UPDATE users.account
		SET passwordhash = $2, updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL
	`

	tag, err := repository.pool.Exec(context, query, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}

/*
SoftDelete flags an account as logically destroyed.
*/
func (repository *PostgresRepository) SoftDelete(context context.Context, userID string) error {

	query := `
		UPDATE users.account
		SET deletedat = NOW(), updatedat = NOW()
		WHERE id = $1 AND deletedat IS NULL
	`

	tag, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_soft_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User")
	}

	return nil
}
