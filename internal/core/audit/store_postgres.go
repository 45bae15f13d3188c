// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/minhdang/aegis/pkg/pagination"
)

// PostgresRepository implements the [Repository] interface using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL implementation of the audit Repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Insert persists one audit entry into the core.auditlog table.

Parameters:
  - context: context.Context
  - entry: *Entry

Returns:
  - error: Persistence failures
*/
func (repository *PostgresRepository) Insert(context context.Context, entry *Entry) error {
	const query = `
		INSERT INTO core.auditlog (
			id, tenantid, actorid, action, targettype, targetid, detail, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	detail, err := json.Marshal(entry.Detail)
	if err != nil {
		return fmt.Errorf("postgres_audit_repo_marshal_failed: %w", err)
	}

	_, err = repository.pool.Exec(context, query,
		entry.ID,
		nullableText(entry.TenantID),
		nullableText(entry.ActorID),
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		detail,
		entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_audit_repo_insert_failed: %w", err)
	}

	return nil
}

/*
List returns a page of a tenant's audit entries, newest first.

Parameters:
  - context: context.Context
  - tenantID: string
  - actions: []string (empty means all actions)
  - params: pagination.Params

Returns:
  - []*Entry: Requested page
  - int: Total matching count
  - error: Execution errors
*/
func (repository *PostgresRepository) List(context context.Context, tenantID string, actions []string, params pagination.Params) ([]*Entry, int, error) {
	countQuery := `SELECT COUNT(*) FROM core.auditlog WHERE tenantid = $1`
	listQuery := `
		SELECT id, COALESCE(tenantid::text, ''), COALESCE(actorid::text, ''),
		       action, targettype, targetid, detail, createdat
		FROM core.auditlog
		WHERE tenantid = $1`

	countArgs := []any{tenantID}
	listArgs := []any{tenantID}

	if len(actions) > 0 {
		countQuery += ` AND action = ANY($2)`
		listQuery += ` AND action = ANY($2)`
		countArgs = append(countArgs, actions)
		listArgs = append(listArgs, actions)
	}

	listQuery += fmt.Sprintf(` ORDER BY createdat DESC LIMIT $%d OFFSET $%d`, len(listArgs)+1, len(listArgs)+2)
	listArgs = append(listArgs, params.Limit, params.Offset())

	var total int
	if err := repository.pool.QueryRow(context, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_audit_repo_count_failed: %w", err)
	}

	rows, err := repository.pool.Query(context, listQuery, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_audit_repo_list_failed: %w", err)
	}
	defer rows.Close()

	entries := make([]*Entry, 0)
	for rows.Next() {
		entry := &Entry{}
		var detail []byte
		if err := rows.Scan(
			&entry.ID,
			&entry.TenantID,
			&entry.ActorID,
			&entry.Action,
			&entry.TargetType,
			&entry.TargetID,
			&detail,
			&entry.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_audit_repo_scan_failed: %w", err)
		}
		if len(detail) > 0 {
			_ = json.Unmarshal(detail, &entry.Detail)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_audit_repo_rows_failed: %w", err)
	}

	return entries, total, nil
}

// nullableText maps an empty string onto SQL NULL for UUID columns.
func nullableText(value string) any {
	if value == "" {
		return nil
	}
	return value
}
