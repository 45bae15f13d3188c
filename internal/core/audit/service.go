// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package audit

import (
	stdctx "context"
	"log/slog"
	"time"

	"github.com/minhdang/aegis/pkg/pagination"
	"github.com/minhdang/aegis/pkg/uuid"
)

// recordTimeout bounds the detached write of one audit entry.
const recordTimeout = 5 * time.Second

// Service provides asynchronous audit recording and synchronous querying.
type Service struct {
	repository Repository
	logger     *slog.Logger
}

// NewService constructs a new audit [Service].
func NewService(repository Repository, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		logger:     logger,
	}
}

/*
Record persists an audit entry without blocking the caller.

Description: Stamps identity and time, then writes on a detached context so
the entry survives the originating request ending. Failures are logged, never
returned; auditing is an observer of the authorization flow, not a gate in it.

Parameters:
  - context: stdctx.Context (values survive; cancellation does not apply)
  - entry: *Entry
*/
func (service *Service) Record(context stdctx.Context, entry *Entry) {
	if entry.ID == "" {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	detached := stdctx.WithoutCancel(context)
	go func() {
		writeCtx, cancel := stdctx.WithTimeout(detached, recordTimeout)
		defer cancel()

		if err := service.repository.Insert(writeCtx, entry); err != nil {
			service.logger.Error("audit_record_failed",
				slog.String("action", entry.Action),
				slog.String("tenant_id", entry.TenantID),
				slog.Any("error", err),
			)
		}
	}()
}

/*
List returns a page of a tenant's audit trail, newest first.

Parameters:
  - context: stdctx.Context
  - tenantID: string
  - actions: []string (empty means all actions)
  - params: pagination.Params

Returns:
  - []*Entry: Requested page
  - int: Total matching count
  - error: Retrieval failures
*/
func (service *Service) List(context stdctx.Context, tenantID string, actions []string, params pagination.Params) ([]*Entry, int, error) {
	return service.repository.List(context, tenantID, actions, params)
}
