// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package audit

import (
	"context"

	"github.com/minhdang/aegis/pkg/pagination"
)

// # Audit Data Access

// Repository defines the data access contract for audit entries.
type Repository interface {

	/*
		Insert persists one audit entry.

		Parameters:
		  - context: context.Context
		  - entry: *Entry

		Returns:
		  - error: Persistence failures
	*/
	Insert(context context.Context, entry *Entry) error

	/*
		List returns a page of a tenant's audit entries, newest first,
		optionally filtered to a set of actions.

		Parameters:
		  - context: context.Context
		  - tenantID: string
		  - actions: []string (empty means all actions)
		  - params: pagination.Params

		Returns:
		  - []*Entry: Requested page
		  - int: Total matching count
		  - error: Database retrieval failures
	*/
	List(context context.Context, tenantID string, actions []string, params pagination.Params) ([]*Entry, int, error)
}
