// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package role

import (
	"context"

	"github.com/minhdang/aegis/pkg/pagination"
)

// # Contracts

// Repository defines persistence operations for roles and assignments.
type Repository interface {

	/*
	   Create persists a new role and its permission set atomically.

	   Parameters:
	     - context: context.Context
	     - role: *Role

	   Returns:
	     - error: Unique violations on (tenant, name) or storage failures
	*/
	Create(context context.Context, role *Role) error

	/*
	   FindByID returns one role visible to the given tenant.

	   Description: A role is visible when it belongs to the tenant or is a
	   system role. Roles of other tenants are indistinguishable from missing.

	   Parameters:
	     - context: context.Context
	     - tenantID: string
	     - roleID: string

	   Returns:
	     - *Role: Hydrated role including its permissions
	     - error: apperr.NotFound if invisible or missing
	*/
	FindByID(context context.Context, tenantID, roleID string) (*Role, error)

	/*
	   List returns a page of roles visible to the tenant.

	   Parameters:
	     - context: context.Context
	     - tenantID: string
	     - params: pagination.Params

	   Returns:
	     - []*Role: Tenant roles plus system roles, with permissions
	     - int: Total visible role count
	     - error: Retrieval failures
	*/
	List(context context.Context, tenantID string, params pagination.Params) ([]*Role, int, error)

	/*
	   Update persists role metadata and replaces its permission set atomically.

	   Parameters:
	     - context: context.Context
	     - role: *Role

	   Returns:
	     - error: apperr.NotFound, unique violations, or storage failures
	*/
	Update(context context.Context, role *Role) error

	/*
	   Delete removes a tenant role and cascades its assignments.

	   Parameters:
	     - context: context.Context
	     - tenantID: string
	     - roleID: string

	   Returns:
	     - error: apperr.NotFound if invisible or missing
	*/
	Delete(context context.Context, tenantID, roleID string) error

	/*
	   Assign links a user to a role within a tenant.

	   Parameters:
	     - context: context.Context
	     - assignment: *Assignment

	   Returns:
	     - error: Unique violation if already assigned, FK violation for
	       unknown users, or storage failures
	*/
	Assign(context context.Context, assignment *Assignment) error

	/*
	   Unassign removes a role from a user within a tenant.

	   Parameters:
	     - context: context.Context
	     - tenantID: string
	     - roleID: string
	     - userID: string

	   Returns:
	     - error: apperr.NotFound if the assignment does not exist
	*/
	Unassign(context context.Context, tenantID, roleID, userID string) error
}
