// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package tenant

import (
	"context"

	"github.com/minhdang/aegis/pkg/pagination"
)

// # Tenant Data Access

// Repository defines the data access contract for the tenant directory.
type Repository interface {

	/*
		Create persists a new tenant.

		Parameters:
		  - context: context.Context
		  - tenant: *Tenant

		Returns:
		  - error: Persistence failures (unique name/domain violations included)
	*/
	Create(context context.Context, tenant *Tenant) error

	/*
		FindByID returns the tenant with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Tenant: Hydrated entity
		  - error: apperr.NotFound or database retrieval failures
	*/
	FindByID(context context.Context, id string) (*Tenant, error)

	/*
		Exists reports whether a live tenant row carries the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - bool: True when the tenant exists, active or suspended
		  - error: Database retrieval failures
	*/
	Exists(context context.Context, id string) (bool, error)

	/*
		Update persists changes to mutable tenant fields.

		Parameters:
		  - context: context.Context
		  - tenant: *Tenant

		Returns:
		  - error: Persistence failures
	*/
	Update(context context.Context, tenant *Tenant) error

	/*
		List returns a page of tenants ordered by name, with the total count.

		Parameters:
		  - context: context.Context
		  - params: pagination.Params

		Returns:
		  - []*Tenant: Requested page
		  - int: Total tenant count
		  - error: Database retrieval failures
	*/
	List(context context.Context, params pagination.Params) ([]*Tenant, int, error)

	/*
		ListActive returns every active tenant, used for superadmin tenant
		switching.

		Parameters:
		  - context: context.Context

		Returns:
		  - []*Tenant: Active tenants ordered by name
		  - error: Database retrieval failures
	*/
	ListActive(context context.Context) ([]*Tenant, error)

	/*
		ListForUser returns the active tenants a user can work in: their home
		tenant plus any tenant where they hold at least one role.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - []*Tenant: Accessible tenants ordered by name
		  - error: Database retrieval failures
	*/
	ListForUser(context context.Context, userID string) ([]*Tenant, error)
}
