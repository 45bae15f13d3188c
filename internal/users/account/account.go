// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package account implements directory management for user accounts.

It covers two surfaces that share one storage layer:

  - Self-service: the authenticated account reads and edits its own profile
    and rotates its own password.
  - Administration: operators holding the users:read / users:write
    permissions provision, list, and deactivate the accounts of their tenant.

The package owns no authentication logic. Credentials are verified by the
auth package; account only consumes the identity it established.
*/
package account

import (
	"context"

	"github.com/minhdang/aegis/internal/core/permission"
	"github.com/minhdang/aegis/internal/core/tenant"
	"github.com/minhdang/aegis/internal/users/auth"
	"github.com/minhdang/aegis/pkg/pagination"
)

// # Domain Entities

// Profile is the self-service view of an authenticated account: the identity
// record joined with the tenants it may enter and the permissions it holds in
// the tenant it is currently acting in.
type Profile struct {
	User *auth.User `json:"user"`

	// AvailableTenants lists every tenant the account can present in the
	// X-Tenant-ID header: all active tenants for superadmins, the home
	// tenant plus every tenant with a role grant for everyone else.
	AvailableTenants []*tenant.Tenant `json:"available_tenants"`

	// Permissions is the effective permission set within the active tenant.
	Permissions []permission.Permission `json:"permissions"`
}

// # Field Identifiers

const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldDisplayName     = "display_name"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
)

// # Repository Contracts

// Repository defines the persistence contract for user accounts.
//
// All reads exclude soft-deleted rows; a deleted account behaves exactly like
// one that never existed.
type Repository interface {
	/*
		Create persists a new account record.

		Parameters:
		  - context: context.Context
		  - user: *auth.User (ID and password hash already populated)

		Returns:
		  - error: Unique violation on duplicate email, or insert failures
	*/
	Create(context context.Context, user *auth.User) error

	/*
		FindByID retrieves an account by its unique ID.

		Parameters:
		  - context: context.Context
		  - id: string (UUID)

		Returns:
		  - *auth.User: Hydrated identity entity
		  - error: apperr.NotFound or retrieval failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	/*
		ListByTenant returns one page of the accounts homed in a tenant,
		newest first.

		Parameters:
		  - context: context.Context
		  - tenantID: string
		  - params: pagination.Params

		Returns:
		  - []*auth.User: Page of accounts
		  - int: Total account count for pagination metadata
		  - error: Retrieval failures
	*/
	ListByTenant(context context.Context, tenantID string, params pagination.Params) ([]*auth.User, int, error)

	/*
		Update persists the mutable account fields (display name, active flag).

		Parameters:
		  - context: context.Context
		  - user: *auth.User (Hydrated entity with changes)

		Returns:
		  - error: apperr.NotFound when the account vanished, or update failures
	*/
	Update(context context.Context, user *auth.User) error

	/*
		UpdatePassword replaces the stored password hash.

		Parameters:
		  - context: context.Context
		  - userID: string
		  - passwordHash: string (bcrypt digest, never the plain text)

		Returns:
		  - error: apperr.NotFound or update failures
	*/
	UpdatePassword(context context.Context, userID, passwordHash string) error

	/*
		SoftDelete flags an account as logically destroyed. The row is kept
		for audit trail integrity but excluded from every subsequent read.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - error: apperr.NotFound or update failures
	*/
	SoftDelete(context context.Context, userID string) error
}
