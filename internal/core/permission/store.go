// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package permission

import "context"

// # Resolver Data Access

// SubjectFlags carries the activity state the resolver checks before any
// permission logic runs.
type SubjectFlags struct {
	IsActive     bool
	IsSuperadmin bool
}

// SubjectRepository reports the account and tenant state gating resolution.
type SubjectRepository interface {

	/*
		AccountFlags returns the activity and superadmin flags for an account.

		Parameters:
		  - context: context.Context
		  - userID: string

		Returns:
		  - *SubjectFlags: Current account state
		  - error: apperr.NotFound or database retrieval failures
	*/
	AccountFlags(context context.Context, userID string) (*SubjectFlags, error)

	/*
		TenantActive reports whether the tenant exists and is active.

		Parameters:
		  - context: context.Context
		  - tenantID: string

		Returns:
		  - bool: true only for an existing, active tenant
		  - error: Database retrieval failures
	*/
	TenantActive(context context.Context, tenantID string) (bool, error)
}

// GrantRepository defines read access to effective permission grants.
type GrantRepository interface {

	/*
		ListGrants returns the deduplicated union of permissions from every
		role the user holds within the tenant, including platform-wide system
		roles assigned there.

		Parameters:
		  - context: context.Context
		  - tenantID: string
		  - userID: string

		Returns:
		  - []Permission: Effective grants (empty slice when none)
		  - error: Database retrieval failures
	*/
	ListGrants(context context.Context, tenantID, userID string) ([]Permission, error)
}
