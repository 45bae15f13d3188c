// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package permission implements the tenant-scoped permission resolution engine.

It answers a single question for the rest of the platform: may user U perform
action A within tenant T right now. Every protected route funnels through this
package, so its decisions must be fast (cached) and current (invalidated on
every grant change).

Architecture:

  - Vocabulary: Typed [Permission] constants; free-form strings never flow
    through authorization decisions.
  - Service: The resolver. Activity checks, superadmin bypass, cache
    consultation, and role-union aggregation in one place.
  - Cache: Two tiers (in-process map, shared Redis) kept coherent through
    pub/sub invalidation rather than TTL expiry.
  - Repository: Read-side queries over accounts, tenants, and role grants.

The superadmin bypass lives HERE and only here. Handlers and middleware never
test the superadmin flag to authorize an action themselves.
*/
package permission

import "time"

// Permission is a typed action identifier following the "resource:action"
// convention.
type Permission string

// Wildcard grants every permission. It exists only inside resolved sets
// synthesized for superadmin accounts; it is never stored on a role record
// and never accepted from client input.
const Wildcard Permission = "*"

// Role administration
const (
	RolesCreate Permission = "roles:create"
	RolesRead   Permission = "roles:read"
	RolesUpdate Permission = "roles:update"
	RolesDelete Permission = "roles:delete"
	RolesAssign Permission = "roles:assign"
)

// Directory access
const (
	UsersRead   Permission = "users:read"
	UsersWrite  Permission = "users:write"
	TenantsRead Permission = "tenants:read"
)

// Audit trail
const (
	AuditRead Permission = "audit:read"
)

// All returns every assignable permission, excluding [Wildcard].
func All() []Permission {
	return []Permission{
		RolesCreate, RolesRead, RolesUpdate, RolesDelete, RolesAssign,
		UsersRead, UsersWrite, TenantsRead,
		AuditRead,
	}
}

// Valid reports whether p names a known assignable permission or the wildcard.
func (p Permission) Valid() bool {
	if p == Wildcard {
		return true
	}
	for _, known := range All() {
		if p == known {
			return true
		}
	}
	return false
}

// # Resolved Sets

// Set is the effective permission collection of one user within one tenant,
// produced by unioning the permissions of every role held there.
type Set struct {
	// Permissions holds the granted identifiers. Order is not significant.
	Permissions []Permission `json:"permissions"`

	// Version orders concurrent cache writes; newer resolutions must never
	// be overwritten by older ones racing into the local tier.
	Version int64 `json:"version"`
}

// NewSet builds a [Set] from resolved grants, stamping the version from the
// current clock.
func NewSet(permissions []Permission) *Set {
	return &Set{
		Permissions: permissions,
		Version:     time.Now().UnixNano(),
	}
}

// Has reports whether the set satisfies the required permission.
// A held [Wildcard] satisfies every requirement.
func (set *Set) Has(required Permission) bool {
	for _, granted := range set.Permissions {
		if granted == required || granted == Wildcard {
			return true
		}
	}
	return false
}
