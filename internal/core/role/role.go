// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package role manages named permission bundles and their assignment to users.

A role is the only unit of grant in the system: users never hold permissions
directly, they hold roles, and the permission resolver unions the permissions
of every role held in the active tenant.

# Architecture

  - Tenant roles belong to exactly one tenant and are invisible elsewhere.
  - System roles (TenantID empty) are platform-defined templates visible to
    every tenant; they can be assigned but never modified or deleted.
  - Every mutation that changes effective grants invalidates the permission
    cache for the affected users before it reports success.
*/
package role

import (
	"time"

	"github.com/minhdang/aegis/internal/core/permission"
)

// # Field Identifiers

const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldPermissions = "permissions"
	FieldUserID      = "user_id"
)

// # Entities

// Role is a named bundle of permissions scoped to a tenant.
//
// A Role with an empty TenantID is a system role: defined by the platform,
// assignable in any tenant, immutable through the API.
type Role struct {
	ID          string                  `json:"id"`
	TenantID    string                  `json:"tenant_id,omitempty"`
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	IsSystem    bool                    `json:"is_system"`
	Permissions []permission.Permission `json:"permissions"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// Assignment links a user to a role within one tenant.
//
// The tenant is part of the key: holding a role in one tenant grants nothing
// in any other tenant. AssignedBy records which account made the grant and
// empties out if that account is later deleted.
type Assignment struct {
	RoleID     string    `json:"role_id"`
	UserID     string    `json:"user_id"`
	TenantID   string    `json:"tenant_id"`
	AssignedBy string    `json:"assigned_by,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
