// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package audit implements the security audit trail.

Authorization-relevant events (logins, token rotations, role and grant
changes) are recorded as immutable entries. Recording is asynchronous and
best-effort: a full audit table must never take authentication down.
*/
package audit

import "time"

// # Recorded Actions

const (
	ActionLogin        = "auth.login"
	ActionLoginFailed  = "auth.login_failed"
	ActionRefresh      = "auth.refresh"
	ActionRefreshReuse = "auth.refresh_reuse"
	ActionLogout       = "auth.logout"
	ActionLogoutAll    = "auth.logout_all"

	ActionRoleCreated    = "role.created"
	ActionRoleUpdated    = "role.updated"
	ActionRoleDeleted    = "role.deleted"
	ActionRoleAssigned   = "role.assigned"
	ActionRoleUnassigned = "role.unassigned"

	ActionTenantCreated = "tenant.created"
	ActionTenantUpdated = "tenant.updated"

	ActionUserCreated     = "user.created"
	ActionUserUpdated     = "user.updated"
	ActionUserDeleted     = "user.deleted"
	ActionPasswordChanged = "user.password_changed"
)

// # Domain Entities

// Entry is one immutable audit record.
type Entry struct {
	ID string `json:"id"`

	// TenantID scopes the entry; empty for platform-level events
	// (tenant provisioning).
	TenantID string `json:"tenant_id,omitempty"`

	// ActorID is the account that performed the action; empty when the
	// actor could not be authenticated (failed logins).
	ActorID string `json:"actor_id,omitempty"`

	Action     string         `json:"action"`
	TargetType string         `json:"target_type,omitempty"`
	TargetID   string         `json:"target_id,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
