// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package role

import (
	"context"
	"fmt"

	"github.com/minhdang/aegis/internal/core/audit"
	"github.com/minhdang/aegis/internal/core/permission"
	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/platform/dberr"
	"github.com/minhdang/aegis/pkg/pagination"
	"github.com/minhdang/aegis/pkg/pointer"
	"github.com/minhdang/aegis/pkg/uuid"
)

// # Contracts & Types

// Invalidator evicts resolved permission sets after a grant mutation.
//
// An invalidation failure after a committed write is reported to the caller
// as CACHE_UNAVAILABLE: the write stands, but other instances may serve the
// old grants until the cache recovers, and the admin should know that.
type Invalidator interface {
	InvalidateUser(context context.Context, tenantID, userID string) error
	InvalidateRole(context context.Context, tenantID, roleID string) error
}

// AuditRecorder records grant changes without blocking the mutation.
type AuditRecorder interface {
	Record(context context.Context, entry *audit.Entry)
}

// Service implements role management use cases.
type Service struct {
	repository  Repository
	invalidator Invalidator
	auditor     AuditRecorder
}

// NewService constructs a new role [Service].
func NewService(repository Repository, invalidator Invalidator, auditor AuditRecorder) *Service {
	return &Service{
		repository:  repository,
		invalidator: invalidator,
		auditor:     auditor,
	}
}

// # Role Management

// CreateInput holds the data required to define a new role.
type CreateInput struct {
	Name        string
	Description string
	Permissions []string
}

/*
Create defines a new tenant role.

Description: Permissions are validated against the registered vocabulary
before anything is written. No cache invalidation is needed on create
because no user can hold the role yet.

Parameters:
  - context: context.Context
  - actorID: string
  - tenantID: string
  - input: CreateInput

Returns:
  - *Role: Created role
  - error: ValidationError (unknown permission), Conflict (duplicate name),
    or storage failures
*/
func (service *Service) Create(context context.Context, actorID, tenantID string, input CreateInput) (*Role, error) {
	permissions, err := parsePermissions(input.Permissions)
	if err != nil {
		return nil, err
	}

	role := &Role{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Name:        input.Name,
		Description: input.Description,
		Permissions: permissions,
	}

	if err := service.repository.Create(context, role); err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("A role with this name already exists in this tenant")
		}
		return nil, fmt.Errorf("role_service_create_failed: %w", err)
	}

	service.auditor.Record(context, &audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionRoleCreated,
		TargetType: "role",
		TargetID:   role.ID,
		Detail:     map[string]any{"name": role.Name, "permissions": input.Permissions},
	})

	return role, nil
}

// UpdateInput holds partial changes to a role. Nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	Permissions *[]string
}

/*
Update applies partial changes to a tenant role.

Description: When the permission set changes, every resolved set in the
tenant is invalidated so the new grants take effect on the next
authorization decision. Renames skip invalidation since resolved sets
carry permissions, not role names.

Parameters:
  - context: context.Context
  - actorID: string
  - tenantID: string
  - roleID: string
  - input: UpdateInput

Returns:
  - *Role: Updated role
  - error: NotFound, Forbidden (system role), ValidationError, Conflict,
    CacheUnavailable (committed write, failed invalidation), or storage
    failures
*/
func (service *Service) Update(context context.Context, actorID, tenantID, roleID string, input UpdateInput) (*Role, error) {
	role, err := service.repository.FindByID(context, tenantID, roleID)
	if err != nil {
		return nil, err
	}
	if role.IsSystem {
		return nil, apperr.Forbidden("System roles cannot be modified")
	}

	role.Name = pointer.Fallback(input.Name, role.Name)
	role.Description = pointer.Fallback(input.Description, role.Description)

	grantsChanged := false
	if input.Permissions != nil {
		permissions, err := parsePermissions(*input.Permissions)
		if err != nil {
			return nil, err
		}
		role.Permissions = permissions
		grantsChanged = true
	}

	if err := service.repository.Update(context, role); err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("A role with this name already exists in this tenant")
		}
		return nil, fmt.Errorf("role_service_update_failed: %w", err)
	}

	service.auditor.Record(context, &audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionRoleUpdated,
		TargetType: "role",
		TargetID:   role.ID,
		Detail:     map[string]any{"name": role.Name, "grants_changed": grantsChanged},
	})

	if grantsChanged {
		if err := service.invalidator.InvalidateRole(context, tenantID, roleID); err != nil {
			return nil, apperr.CacheUnavailable(err)
		}
	}

	return role, nil
}

/*
Delete removes a tenant role and every assignment of it.

Parameters:
  - context: context.Context
  - actorID: string
  - tenantID: string
  - roleID: string

Returns:
  - error: NotFound, Forbidden (system role), CacheUnavailable (committed
    write, failed invalidation), or storage failures
*/
func (service *Service) Delete(context context.Context, actorID, tenantID, roleID string) error {
	role, err := service.repository.FindByID(context, tenantID, roleID)
	if err != nil {
		return err
	}
	if role.IsSystem {
		return apperr.Forbidden("System roles cannot be deleted")
	}

	if err := service.repository.Delete(context, tenantID, roleID); err != nil {
		return err
	}

	service.auditor.Record(context, &audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionRoleDeleted,
		TargetType: "role",
		TargetID:   roleID,
		Detail:     map[string]any{"name": role.Name},
	})

	if err := service.invalidator.InvalidateRole(context, tenantID, roleID); err != nil {
		return apperr.CacheUnavailable(err)
	}

	return nil
}

// # Role Queries

/*
Get returns one role visible to the tenant.

Parameters:
  - context: context.Context
  - tenantID: string
  - roleID: string

Returns:
  - *Role: Hydrated role including its permissions
  - error: NotFound or retrieval failures
*/
func (service *Service) Get(context context.Context, tenantID, roleID string) (*Role, error) {
	return service.repository.FindByID(context, tenantID, roleID)
}

/*
List returns a page of roles visible to the tenant.

Parameters:
  - context: context.Context
  - tenantID: string
  - params: pagination.Params

Returns:
  - []*Role: Tenant roles plus system roles
  - int: Total visible role count
  - error: Retrieval failures
*/
func (service *Service) List(context context.Context, tenantID string, params pagination.Params) ([]*Role, int, error) {
	return service.repository.List(context, tenantID, params)
}

// # Assignments

// AssignInput identifies the user receiving a role.
type AssignInput struct {
	UserID string
}

/*
Assign grants a role to a user within the tenant.

Description: System roles are assignable like tenant roles. The target user
may belong to another tenant; holding a role here is what makes this tenant
appear in their available tenant list. The user's resolved set in this
tenant is invalidated before success is reported.

Parameters:
  - context: context.Context
  - actorID: string
  - tenantID: string
  - roleID: string
  - input: AssignInput

Returns:
  - error: NotFound (role), Conflict (already assigned), Unprocessable
    (unknown user), CacheUnavailable, or storage failures
*/
func (service *Service) Assign(context context.Context, actorID, tenantID, roleID string, input AssignInput) error {
	role, err := service.repository.FindByID(context, tenantID, roleID)
	if err != nil {
		return err
	}

	assignment := &Assignment{
		RoleID:     role.ID,
		UserID:     input.UserID,
		TenantID:   tenantID,
		AssignedBy: actorID,
	}

	if err := service.repository.Assign(context, assignment); err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict("Role is already assigned to this user")
		}
		if dberr.IsForeignKeyViolation(err) {
			return apperr.Unprocessable("User does not exist")
		}
		return fmt.Errorf("role_service_assign_failed: %w", err)
	}

	service.auditor.Record(context, &audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionRoleAssigned,
		TargetType: "account",
		TargetID:   input.UserID,
		Detail:     map[string]any{"role_id": role.ID, "role_name": role.Name},
	})

	if err := service.invalidator.InvalidateUser(context, tenantID, input.UserID); err != nil {
		return apperr.CacheUnavailable(err)
	}

	return nil
}

/*
Unassign removes a role from a user within the tenant.

Parameters:
  - context: context.Context
  - actorID: string
  - tenantID: string
  - roleID: string
  - userID: string

Returns:
  - error: NotFound (assignment), CacheUnavailable, or storage failures
*/
func (service *Service) Unassign(context context.Context, actorID, tenantID, roleID, userID string) error {
	if err := service.repository.Unassign(context, tenantID, roleID, userID); err != nil {
		return err
	}

	service.auditor.Record(context, &audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionRoleUnassigned,
		TargetType: "account",
		TargetID:   userID,
		Detail:     map[string]any{"role_id": roleID},
	})

	if err := service.invalidator.InvalidateUser(context, tenantID, userID); err != nil {
		return apperr.CacheUnavailable(err)
	}

	return nil
}

// # Internal Helpers

// parsePermissions validates raw permission strings against the registered
// vocabulary, deduplicating as it goes. The wildcard is rejected: it is
// synthesized for superadmins at resolution time, never stored as a grant.
func parsePermissions(values []string) ([]permission.Permission, error) {
	permissions := make([]permission.Permission, 0, len(values))
	seen := make(map[permission.Permission]bool, len(values))

	for _, value := range values {
		candidate := permission.Permission(value)
		if candidate == permission.Wildcard {
			return nil, apperr.ValidationError("The wildcard permission cannot be granted to roles")
		}
		if !candidate.Valid() {
			return nil, apperr.ValidationError("Unknown permission: " + value)
		}
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		permissions = append(permissions, candidate)
	}

	return permissions, nil
}
