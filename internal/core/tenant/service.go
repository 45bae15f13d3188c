// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package tenant

import (
	"context"
	"fmt"

	"github.com/minhdang/aegis/internal/core/audit"
	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/platform/dberr"
	"github.com/minhdang/aegis/pkg/pagination"
	"github.com/minhdang/aegis/pkg/pointer"
	"github.com/minhdang/aegis/pkg/uuid"
)

// # Contracts & Types

// AuditRecorder records directory changes without blocking the mutation.
type AuditRecorder interface {
	Record(context context.Context, entry *audit.Entry)
}

// Service implements tenant directory use cases.
type Service struct {
	repository Repository
	auditor    AuditRecorder
}

// NewService constructs a new tenant [Service].
func NewService(repository Repository, auditor AuditRecorder) *Service {
	return &Service{
		repository: repository,
		auditor:    auditor,
	}
}

// # Directory Management

// CreateInput holds the data required to provision a new tenant.
type CreateInput struct {
	Name   string
	Domain string
}

/*
Create provisions a new active tenant.

Parameters:
  - context: context.Context
  - actorID: string (superadmin performing the provisioning)
  - input: CreateInput

Returns:
  - *Tenant: Created entity
  - error: Conflict (duplicate name/domain) or storage failures
*/
func (service *Service) Create(context context.Context, actorID string, input CreateInput) (*Tenant, error) {
	tenant := &Tenant{
		ID:       uuid.New(),
		Name:     input.Name,
		Domain:   input.Domain,
		IsActive: true,
	}

	if err := service.repository.Create(context, tenant); err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("A tenant with this name or domain already exists")
		}
		return nil, fmt.Errorf("tenant_service_create_failed: %w", err)
	}

	service.auditor.Record(context, &audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionTenantCreated,
		TargetType: "tenant",
		TargetID:   tenant.ID,
		Detail:     map[string]any{"name": tenant.Name},
	})

	return tenant, nil
}

// UpdateInput holds partial changes to a tenant. Nil fields are left untouched.
type UpdateInput struct {
	Name     *string
	Domain   *string
	IsActive *bool
}

/*
Update applies partial changes to a tenant, including suspension.

Description: Suspension (IsActive=false) takes effect on the next
authorization decision for every user in the tenant; the permission resolver
re-checks tenant activity ahead of its cache, so no cache invalidation is
needed here.

Parameters:
  - context: context.Context
  - actorID: string
  - tenantID: string
  - input: UpdateInput

Returns:
  - *Tenant: Updated entity
  - error: NotFound, Conflict, or storage failures
*/
func (service *Service) Update(context context.Context, actorID, tenantID string, input UpdateInput) (*Tenant, error) {
	tenant, err := service.repository.FindByID(context, tenantID)
	if err != nil {
		return nil, err
	}

	tenant.Name = pointer.Fallback(input.Name, tenant.Name)
	tenant.Domain = pointer.Fallback(input.Domain, tenant.Domain)
	tenant.IsActive = pointer.Fallback(input.IsActive, tenant.IsActive)

	if err := service.repository.Update(context, tenant); err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("A tenant with this name or domain already exists")
		}
		return nil, fmt.Errorf("tenant_service_update_failed: %w", err)
	}

	service.auditor.Record(context, &audit.Entry{
		ActorID:    actorID,
		Action:     audit.ActionTenantUpdated,
		TargetType: "tenant",
		TargetID:   tenant.ID,
		Detail:     map[string]any{"is_active": tenant.IsActive},
	})

	return tenant, nil
}

// # Directory Queries

/*
Get returns one tenant by ID.

Parameters:
  - context: context.Context
  - tenantID: string

Returns:
  - *Tenant: Hydrated entity
  - error: NotFound or retrieval failures
*/
func (service *Service) Get(context context.Context, tenantID string) (*Tenant, error) {
	return service.repository.FindByID(context, tenantID)
}

/*
Exists reports whether a tenant ID refers to a live tenant.

Description: Backs the tenant guard when a superadmin assumes a foreign
tenant scope. Suspended tenants still exist; suspension is enforced later
by the permission resolver.

Parameters:
  - context: context.Context
  - tenantID: string

Returns:
  - bool: True when the tenant exists
  - error: Retrieval failures
*/
func (service *Service) Exists(context context.Context, tenantID string) (bool, error) {
	return service.repository.Exists(context, tenantID)
}

/*
List returns a page of all tenants for the platform console.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []*Tenant: Requested page
  - int: Total tenant count
  - error: Retrieval failures
*/
func (service *Service) List(context context.Context, params pagination.Params) ([]*Tenant, int, error) {
	return service.repository.List(context, params)
}

/*
AvailableFor returns the tenants a user may switch into.

Description: Superadmins see every active tenant; everyone else sees their
home tenant plus tenants where they hold a role.

Parameters:
  - context: context.Context
  - userID: string
  - superadmin: bool

Returns:
  - []*Tenant: Accessible tenants
  - error: Retrieval failures
*/
func (service *Service) AvailableFor(context context.Context, userID string, superadmin bool) ([]*Tenant, error) {
	if superadmin {
		return service.repository.ListActive(context)
	}
	return service.repository.ListForUser(context, userID)
}
