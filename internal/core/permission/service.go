// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package permission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/platform/ctxutil"
)

// # Contracts & Types

// SetCache abstracts the two-tier cache so the resolver can be tested with
// in-memory fakes.
type SetCache interface {
	// Get returns the cached set, nil on a clean miss, or an error when the
	// cache is unreachable.
	Get(context context.Context, tenantID, userID string) (*Set, error)

	// Put stores a freshly resolved set in both tiers.
	Put(context context.Context, tenantID, userID string, set *Set) error
}

// Service is the permission resolver.
//
// # Decision Order
//
// Activity checks run BEFORE the superadmin bypass and BEFORE any cache
// consultation: a deactivated account or suspended tenant is denied even when
// a stale cache entry or the superadmin flag would say otherwise.
type Service struct {
	subjectRepository SubjectRepository
	grantRepository   GrantRepository
	cache             SetCache
}

// NewService constructs the resolver with its data access dependencies.
func NewService(
	subjectRepo SubjectRepository,
	grantRepo GrantRepository,
	cache SetCache,
) *Service {
	return &Service{
		subjectRepository: subjectRepo,
		grantRepository:   grantRepo,
		cache:             cache,
	}
}

// # Resolution Flow

/*
Check decides whether the user may perform the required action in the tenant.

Description: Runs the full decision ladder: subject activity, tenant activity,
superadmin bypass, then resolved grants (cache first, direct on miss or cache
outage). A denial is a regular false, never an error.

Parameters:
  - context: context.Context
  - tenantID: string
  - userID: string
  - required: Permission

Returns:
  - bool: true when the action is allowed
  - error: Resolution failures only (storage outages, never denials)
*/
func (service *Service) Check(context context.Context, tenantID, userID string, required Permission) (bool, error) {

	// Load subject flags. A vanished account is a denial, not a server error.
	flags, err := service.subjectRepository.AccountFlags(context, userID)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return false, nil
		}
		return false, fmt.Errorf("permission_service_subject_lookup_failed: %w", err)
	}

	// Inactive accounts are denied before any bypass or cache logic.
	if !flags.IsActive {
		return false, nil
	}

	// Suspended or missing tenants deny everything inside them.
	tenantActive, err := service.subjectRepository.TenantActive(context, tenantID)
	if err != nil {
		return false, fmt.Errorf("permission_service_tenant_lookup_failed: %w", err)
	}
	if !tenantActive {
		return false, nil
	}

	// Centralized superadmin bypass. Nothing outside this method re-implements it.
	if flags.IsSuperadmin {
		return true, nil
	}

	set, err := service.resolveSet(context, tenantID, userID)
	if err != nil {
		return false, err
	}

	return set.Has(required), nil
}

/*
Resolve returns the user's effective permission set within the tenant.

Description: Used by profile endpoints to display grants. Superadmins resolve
to the wildcard set; inactive subjects and suspended tenants resolve to an
empty set.

Parameters:
  - context: context.Context
  - tenantID: string
  - userID: string

Returns:
  - *Set: Effective permissions (never nil on success)
  - error: Resolution failures
*/
func (service *Service) Resolve(context context.Context, tenantID, userID string) (*Set, error) {

	flags, err := service.subjectRepository.AccountFlags(context, userID)
	if err != nil {
		if apperr.IsCode(err, "NOT_FOUND") {
			return NewSet(nil), nil
		}
		return nil, fmt.Errorf("permission_service_subject_lookup_failed: %w", err)
	}
	if !flags.IsActive {
		return NewSet(nil), nil
	}

	tenantActive, err := service.subjectRepository.TenantActive(context, tenantID)
	if err != nil {
		return nil, fmt.Errorf("permission_service_tenant_lookup_failed: %w", err)
	}
	if !tenantActive {
		return NewSet(nil), nil
	}

	if flags.IsSuperadmin {
		return NewSet([]Permission{Wildcard}), nil
	}

	return service.resolveSet(context, tenantID, userID)
}

// resolveSet reads through the cache, falling back to direct aggregation when
// the cache misses or is unreachable.
func (service *Service) resolveSet(context context.Context, tenantID, userID string) (*Set, error) {

	set, err := service.cache.Get(context, tenantID, userID)
	if err != nil {
		// Cache outage: resolve directly so authorization stays available.
		ctxutil.GetLogger(context).WarnContext(context, "permission_cache_degraded",
			slog.String("tenant_id", tenantID),
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	} else if set != nil {
		return set, nil
	}

	grants, err := service.grantRepository.ListGrants(context, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("permission_service_resolve_failed: %w", err)
	}

	set = NewSet(grants)

	// Populating the cache is best-effort; the decision above already stands.
	if putErr := service.cache.Put(context, tenantID, userID, set); putErr != nil {
		ctxutil.GetLogger(context).WarnContext(context, "permission_cache_populate_failed",
			slog.String("tenant_id", tenantID),
			slog.String("user_id", userID),
			slog.Any("error", putErr),
		)
	}

	return set, nil
}
