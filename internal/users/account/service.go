// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package account

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minhdang/aegis/internal/core/audit"
	"github.com/minhdang/aegis/internal/core/permission"
	"github.com/minhdang/aegis/internal/core/tenant"
	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/platform/dberr"
	"github.com/minhdang/aegis/internal/platform/sec"
	"github.com/minhdang/aegis/internal/users/auth"
	"github.com/minhdang/aegis/pkg/pagination"
	"github.com/minhdang/aegis/pkg/pointer"
	"github.com/minhdang/aegis/pkg/uuid"
)

// # Contracts & Types

// TenantDirectory answers which tenants an account may act in.
// Implemented by [tenant.Service].
type TenantDirectory interface {
	AvailableFor(context context.Context, userID string, superadmin bool) ([]*tenant.Tenant, error)
}

// PermissionSource resolves the effective permission set of an account within
// one tenant. Implemented by [permission.Service].
type PermissionSource interface {
	Resolve(context context.Context, tenantID, userID string) (*permission.Set, error)
}

// SessionTerminator force-revokes every session of an account, denylist
// included. Implemented by [auth.Service].
type SessionTerminator interface {
	LogoutAll(context context.Context, userID string) (int, error)
}

// AuditRecorder records account lifecycle changes without blocking the mutation.
type AuditRecorder interface {
	Record(context context.Context, entry *audit.Entry)
}

// Service orchestrates account self-service and tenant directory administration.
type Service struct {
	repository Repository
	tenants    TenantDirectory
	grants     PermissionSource
	sessions   SessionTerminator
	auditor    AuditRecorder
	logger     *slog.Logger
}

// NewService constructs a new [Service] with its dependencies.
func NewService(
	repository Repository,
	tenants TenantDirectory,
	grants PermissionSource,
	sessions SessionTerminator,
	auditor AuditRecorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		repository: repository,
		tenants:    tenants,
		grants:     grants,
		sessions:   sessions,
		auditor:    auditor,
		logger:     logger,
	}
}

// # Self-Service

/*
Me assembles the profile view of the authenticated account.

Description: Joins the identity record with the tenants the account may enter
and its effective permissions in the active tenant. Inactive accounts and
suspended tenants resolve to an empty permission list rather than an error,
so the profile stays readable while every guarded action is denied.

Parameters:
  - context: context.Context
  - userID: string
  - tenantID: string (The active tenant, defaulted to home by the handler)

Returns:
  - *Profile: Aggregated profile view
  - error: NotFound or resolution failures
*/
func (service *Service) Me(context context.Context, userID, tenantID string) (*Profile, error) {

	user, err := service.repository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_me_lookup_failed: %w", err)
	}

	tenants, err := service.tenants.AvailableFor(context, userID, user.IsSuperadmin)
	if err != nil {
		return nil, fmt.Errorf("account_service_me_tenants_failed: %w", err)
	}

	set, err := service.grants.Resolve(context, tenantID, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_me_permissions_failed: %w", err)
	}

	return &Profile{
		User:             user,
		AvailableTenants: tenants,
		Permissions:      set.Permissions,
	}, nil
}

// UpdateProfileInput defines the self-editable profile fields. Nil fields are
// left untouched.
type UpdateProfileInput struct {
	DisplayName *string
}

/*
UpdateProfile applies a partial set of changes to the caller's own profile.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *auth.User: The updated identity record
  - error: NotFound or storage failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*auth.User, error) {

	user, err := service.repository.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_update_lookup_failed: %w", err)
	}

	user.DisplayName = pointer.Fallback(input.DisplayName, user.DisplayName)

	if err := service.repository.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_failed: %w", err)
	}

	service.logger.Info("account_profile_updated", slog.String("user_id", userID))

	return user, nil
}

// ChangePasswordInput carries a password rotation request.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

/*
ChangePassword rotates the caller's password after re-verifying the current one.

Description: A successful rotation revokes every active session, including the
one that requested it; the caller must authenticate again with the new
credentials. Session revocation is best-effort: the new hash is already
persisted, and unrevoked sessions expire on their own schedule.

Parameters:
  - context: context.Context
  - userID: string
  - input: ChangePasswordInput

Returns:
  - error: Authentication when the current password fails, or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID string, input ChangePasswordInput) error {

	user, err := service.repository.FindByID(context, userID)
	if err != nil {
		return fmt.Errorf("account_service_password_lookup_failed: %w", err)
	}

	if !sec.CheckPasswordHash(input.CurrentPassword, user.PasswordHash) {
		return apperr.Authentication("Current password is incorrect")
	}

	passwordHash, err := sec.HashPassword(input.NewPassword)
	if err != nil {
		return fmt.Errorf("account_service_password_hash_failed: %w", err)
	}

	if err := service.repository.UpdatePassword(context, userID, passwordHash); err != nil {
		return fmt.Errorf("account_service_password_update_failed: %w", err)
	}

	if _, err := service.sessions.LogoutAll(context, userID); err != nil {
		service.logger.Warn("account_password_revocation_degraded",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	service.auditor.Record(context, &audit.Entry{
		TenantID:   user.TenantID,
		ActorID:    userID,
		Action:     audit.ActionPasswordChanged,
		TargetType: "account",
		TargetID:   userID,
	})

	return nil
}

// # Directory Administration

// CreateUserInput carries an account provisioning request.
type CreateUserInput struct {
	Email       string
	Password    string
	DisplayName string
}

/*
CreateUser provisions a new account homed in the active tenant.

Description: New accounts start active, hold no roles, and are never
superadmins; platform operators are promoted directly in the database, not
through the API.

Parameters:
  - context: context.Context
  - actorID: string
  - tenantID: string
  - input: CreateUserInput

Returns:
  - *auth.User: Created account
  - error: Conflict (duplicate email) or storage failures
*/
func (service *Service) CreateUser(context context.Context, actorID, tenantID string, input CreateUserInput) (*auth.User, error) {

	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("account_service_create_hash_failed: %w", err)
	}

	user := &auth.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        input.Email,
		PasswordHash: passwordHash,
		DisplayName:  input.DisplayName,
		IsSuperadmin: false,
		IsActive:     true,
	}

	if err := service.repository.Create(context, user); err != nil {
		if dberr.IsUniqueViolation(err) {
			return nil, apperr.Conflict("A user with this email already exists")
		}
		return nil, fmt.Errorf("account_service_create_failed: %w", err)
	}

	service.auditor.Record(context, &audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionUserCreated,
		TargetType: "account",
		TargetID:   user.ID,
		Detail:     map[string]any{"email": user.Email},
	})

	service.logger.Info("account_user_created",
		slog.String("tenant_id", tenantID),
		slog.String("user_id", user.ID),
	)

	return user, nil
}

/*
ListUsers returns one page of the active tenant's accounts.

Parameters:
  - context: context.Context
  - tenantID: string
  - params: pagination.Params

Returns:
  - []*auth.User: Page of accounts
  - int: Total count
  - error: Retrieval failures
*/
func (service *Service) ListUsers(context context.Context, tenantID string, params pagination.Params) ([]*auth.User, int, error) {
	return service.repository.ListByTenant(context, tenantID, params)
}

/*
GetUser retrieves a single account within the active tenant.

Description: Accounts homed in other tenants are reported as not found, never
as forbidden; the response must not reveal that the identifier exists.

Parameters:
  - context: context.Context
  - tenantID: string
  - userID: string

Returns:
  - *auth.User: The account
  - error: NotFound or retrieval failures
*/
func (service *Service) GetUser(context context.Context, tenantID, userID string) (*auth.User, error) {

	user, err := service.repository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// Tenant isolation: a foreign account is indistinguishable from a missing one.
	if user.TenantID != tenantID {
		return nil, apperr.NotFound("User")
	}

	return user, nil
}

// UpdateUserInput defines the administratively mutable account fields. Nil
// fields are left untouched.
type UpdateUserInput struct {
	DisplayName *string
	IsActive    *bool
}

/*
UpdateUser applies partial changes to a tenant account, including deactivation.

Description: Deactivation takes effect on the next authorization decision
regardless of cache state; the permission resolver re-checks account activity
ahead of its cache. Revoking the account's sessions on top of that closes the
remaining access-token window immediately.

Parameters:
  - context: context.Context
  - actorID: string
  - tenantID: string
  - userID: string
  - input: UpdateUserInput

Returns:
  - *auth.User: Updated account
  - error: NotFound, Forbidden, or storage failures
*/
func (service *Service) UpdateUser(context context.Context, actorID, tenantID, userID string, input UpdateUserInput) (*auth.User, error) {

	user, err := service.GetUser(context, tenantID, userID)
	if err != nil {
		return nil, err
	}

	if user.IsSuperadmin && input.IsActive != nil && !*input.IsActive {
		return nil, apperr.Forbidden("Superadmin accounts cannot be deactivated")
	}

	wasActive := user.IsActive

	user.DisplayName = pointer.Fallback(input.DisplayName, user.DisplayName)
	user.IsActive = pointer.Fallback(input.IsActive, user.IsActive)

	if err := service.repository.Update(context, user); err != nil {
		return nil, fmt.Errorf("account_service_update_user_failed: %w", err)
	}

	if wasActive && !user.IsActive {
		if _, err := service.sessions.LogoutAll(context, userID); err != nil {
			service.logger.Warn("account_deactivation_revocation_degraded",
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
		}
	}

	service.auditor.Record(context, &audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionUserUpdated,
		TargetType: "account",
		TargetID:   user.ID,
		Detail:     map[string]any{"is_active": user.IsActive},
	})

	return user, nil
}

/*
DeleteUser soft-deletes a tenant account and terminates its sessions.

Parameters:
  - context: context.Context
  - actorID: string
  - tenantID: string
  - userID: string

Returns:
  - error: NotFound, Forbidden, or storage failures
*/
func (service *Service) DeleteUser(context context.Context, actorID, tenantID, userID string) error {

	user, err := service.GetUser(context, tenantID, userID)
	if err != nil {
		return err
	}

	if user.IsSuperadmin {
		return apperr.Forbidden("Superadmin accounts cannot be deleted")
	}
	if user.ID == actorID {
		return apperr.Forbidden("Accounts cannot delete themselves")
	}

	if err := service.repository.SoftDelete(context, userID); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}

	if _, err := service.sessions.LogoutAll(context, userID); err != nil {
		service.logger.Warn("account_deletion_revocation_degraded",
			slog.String("user_id", userID),
			slog.Any("error", err),
		)
	}

	service.auditor.Record(context, &audit.Entry{
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     audit.ActionUserDeleted,
		TargetType: "account",
		TargetID:   userID,
		Detail:     map[string]any{"email": user.Email},
	})

	service.logger.Warn("account_user_deleted",
		slog.String("tenant_id", tenantID),
		slog.String("user_id", userID),
	)

	return nil
}
