// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package role_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdang/aegis/internal/core/audit"
	"github.com/minhdang/aegis/internal/core/permission"
	"github.com/minhdang/aegis/internal/core/role"
	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/pkg/pagination"
	"github.com/minhdang/aegis/pkg/pointer"
)

// # Test Doubles

type stubRoleRepo struct {
	roles map[string]*role.Role

	createErr   error
	updateErr   error
	assignErr   error
	unassignErr error

	created    *role.Role
	updated    *role.Role
	deletedID  string
	assignment *role.Assignment
	unassigned bool
}

func newStubRoleRepo(roles ...*role.Role) *stubRoleRepo {
	repo := &stubRoleRepo{roles: make(map[string]*role.Role)}
	for _, item := range roles {
		repo.roles[item.ID] = item
	}
	return repo
}

func (s *stubRoleRepo) Create(_ context.Context, created *role.Role) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = created
	s.roles[created.ID] = created
	return nil
}

func (s *stubRoleRepo) FindByID(_ context.Context, tenantID, roleID string) (*role.Role, error) {
	found, ok := s.roles[roleID]
	if !ok || (found.TenantID != "" && found.TenantID != tenantID) {
		return nil, apperr.NotFound("Role")
	}
	return found, nil
}

func (s *stubRoleRepo) List(_ context.Context, tenantID string, _ pagination.Params) ([]*role.Role, int, error) {
	var visible []*role.Role
	for _, item := range s.roles {
		if item.TenantID == "" || item.TenantID == tenantID {
			visible = append(visible, item)
		}
	}
	return visible, len(visible), nil
}

func (s *stubRoleRepo) Update(_ context.Context, updated *role.Role) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updated = updated
	return nil
}

func (s *stubRoleRepo) Delete(_ context.Context, _, roleID string) error {
	s.deletedID = roleID
	delete(s.roles, roleID)
	return nil
}

func (s *stubRoleRepo) Assign(_ context.Context, assignment *role.Assignment) error {
	if s.assignErr != nil {
		return s.assignErr
	}
	s.assignment = assignment
	return nil
}

func (s *stubRoleRepo) Unassign(_ context.Context, _, _, _ string) error {
	if s.unassignErr != nil {
		return s.unassignErr
	}
	s.unassigned = true
	return nil
}

type stubInvalidator struct {
	userErr error
	roleErr error

	userCalls []string
	roleCalls []string
}

func (s *stubInvalidator) InvalidateUser(_ context.Context, tenantID, userID string) error {
	s.userCalls = append(s.userCalls, tenantID+"/"+userID)
	return s.userErr
}

func (s *stubInvalidator) InvalidateRole(_ context.Context, tenantID, roleID string) error {
	s.roleCalls = append(s.roleCalls, tenantID+"/"+roleID)
	return s.roleErr
}

type recordingAuditor struct {
	entries []*audit.Entry
}

func (r *recordingAuditor) Record(_ context.Context, entry *audit.Entry) {
	r.entries = append(r.entries, entry)
}

func (r *recordingAuditor) lastAction() string {
	if len(r.entries) == 0 {
		return ""
	}
	return r.entries[len(r.entries)-1].Action
}

func uniqueViolation() error { return &pgconn.PgError{Code: "23505"} }
func fkViolation() error     { return &pgconn.PgError{Code: "23503"} }

func tenantRole() *role.Role {
	return &role.Role{
		ID:          "role-1",
		TenantID:    "tenant-1",
		Name:        "Support",
		Permissions: []permission.Permission{permission.UsersRead},
	}
}

func systemRole() *role.Role {
	return &role.Role{
		ID:          "role-sys",
		Name:        "Tenant Administrator",
		IsSystem:    true,
		Permissions: permission.All(),
	}
}

type roleFixture struct {
	service     *role.Service
	repo        *stubRoleRepo
	invalidator *stubInvalidator
	auditor     *recordingAuditor
}

func newRoleFixture(roles ...*role.Role) *roleFixture {
	fixture := &roleFixture{
		repo:        newStubRoleRepo(roles...),
		invalidator: &stubInvalidator{},
		auditor:     &recordingAuditor{},
	}
	fixture.service = role.NewService(fixture.repo, fixture.invalidator, fixture.auditor)
	return fixture
}

// # Create

/*
TestService_Create covers permission vocabulary validation and that creating
a role never triggers invalidation.
*/
func TestService_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fixture := newRoleFixture()

		created, err := fixture.service.Create(context.Background(), "actor-1", "tenant-1", role.CreateInput{
			Name:        "Support",
			Description: "Handles tickets",
			Permissions: []string{"users:read", "audit:read", "users:read"},
		})

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "tenant-1", created.TenantID)

		// Duplicates collapse to one grant.
		assert.ElementsMatch(t,
			[]permission.Permission{permission.UsersRead, permission.AuditRead},
			created.Permissions,
		)

		assert.Equal(t, audit.ActionRoleCreated, fixture.auditor.lastAction())
		assert.Empty(t, fixture.invalidator.roleCalls)
		assert.Empty(t, fixture.invalidator.userCalls)
	})

	t.Run("wildcard_rejected", func(t *testing.T) {
		fixture := newRoleFixture()

		created, err := fixture.service.Create(context.Background(), "actor-1", "tenant-1", role.CreateInput{
			Name:        "God Mode",
			Permissions: []string{"*"},
		})

		assert.Nil(t, created)
		assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
		assert.Nil(t, fixture.repo.created)
	})

	t.Run("unknown_permission_rejected", func(t *testing.T) {
		fixture := newRoleFixture()

		created, err := fixture.service.Create(context.Background(), "actor-1", "tenant-1", role.CreateInput{
			Name:        "Support",
			Permissions: []string{"users:read", "rockets:launch"},
		})

		assert.Nil(t, created)
		assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
	})

	t.Run("duplicate_name_conflict", func(t *testing.T) {
		fixture := newRoleFixture()
		fixture.repo.createErr = uniqueViolation()

		created, err := fixture.service.Create(context.Background(), "actor-1", "tenant-1", role.CreateInput{
			Name:        "Support",
			Permissions: []string{"users:read"},
		})

		assert.Nil(t, created)
		assert.True(t, apperr.IsCode(err, "CONFLICT"))
	})
}

// # Update

/*
TestService_Update covers system role immutability and the invalidation rule:
grant changes sweep the tenant, renames do not.
*/
func TestService_Update(t *testing.T) {
	newPermissions := pointer.To([]string{"users:read", "users:write"})

	t.Run("system_role_immutable", func(t *testing.T) {
		fixture := newRoleFixture(systemRole())

		updated, err := fixture.service.Update(context.Background(), "actor-1", "tenant-1", "role-sys", role.UpdateInput{
			Name: pointer.To("Support L2"),
		})

		assert.Nil(t, updated)
		assert.True(t, apperr.IsCode(err, "FORBIDDEN"))
		assert.Nil(t, fixture.repo.updated)
	})

	t.Run("rename_skips_invalidation", func(t *testing.T) {
		fixture := newRoleFixture(tenantRole())

		updated, err := fixture.service.Update(context.Background(), "actor-1", "tenant-1", "role-1", role.UpdateInput{
			Name: pointer.To("Support L2"),
		})

		require.NoError(t, err)
		assert.Equal(t, "Support L2", updated.Name)
		assert.Empty(t, fixture.invalidator.roleCalls)
	})

	t.Run("grant_change_invalidates_tenant", func(t *testing.T) {
		fixture := newRoleFixture(tenantRole())

		updated, err := fixture.service.Update(context.Background(), "actor-1", "tenant-1", "role-1", role.UpdateInput{
			Permissions: newPermissions,
		})

		require.NoError(t, err)
		assert.ElementsMatch(t,
			[]permission.Permission{permission.UsersRead, permission.UsersWrite},
			updated.Permissions,
		)
		assert.Equal(t, []string{"tenant-1/role-1"}, fixture.invalidator.roleCalls)
	})

	t.Run("wildcard_rejected", func(t *testing.T) {
		fixture := newRoleFixture(tenantRole())

		updated, err := fixture.service.Update(context.Background(), "actor-1", "tenant-1", "role-1", role.UpdateInput{
			Permissions: pointer.To([]string{"*"}),
		})

		assert.Nil(t, updated)
		assert.True(t, apperr.IsCode(err, "VALIDATION_ERROR"))
	})

	t.Run("invalidation_failure_reported", func(t *testing.T) {
		fixture := newRoleFixture(tenantRole())
		fixture.invalidator.roleErr = errors.New("redis: connection refused")

		updated, err := fixture.service.Update(context.Background(), "actor-1", "tenant-1", "role-1", role.UpdateInput{
			Permissions: newPermissions,
		})

		// The write stands; the admin is told propagation is incomplete.
		assert.Nil(t, updated)
		assert.True(t, apperr.IsCode(err, "CACHE_UNAVAILABLE"))
		assert.NotNil(t, fixture.repo.updated)
	})

	t.Run("foreign_tenant_role_invisible", func(t *testing.T) {
		fixture := newRoleFixture(tenantRole())

		updated, err := fixture.service.Update(context.Background(), "actor-1", "tenant-2", "role-1", role.UpdateInput{
			Name: pointer.To("Support L2"),
		})

		assert.Nil(t, updated)
		assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
	})
}

// # Delete

/*
TestService_Delete covers system role protection and tenant-wide invalidation.
*/
func TestService_Delete(t *testing.T) {
	t.Run("system_role_protected", func(t *testing.T) {
		fixture := newRoleFixture(systemRole())

		err := fixture.service.Delete(context.Background(), "actor-1", "tenant-1", "role-sys")

		assert.True(t, apperr.IsCode(err, "FORBIDDEN"))
		assert.Empty(t, fixture.repo.deletedID)
	})

	t.Run("deletes_and_invalidates", func(t *testing.T) {
		fixture := newRoleFixture(tenantRole())

		err := fixture.service.Delete(context.Background(), "actor-1", "tenant-1", "role-1")

		require.NoError(t, err)
		assert.Equal(t, "role-1", fixture.repo.deletedID)
		assert.Equal(t, []string{"tenant-1/role-1"}, fixture.invalidator.roleCalls)
		assert.Equal(t, audit.ActionRoleDeleted, fixture.auditor.lastAction())
	})

	t.Run("missing_role", func(t *testing.T) {
		fixture := newRoleFixture()

		err := fixture.service.Delete(context.Background(), "actor-1", "tenant-1", "role-404")

		assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
	})
}

// # Assignments

/*
TestService_Assign covers grant propagation on assignment, including system
roles and the conflict and unknown-user mappings.
*/
func TestService_Assign(t *testing.T) {
	t.Run("success_invalidates_user", func(t *testing.T) {
		fixture := newRoleFixture(tenantRole())

		err := fixture.service.Assign(context.Background(), "actor-1", "tenant-1", "role-1", role.AssignInput{
			UserID: "user-7",
		})

		require.NoError(t, err)
		require.NotNil(t, fixture.repo.assignment)
		assert.Equal(t, "tenant-1", fixture.repo.assignment.TenantID)
		assert.Equal(t, "user-7", fixture.repo.assignment.UserID)
		assert.Equal(t, "actor-1", fixture.repo.assignment.AssignedBy)
		assert.Equal(t, []string{"tenant-1/user-7"}, fixture.invalidator.userCalls)
		assert.Equal(t, audit.ActionRoleAssigned, fixture.auditor.lastAction())
	})

	t.Run("system_role_assignable", func(t *testing.T) {
		fixture := newRoleFixture(systemRole())

		err := fixture.service.Assign(context.Background(), "actor-1", "tenant-1", "role-sys", role.AssignInput{
			UserID: "user-7",
		})

		require.NoError(t, err)
		assert.Equal(t, "tenant-1", fixture.repo.assignment.TenantID)
	})

	t.Run("already_assigned", func(t *testing.T) {
		fixture := newRoleFixture(tenantRole())
		fixture.repo.assignErr = uniqueViolation()

		err := fixture.service.Assign(context.Background(), "actor-1", "tenant-1", "role-1", role.AssignInput{
			UserID: "user-7",
		})

		assert.True(t, apperr.IsCode(err, "CONFLICT"))
		assert.Empty(t, fixture.invalidator.userCalls)
	})

	t.Run("unknown_user", func(t *testing.T) {
		fixture := newRoleFixture(tenantRole())
		fixture.repo.assignErr = fkViolation()

		err := fixture.service.Assign(context.Background(), "actor-1", "tenant-1", "role-1", role.AssignInput{
			UserID: "user-404",
		})

		assert.True(t, apperr.IsCode(err, "UNPROCESSABLE"))
	})

	t.Run("invalidation_failure_reported", func(t *testing.T) {
		fixture := newRoleFixture(tenantRole())
		fixture.invalidator.userErr = errors.New("redis: connection refused")

		err := fixture.service.Assign(context.Background(), "actor-1", "tenant-1", "role-1", role.AssignInput{
			UserID: "user-7",
		})

		assert.True(t, apperr.IsCode(err, "CACHE_UNAVAILABLE"))
		assert.NotNil(t, fixture.repo.assignment)
	})
}

/*
TestService_Unassign covers removal and its invalidation.
*/
func TestService_Unassign(t *testing.T) {
	t.Run("success_invalidates_user", func(t *testing.T) {
		fixture := newRoleFixture(tenantRole())

		err := fixture.service.Unassign(context.Background(), "actor-1", "tenant-1", "role-1", "user-7")

		require.NoError(t, err)
		assert.True(t, fixture.repo.unassigned)
		assert.Equal(t, []string{"tenant-1/user-7"}, fixture.invalidator.userCalls)
		assert.Equal(t, audit.ActionRoleUnassigned, fixture.auditor.lastAction())
	})

	t.Run("missing_assignment", func(t *testing.T) {
		fixture := newRoleFixture(tenantRole())
		fixture.repo.unassignErr = apperr.NotFound("Assignment")

		err := fixture.service.Unassign(context.Background(), "actor-1", "tenant-1", "role-1", "user-7")

		assert.True(t, apperr.IsCode(err, "NOT_FOUND"))
		assert.Empty(t, fixture.invalidator.userCalls)
	})
}
