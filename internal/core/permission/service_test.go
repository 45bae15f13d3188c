// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package permission_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdang/aegis/internal/core/permission"
	"github.com/minhdang/aegis/internal/platform/apperr"
)

// # Test Doubles

type stubSubjects struct {
	flags        *permission.SubjectFlags
	flagsErr     error
	tenantActive bool
	tenantErr    error

	flagCalls   int
	tenantCalls int
}

func (s *stubSubjects) AccountFlags(context.Context, string) (*permission.SubjectFlags, error) {
	s.flagCalls++
	return s.flags, s.flagsErr
}

func (s *stubSubjects) TenantActive(context.Context, string) (bool, error) {
	s.tenantCalls++
	return s.tenantActive, s.tenantErr
}

type stubGrants struct {
	grants []permission.Permission
	err    error
	calls  int
}

func (s *stubGrants) ListGrants(context.Context, string, string) ([]permission.Permission, error) {
	s.calls++
	return s.grants, s.err
}

type stubCache struct {
	set    *permission.Set
	getErr error
	putErr error

	getCalls int
	putCalls int
	putSet   *permission.Set
}

func (s *stubCache) Get(context.Context, string, string) (*permission.Set, error) {
	s.getCalls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.set, nil
}

func (s *stubCache) Put(_ context.Context, _, _ string, set *permission.Set) error {
	s.putCalls++
	s.putSet = set
	return s.putErr
}

func activeUser() *permission.SubjectFlags {
	return &permission.SubjectFlags{IsActive: true, IsSuperadmin: false}
}

func activeSuperadmin() *permission.SubjectFlags {
	return &permission.SubjectFlags{IsActive: true, IsSuperadmin: true}
}

// # Check

/*
TestService_Check_DecisionLadder walks the resolver's decision order: subject
activity, tenant activity, superadmin bypass, then resolved grants.
*/
func TestService_Check_DecisionLadder(t *testing.T) {
	tests := []struct {
		name         string
		subjects     *stubSubjects
		grants       *stubGrants
		required     permission.Permission
		wantAllowed  bool
		wantResolved bool
	}{
		{
			name:         "grant_present_allows",
			subjects:     &stubSubjects{flags: activeUser(), tenantActive: true},
			grants:       &stubGrants{grants: []permission.Permission{permission.RolesRead, permission.UsersRead}},
			required:     permission.RolesRead,
			wantAllowed:  true,
			wantResolved: true,
		},
		{
			name:         "grant_absent_denies",
			subjects:     &stubSubjects{flags: activeUser(), tenantActive: true},
			grants:       &stubGrants{grants: []permission.Permission{permission.RolesRead}},
			required:     permission.RolesDelete,
			wantAllowed:  false,
			wantResolved: true,
		},
		{
			name:        "missing_account_denies",
			subjects:    &stubSubjects{flagsErr: apperr.NotFound("User")},
			grants:      &stubGrants{grants: []permission.Permission{permission.RolesRead}},
			required:    permission.RolesRead,
			wantAllowed: false,
		},
		{
			name:        "inactive_account_denies_despite_superadmin",
			subjects:    &stubSubjects{flags: &permission.SubjectFlags{IsActive: false, IsSuperadmin: true}, tenantActive: true},
			grants:      &stubGrants{grants: []permission.Permission{permission.RolesRead}},
			required:    permission.RolesRead,
			wantAllowed: false,
		},
		{
			name:        "suspended_tenant_denies_superadmin",
			subjects:    &stubSubjects{flags: activeSuperadmin(), tenantActive: false},
			grants:      &stubGrants{grants: []permission.Permission{permission.RolesRead}},
			required:    permission.RolesRead,
			wantAllowed: false,
		},
		{
			name:        "superadmin_bypass",
			subjects:    &stubSubjects{flags: activeSuperadmin(), tenantActive: true},
			grants:      &stubGrants{},
			required:    permission.RolesDelete,
			wantAllowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &stubCache{}
			service := permission.NewService(tt.subjects, tt.grants, cache)

			allowed, err := service.Check(context.Background(), "tenant-1", "user-1", tt.required)

			require.NoError(t, err)
			assert.Equal(t, tt.wantAllowed, allowed)

			if !tt.wantResolved {
				// Denials and bypasses short-circuit before any cache or
				// grant access.
				assert.Zero(t, cache.getCalls)
				assert.Zero(t, tt.grants.calls)
			}
		})
	}
}

/*
TestService_Check_CacheBehaviour covers the cache hit path, the degraded
direct-resolution path, and best-effort population.
*/
func TestService_Check_CacheBehaviour(t *testing.T) {
	t.Run("hit_skips_store", func(t *testing.T) {
		subjects := &stubSubjects{flags: activeUser(), tenantActive: true}
		grants := &stubGrants{grants: []permission.Permission{permission.AuditRead}}
		cache := &stubCache{set: permission.NewSet([]permission.Permission{permission.RolesRead})}
		service := permission.NewService(subjects, grants, cache)

		allowed, err := service.Check(context.Background(), "tenant-1", "user-1", permission.RolesRead)

		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Zero(t, grants.calls)
	})

	t.Run("miss_resolves_and_populates", func(t *testing.T) {
		subjects := &stubSubjects{flags: activeUser(), tenantActive: true}
		grants := &stubGrants{grants: []permission.Permission{permission.RolesRead}}
		cache := &stubCache{}
		service := permission.NewService(subjects, grants, cache)

		allowed, err := service.Check(context.Background(), "tenant-1", "user-1", permission.RolesRead)

		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 1, grants.calls)
		require.Equal(t, 1, cache.putCalls)
		assert.True(t, cache.putSet.Has(permission.RolesRead))
	})

	t.Run("outage_degrades_to_direct_resolution", func(t *testing.T) {
		subjects := &stubSubjects{flags: activeUser(), tenantActive: true}
		grants := &stubGrants{grants: []permission.Permission{permission.RolesRead}}
		cache := &stubCache{getErr: errors.New("redis: connection refused"), putErr: errors.New("still down")}
		service := permission.NewService(subjects, grants, cache)

		allowed, err := service.Check(context.Background(), "tenant-1", "user-1", permission.RolesRead)

		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 1, grants.calls)
	})

	t.Run("store_failure_surfaces", func(t *testing.T) {
		subjects := &stubSubjects{flags: activeUser(), tenantActive: true}
		grants := &stubGrants{err: errors.New("pg: connection reset")}
		service := permission.NewService(subjects, grants, &stubCache{})

		allowed, err := service.Check(context.Background(), "tenant-1", "user-1", permission.RolesRead)

		assert.False(t, allowed)
		assert.Error(t, err)
	})

	t.Run("subject_lookup_failure_surfaces", func(t *testing.T) {
		subjects := &stubSubjects{flagsErr: errors.New("pg: connection reset")}
		service := permission.NewService(subjects, &stubGrants{}, &stubCache{})

		allowed, err := service.Check(context.Background(), "tenant-1", "user-1", permission.RolesRead)

		assert.False(t, allowed)
		assert.Error(t, err)
	})
}

// # Resolve

/*
TestService_Resolve checks the effective set surfaced to profile endpoints:
wildcard for superadmins, empty for denied subjects, raw grants otherwise.
*/
func TestService_Resolve(t *testing.T) {
	t.Run("superadmin_wildcard", func(t *testing.T) {
		subjects := &stubSubjects{flags: activeSuperadmin(), tenantActive: true}
		grants := &stubGrants{}
		service := permission.NewService(subjects, grants, &stubCache{})

		set, err := service.Resolve(context.Background(), "tenant-1", "user-1")

		require.NoError(t, err)
		require.NotNil(t, set)
		assert.Equal(t, []permission.Permission{permission.Wildcard}, set.Permissions)
		assert.True(t, set.Has(permission.RolesDelete))
		assert.Zero(t, grants.calls)
	})

	t.Run("inactive_user_empty_set", func(t *testing.T) {
		subjects := &stubSubjects{flags: &permission.SubjectFlags{IsActive: false}}
		service := permission.NewService(subjects, &stubGrants{}, &stubCache{})

		set, err := service.Resolve(context.Background(), "tenant-1", "user-1")

		require.NoError(t, err)
		require.NotNil(t, set)
		assert.Empty(t, set.Permissions)
	})

	t.Run("missing_user_empty_set", func(t *testing.T) {
		subjects := &stubSubjects{flagsErr: apperr.NotFound("User")}
		service := permission.NewService(subjects, &stubGrants{}, &stubCache{})

		set, err := service.Resolve(context.Background(), "tenant-1", "user-1")

		require.NoError(t, err)
		require.NotNil(t, set)
		assert.Empty(t, set.Permissions)
	})

	t.Run("suspended_tenant_empty_set", func(t *testing.T) {
		subjects := &stubSubjects{flags: activeUser(), tenantActive: false}
		service := permission.NewService(subjects, &stubGrants{}, &stubCache{})

		set, err := service.Resolve(context.Background(), "tenant-1", "user-1")

		require.NoError(t, err)
		require.NotNil(t, set)
		assert.Empty(t, set.Permissions)
	})

	t.Run("regular_user_grants", func(t *testing.T) {
		subjects := &stubSubjects{flags: activeUser(), tenantActive: true}
		grants := &stubGrants{grants: []permission.Permission{permission.RolesRead, permission.AuditRead}}
		service := permission.NewService(subjects, grants, &stubCache{})

		set, err := service.Resolve(context.Background(), "tenant-1", "user-1")

		require.NoError(t, err)
		require.NotNil(t, set)
		assert.ElementsMatch(t,
			[]permission.Permission{permission.RolesRead, permission.AuditRead},
			set.Permissions,
		)
	})

	t.Run("tenant_lookup_failure_surfaces", func(t *testing.T) {
		subjects := &stubSubjects{flags: activeUser(), tenantErr: errors.New("pg: connection reset")}
		service := permission.NewService(subjects, &stubGrants{}, &stubCache{})

		set, err := service.Resolve(context.Background(), "tenant-1", "user-1")

		assert.Nil(t, set)
		assert.Error(t, err)
	})
}

// # Vocabulary

/*
TestSet_Has checks exact matches and the wildcard rule.
*/
func TestSet_Has(t *testing.T) {
	tests := []struct {
		name     string
		granted  []permission.Permission
		required permission.Permission
		want     bool
	}{
		{"exact_match", []permission.Permission{permission.RolesRead}, permission.RolesRead, true},
		{"missing", []permission.Permission{permission.RolesRead}, permission.RolesDelete, false},
		{"wildcard_satisfies_all", []permission.Permission{permission.Wildcard}, permission.AuditRead, true},
		{"empty_set", nil, permission.RolesRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := permission.NewSet(tt.granted)
			assert.Equal(t, tt.want, set.Has(tt.required))
		})
	}
}

/*
TestPermission_Valid checks the registered vocabulary.
*/
func TestPermission_Valid(t *testing.T) {
	for _, known := range permission.All() {
		assert.True(t, known.Valid(), string(known))
		assert.NotEqual(t, permission.Wildcard, known)
	}

	assert.True(t, permission.Wildcard.Valid())
	assert.False(t, permission.Permission("roles:explode").Valid())
	assert.False(t, permission.Permission("").Valid())
}
