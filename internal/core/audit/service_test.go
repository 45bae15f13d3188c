// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package audit_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdang/aegis/internal/core/audit"
	"github.com/minhdang/aegis/pkg/pagination"
)

// # Test Doubles

type stubAuditRepo struct {
	inserted  chan *audit.Entry
	insertErr error

	listEntries []*audit.Entry
	gotTenantID string
	gotActions  []string
}

func newStubAuditRepo() *stubAuditRepo {
	return &stubAuditRepo{inserted: make(chan *audit.Entry, 8)}
}

func (s *stubAuditRepo) Insert(_ context.Context, entry *audit.Entry) error {
	s.inserted <- entry
	return s.insertErr
}

func (s *stubAuditRepo) List(_ context.Context, tenantID string, actions []string, _ pagination.Params) ([]*audit.Entry, int, error) {
	s.gotTenantID = tenantID
	s.gotActions = actions
	return s.listEntries, len(s.listEntries), nil
}

func awaitInsert(t *testing.T, repo *stubAuditRepo) *audit.Entry {
	t.Helper()

	select {
	case entry := <-repo.inserted:
		return entry
	case <-time.After(2 * time.Second):
		t.Fatal("audit entry was never persisted")
		return nil
	}
}

func newAuditService(repo *stubAuditRepo) *audit.Service {
	return audit.NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// # Recording

/*
TestService_Record verifies the asynchronous write path: stamping, detachment
from the caller's context, and that storage failures stay invisible to the
caller.
*/
func TestService_Record(t *testing.T) {
	t.Run("stamps_and_persists", func(t *testing.T) {
		repo := newStubAuditRepo()
		service := newAuditService(repo)

		service.Record(context.Background(), &audit.Entry{
			TenantID: "tenant-1",
			ActorID:  "user-1",
			Action:   audit.ActionLogin,
		})

		entry := awaitInsert(t, repo)
		assert.NotEmpty(t, entry.ID)
		assert.False(t, entry.CreatedAt.IsZero())
		assert.Equal(t, audit.ActionLogin, entry.Action)
	})

	t.Run("survives_caller_cancellation", func(t *testing.T) {
		repo := newStubAuditRepo()
		service := newAuditService(repo)

		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		service.Record(cancelled, &audit.Entry{Action: audit.ActionLogout})

		entry := awaitInsert(t, repo)
		assert.Equal(t, audit.ActionLogout, entry.Action)
	})

	t.Run("storage_failure_is_silent", func(t *testing.T) {
		repo := newStubAuditRepo()
		repo.insertErr = assert.AnError
		service := newAuditService(repo)

		// Record has no error return; the failure must not panic either.
		service.Record(context.Background(), &audit.Entry{Action: audit.ActionRefresh})

		awaitInsert(t, repo)
	})

	t.Run("preserves_caller_stamps", func(t *testing.T) {
		repo := newStubAuditRepo()
		service := newAuditService(repo)
		createdAt := time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

		service.Record(context.Background(), &audit.Entry{
			ID:        "entry-1",
			Action:    audit.ActionRoleCreated,
			CreatedAt: createdAt,
		})

		entry := awaitInsert(t, repo)
		assert.Equal(t, "entry-1", entry.ID)
		assert.Equal(t, createdAt, entry.CreatedAt)
	})
}

// # Querying

/*
TestService_List verifies the filter passthrough to the repository.
*/
func TestService_List(t *testing.T) {
	repo := newStubAuditRepo()
	repo.listEntries = []*audit.Entry{{ID: "entry-1", Action: audit.ActionLogin}}
	service := newAuditService(repo)

	entries, total, err := service.List(context.Background(), "tenant-1",
		[]string{audit.ActionLogin, audit.ActionLoginFailed}, pagination.Params{Page: 1, Limit: 20})

	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, entries, 1)
	assert.Equal(t, "tenant-1", repo.gotTenantID)
	assert.Equal(t, []string{audit.ActionLogin, audit.ActionLoginFailed}, repo.gotActions)
}
