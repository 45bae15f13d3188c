// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdang/aegis/internal/core/audit"
	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/platform/sec"
	"github.com/minhdang/aegis/internal/users/auth"
)

// # Test Doubles

type stubUserRepo struct {
	users        map[string]*auth.User // keyed by ID
	emails       map[string]*auth.User // keyed by email
	lastLoginIDs []string

	// inactiveTenants marks tenants whose lookups report unusable; every
	// other tenant ID reads as active.
	inactiveTenants map[string]bool
}

func newStubUserRepo(users ...*auth.User) *stubUserRepo {
	repo := &stubUserRepo{
		users:           make(map[string]*auth.User),
		emails:          make(map[string]*auth.User),
		inactiveTenants: make(map[string]bool),
	}
	for _, user := range users {
		repo.users[user.ID] = user
		repo.emails[user.Email] = user
	}
	return repo
}

func (s *stubUserRepo) FindByID(_ context.Context, id string) (*auth.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	if user, ok := s.emails[email]; ok {
		return user, nil
	}
	return nil, apperr.NotFound("User")
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, userID string) error {
	s.lastLoginIDs = append(s.lastLoginIDs, userID)
	return nil
}

func (s *stubUserRepo) TenantActive(_ context.Context, tenantID string) (bool, error) {
	return !s.inactiveTenants[tenantID], nil
}

// memorySessionRepo is a functioning in-memory session store with real
// compare-and-set rotation semantics.
type memorySessionRepo struct {
	byID   map[string]*auth.Session
	byHash map[string]*auth.Session

	// loseRotation simulates another instance spending the token between this
	// caller's read and its rotation attempt.
	loseRotation bool
	rotateErr    error
	createErr    error
}

func newMemorySessionRepo() *memorySessionRepo {
	return &memorySessionRepo{
		byID:   make(map[string]*auth.Session),
		byHash: make(map[string]*auth.Session),
	}
}

func (m *memorySessionRepo) Create(_ context.Context, session *auth.Session) error {
	if m.createErr != nil {
		return m.createErr
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	m.byID[session.ID] = session
	m.byHash[session.TokenHash] = session
	return nil
}

func (m *memorySessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	if session, ok := m.byHash[tokenHash]; ok {
		return session, nil
	}
	return nil, apperr.NotFound("Session")
}

func (m *memorySessionRepo) FindByID(_ context.Context, sessionID string) (*auth.Session, error) {
	if session, ok := m.byID[sessionID]; ok {
		return session, nil
	}
	return nil, apperr.NotFound("Session")
}

func (m *memorySessionRepo) Rotate(_ context.Context, sessionID string) (bool, error) {
	if m.rotateErr != nil {
		return false, m.rotateErr
	}
	session, ok := m.byID[sessionID]
	if !ok || session.IsRotated || session.IsRevoked || m.loseRotation {
		return false, nil
	}
	now := time.Now()
	session.IsRotated = true
	session.RotatedAt = &now
	return true, nil
}

func (m *memorySessionRepo) Revoke(_ context.Context, sessionID string) error {
	if session, ok := m.byID[sessionID]; ok {
		session.IsRevoked = true
	}
	return nil
}

func (m *memorySessionRepo) RevokeFamily(_ context.Context, familyID string) ([]string, error) {
	var revoked []string
	for _, session := range m.byID {
		if session.FamilyID == familyID && !session.IsRevoked {
			session.IsRevoked = true
			revoked = append(revoked, session.ID)
		}
	}
	return revoked, nil
}

func (m *memorySessionRepo) RevokeAll(_ context.Context, userID string) ([]string, error) {
	var revoked []string
	for _, session := range m.byID {
		if session.UserID == userID && !session.IsRevoked {
			session.IsRevoked = true
			revoked = append(revoked, session.ID)
		}
	}
	return revoked, nil
}

func (m *memorySessionRepo) ListActiveForUser(_ context.Context, userID string) ([]*auth.Session, error) {
	var active []*auth.Session
	for _, session := range m.byID {
		if session.UserID == userID && !session.IsRevoked && !session.IsRotated && session.ExpiresAt.After(time.Now()) {
			active = append(active, session)
		}
	}
	return active, nil
}

func (m *memorySessionRepo) DeleteExpired(context.Context) error { return nil }

type stubRevocations struct {
	marked  map[string]bool
	markErr error
}

func newStubRevocations() *stubRevocations {
	return &stubRevocations{marked: make(map[string]bool)}
}

func (s *stubRevocations) MarkRevoked(_ context.Context, sessionIDs []string, _ time.Duration) error {
	if s.markErr != nil {
		return s.markErr
	}
	for _, id := range sessionIDs {
		s.marked[id] = true
	}
	return nil
}

func (s *stubRevocations) IsSessionRevoked(_ context.Context, sessionID string) (bool, error) {
	return s.marked[sessionID], nil
}

type stubTokens struct {
	err    error
	issued int
}

func (s *stubTokens) GenerateAccessToken(_, _, sessionID string, _ bool, _ time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.issued++
	return "jwt-" + sessionID, nil
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

// # Fixture

type authFixture struct {
	service     *auth.Service
	users       *stubUserRepo
	sessions    *memorySessionRepo
	revocations *stubRevocations
	tokens      *stubTokens
	auditor     *recordingAuditor
}

func newAuthFixture(t *testing.T, users ...*auth.User) *authFixture {
	t.Helper()

	fixture := &authFixture{
		users:       newStubUserRepo(users...),
		sessions:    newMemorySessionRepo(),
		revocations: newStubRevocations(),
		tokens:      &stubTokens{},
		auditor:     &recordingAuditor{},
	}
	fixture.service = auth.NewService(
		fixture.users,
		fixture.sessions,
		fixture.revocations,
		fixture.tokens,
		fixture.auditor,
		15*time.Minute,
		720*time.Hour,
	)
	return fixture
}

func activeAccount() *auth.User {
	hash, _ := sec.HashPassword("s3cret-password")
	return &auth.User{
		ID:           "user-1",
		TenantID:     "tenant-1",
		Email:        "dang@aegis.app",
		PasswordHash: hash,
		DisplayName:  "Dang Le",
		IsActive:     true,
	}
}

// # Login

/*
TestService_Login covers credential verification and the indistinguishable
generic failure for unknown, wrong-password, and deactivated accounts.
*/
func TestService_Login(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())

		session, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:     "dang@aegis.app",
			Password:  "s3cret-password",
			UserAgent: "cli/1.0",
			IPAddress: "10.0.0.1",
		})

		require.NoError(t, err)
		require.NotNil(t, session)
		assert.NotEmpty(t, session.SessionID)
		assert.NotEmpty(t, session.AccessToken)
		assert.NotEmpty(t, session.RefreshToken)
		assert.Equal(t, "user-1", session.User.ID)
		assert.True(t, session.RefreshTokenExpiresAt.After(time.Now()))

		// The stored session holds only the token digest, never the secret.
		stored, err := fixture.sessions.FindByTokenHash(context.Background(), sec.HashToken(session.RefreshToken))
		require.NoError(t, err)
		assert.Equal(t, session.SessionID, stored.ID)
		assert.NotEqual(t, session.RefreshToken, stored.TokenHash)
		assert.Equal(t, "tenant-1", stored.TenantID)
		assert.Equal(t, "cli/1.0", stored.UserAgent)

		assert.Equal(t, []string{"user-1"}, fixture.users.lastLoginIDs)
		assert.Equal(t, audit.ActionLogin, fixture.auditor.lastAction())
	})

	t.Run("generic_failure_hides_cause", func(t *testing.T) {
		deactivated := activeAccount()
		deactivated.ID = "user-2"
		deactivated.Email = "locked@aegis.app"
		deactivated.IsActive = false

		fixture := newAuthFixture(t, activeAccount(), deactivated)

		tests := []struct {
			name     string
			email    string
			password string
		}{
			{"unknown_email", "ghost@aegis.app", "s3cret-password"},
			{"wrong_password", "dang@aegis.app", "wrong-password"},
			{"deactivated_account", "locked@aegis.app", "s3cret-password"},
		}

		var messages []string
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				session, err := fixture.service.Login(context.Background(), auth.LoginInput{
					Email:    tt.email,
					Password: tt.password,
				})

				assert.Nil(t, session)
				require.Error(t, err)
				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, "AUTHENTICATION_FAILED", ae.Code)
				messages = append(messages, ae.Message)
			})
		}

		// All three failures must read identically to the client.
		for _, message := range messages {
			assert.Equal(t, messages[0], message)
		}
	})

	t.Run("each_login_starts_new_family", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())

		first, err := fixture.service.Login(context.Background(), auth.LoginInput{Email: "dang@aegis.app", Password: "s3cret-password"})
		require.NoError(t, err)
		second, err := fixture.service.Login(context.Background(), auth.LoginInput{Email: "dang@aegis.app", Password: "s3cret-password"})
		require.NoError(t, err)

		firstStored, _ := fixture.sessions.FindByTokenHash(context.Background(), sec.HashToken(first.RefreshToken))
		secondStored, _ := fixture.sessions.FindByTokenHash(context.Background(), sec.HashToken(second.RefreshToken))
		assert.NotEqual(t, firstStored.FamilyID, secondStored.FamilyID)
	})

	t.Run("inactive_home_tenant_reads_as_bad_credentials", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())
		fixture.users.inactiveTenants["tenant-1"] = true

		session, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "dang@aegis.app",
			Password: "s3cret-password",
		})

		assert.Nil(t, session)
		require.Error(t, err)
		ae := apperr.As(err)
		require.NotNil(t, ae)
		assert.Equal(t, "AUTHENTICATION_FAILED", ae.Code)
		assert.Equal(t, "Invalid login credentials", ae.Message)
		assert.Equal(t, audit.ActionLoginFailed, fixture.auditor.lastAction())
	})
}

/*
TestService_Login_TenantHint covers the optional tenant scope on login:
superadmins may bind the session to any active tenant, everyone else is
limited to their home tenant.
*/
func TestService_Login_TenantHint(t *testing.T) {
	superadmin := func() *auth.User {
		user := activeAccount()
		user.IsSuperadmin = true
		return user
	}

	t.Run("superadmin_assumes_foreign_tenant", func(t *testing.T) {
		fixture := newAuthFixture(t, superadmin())

		session, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "dang@aegis.app",
			Password: "s3cret-password",
			TenantID: "tenant-2",
		})

		require.NoError(t, err)
		stored, err := fixture.sessions.FindByID(context.Background(), session.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "tenant-2", stored.TenantID)

		// The audit trail lands in the assumed tenant, not the home one.
		assert.Equal(t, "tenant-2", fixture.auditor.entries[len(fixture.auditor.entries)-1].TenantID)
	})

	t.Run("regular_account_hint_rejected", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())

		session, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "dang@aegis.app",
			Password: "s3cret-password",
			TenantID: "tenant-2",
		})

		assert.Nil(t, session)
		assert.True(t, apperr.IsCode(err, "TENANT_MISMATCH"))
	})

	t.Run("hint_matching_home_tenant_is_fine", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())

		session, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "dang@aegis.app",
			Password: "s3cret-password",
			TenantID: "tenant-1",
		})

		require.NoError(t, err)
		stored, err := fixture.sessions.FindByID(context.Background(), session.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "tenant-1", stored.TenantID)
	})

	t.Run("superadmin_cannot_assume_inactive_tenant", func(t *testing.T) {
		fixture := newAuthFixture(t, superadmin())
		fixture.users.inactiveTenants["tenant-2"] = true

		session, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "dang@aegis.app",
			Password: "s3cret-password",
			TenantID: "tenant-2",
		})

		assert.Nil(t, session)
		assert.True(t, apperr.IsCode(err, "TENANT_MISMATCH"))
	})
}

// # Refresh Rotation

/*
TestService_RefreshSession covers single-use rotation: the winner path, both
reuse paths, expiry, and the deactivated-account stop.
*/
func TestService_RefreshSession(t *testing.T) {
	login := func(t *testing.T, fixture *authFixture) *auth.LoginSession {
		t.Helper()
		session, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "dang@aegis.app",
			Password: "s3cret-password",
		})
		require.NoError(t, err)
		return session
	}

	t.Run("rotation_stays_in_family", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())
		first := login(t, fixture)

		refreshed, err := fixture.service.RefreshSession(context.Background(), first.RefreshToken, "cli/1.0", "10.0.0.1")
		require.NoError(t, err)
		require.NotNil(t, refreshed)
		assert.NotEqual(t, first.RefreshToken, refreshed.RefreshToken)

		oldStored, err := fixture.sessions.FindByTokenHash(context.Background(), sec.HashToken(first.RefreshToken))
		require.NoError(t, err)
		newStored, err := fixture.sessions.FindByTokenHash(context.Background(), sec.HashToken(refreshed.RefreshToken))
		require.NoError(t, err)

		assert.True(t, oldStored.IsRotated)
		assert.False(t, newStored.IsRotated)
		assert.Equal(t, oldStored.FamilyID, newStored.FamilyID)
		assert.Equal(t, audit.ActionRefresh, fixture.auditor.lastAction())
	})

	t.Run("unknown_token_invalid", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())

		session, err := fixture.service.RefreshSession(context.Background(), "never-issued", "", "")

		assert.Nil(t, session)
		assert.True(t, apperr.IsCode(err, "TOKEN_INVALID"))
	})

	t.Run("replay_burns_family", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())
		first := login(t, fixture)

		refreshed, err := fixture.service.RefreshSession(context.Background(), first.RefreshToken, "", "")
		require.NoError(t, err)

		// Presenting the spent token again must revoke the whole family,
		// including the freshly issued generation.
		replayed, err := fixture.service.RefreshSession(context.Background(), first.RefreshToken, "", "")
		assert.Nil(t, replayed)
		assert.True(t, apperr.IsCode(err, "TOKEN_REUSE"))
		assert.Equal(t, audit.ActionRefreshReuse, fixture.auditor.lastAction())

		currentStored, err := fixture.sessions.FindByTokenHash(context.Background(), sec.HashToken(refreshed.RefreshToken))
		require.NoError(t, err)
		assert.True(t, currentStored.IsRevoked)
		assert.True(t, fixture.revocations.marked[currentStored.ID])

		// The victim's next legitimate refresh fails too; they must log in again.
		victim, err := fixture.service.RefreshSession(context.Background(), refreshed.RefreshToken, "", "")
		assert.Nil(t, victim)
		assert.True(t, apperr.IsCode(err, "TOKEN_REUSE"))
	})

	t.Run("lost_race_is_reuse", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())
		first := login(t, fixture)

		fixture.sessions.loseRotation = true

		session, err := fixture.service.RefreshSession(context.Background(), first.RefreshToken, "", "")
		assert.Nil(t, session)
		assert.True(t, apperr.IsCode(err, "TOKEN_REUSE"))
	})

	t.Run("expired_session", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())
		first := login(t, fixture)

		stored, err := fixture.sessions.FindByTokenHash(context.Background(), sec.HashToken(first.RefreshToken))
		require.NoError(t, err)
		stored.ExpiresAt = time.Now().Add(-time.Minute)

		session, err := fixture.service.RefreshSession(context.Background(), first.RefreshToken, "", "")
		assert.Nil(t, session)
		assert.True(t, apperr.IsCode(err, "TOKEN_EXPIRED"))
	})

	t.Run("replayed_expired_token_still_burns_family", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())
		first := login(t, fixture)
		refreshed, err := fixture.service.RefreshSession(context.Background(), first.RefreshToken, "", "")
		require.NoError(t, err)

		// The spent generation also expired since; replay detection must win
		// over the expiry answer.
		spent, err := fixture.sessions.FindByTokenHash(context.Background(), sec.HashToken(first.RefreshToken))
		require.NoError(t, err)
		spent.ExpiresAt = time.Now().Add(-time.Minute)

		session, err := fixture.service.RefreshSession(context.Background(), first.RefreshToken, "", "")
		assert.Nil(t, session)
		assert.True(t, apperr.IsCode(err, "TOKEN_REUSE"))

		currentStored, err := fixture.sessions.FindByTokenHash(context.Background(), sec.HashToken(refreshed.RefreshToken))
		require.NoError(t, err)
		assert.True(t, currentStored.IsRevoked)
	})

	t.Run("deactivated_account_cannot_refresh", func(t *testing.T) {
		user := activeAccount()
		fixture := newAuthFixture(t, user)
		first := login(t, fixture)

		user.IsActive = false

		session, err := fixture.service.RefreshSession(context.Background(), first.RefreshToken, "", "")
		assert.Nil(t, session)
		assert.True(t, apperr.IsCode(err, "AUTHENTICATION_FAILED"))
	})

	t.Run("denylist_outage_does_not_mask_reuse", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())
		first := login(t, fixture)

		_, err := fixture.service.RefreshSession(context.Background(), first.RefreshToken, "", "")
		require.NoError(t, err)

		fixture.revocations.markErr = errors.New("redis: connection refused")

		session, err := fixture.service.RefreshSession(context.Background(), first.RefreshToken, "", "")
		assert.Nil(t, session)
		assert.True(t, apperr.IsCode(err, "TOKEN_REUSE"))
	})

	t.Run("rotation_preserves_assumed_tenant", func(t *testing.T) {
		user := activeAccount()
		user.IsSuperadmin = true
		fixture := newAuthFixture(t, user)

		first, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "dang@aegis.app",
			Password: "s3cret-password",
			TenantID: "tenant-2",
		})
		require.NoError(t, err)

		refreshed, err := fixture.service.RefreshSession(context.Background(), first.RefreshToken, "", "")
		require.NoError(t, err)

		// The user's home tenant is tenant-1, but the rotated session must
		// keep the scope the login established.
		stored, err := fixture.sessions.FindByID(context.Background(), refreshed.SessionID)
		require.NoError(t, err)
		assert.Equal(t, "tenant-2", stored.TenantID)
	})
}

// # Logout

/*
TestService_Logout covers revocation, denylisting, ownership, and
idempotency.
*/
func TestService_Logout(t *testing.T) {
	login := func(t *testing.T, fixture *authFixture, email string) *auth.LoginSession {
		t.Helper()
		session, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    email,
			Password: "s3cret-password",
		})
		require.NoError(t, err)
		return session
	}

	t.Run("revokes_and_denylists", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())
		session := login(t, fixture, "dang@aegis.app")

		require.NoError(t, fixture.service.Logout(context.Background(), "user-1", session.SessionID))

		stored, err := fixture.sessions.FindByID(context.Background(), session.SessionID)
		require.NoError(t, err)
		assert.True(t, stored.IsRevoked)

		revoked, err := fixture.revocations.IsSessionRevoked(context.Background(), stored.ID)
		require.NoError(t, err)
		assert.True(t, revoked)
		assert.Equal(t, audit.ActionLogout, fixture.auditor.lastAction())

		// A revoked refresh token can never rotate again.
		next, err := fixture.service.RefreshSession(context.Background(), session.RefreshToken, "", "")
		assert.Nil(t, next)
		assert.True(t, apperr.IsCode(err, "TOKEN_REUSE"))
	})

	t.Run("revokes_another_device", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())
		laptop := login(t, fixture, "dang@aegis.app")
		phone := login(t, fixture, "dang@aegis.app")

		require.NoError(t, fixture.service.Logout(context.Background(), "user-1", phone.SessionID))

		phoneStored, err := fixture.sessions.FindByID(context.Background(), phone.SessionID)
		require.NoError(t, err)
		assert.True(t, phoneStored.IsRevoked)

		// The device that issued the call keeps its session.
		laptopStored, err := fixture.sessions.FindByID(context.Background(), laptop.SessionID)
		require.NoError(t, err)
		assert.False(t, laptopStored.IsRevoked)
	})

	t.Run("foreign_session_reads_as_missing", func(t *testing.T) {
		other := activeAccount()
		other.ID = "user-2"
		other.Email = "khanh@aegis.app"

		fixture := newAuthFixture(t, activeAccount(), other)
		victim := login(t, fixture, "khanh@aegis.app")

		err := fixture.service.Logout(context.Background(), "user-1", victim.SessionID)
		assert.True(t, apperr.IsCode(err, "NOT_FOUND"))

		stored, findErr := fixture.sessions.FindByID(context.Background(), victim.SessionID)
		require.NoError(t, findErr)
		assert.False(t, stored.IsRevoked)
	})

	t.Run("unknown_session_is_idempotent", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())
		assert.NoError(t, fixture.service.Logout(context.Background(), "user-1", "never-issued"))
	})

	t.Run("repeat_logout_is_idempotent", func(t *testing.T) {
		fixture := newAuthFixture(t, activeAccount())
		session := login(t, fixture, "dang@aegis.app")

		require.NoError(t, fixture.service.Logout(context.Background(), "user-1", session.SessionID))
		recorded := len(fixture.auditor.entries)

		// The second call succeeds without re-auditing the revocation.
		require.NoError(t, fixture.service.Logout(context.Background(), "user-1", session.SessionID))
		assert.Equal(t, recorded, len(fixture.auditor.entries))
	})
}

/*
TestService_LogoutAll covers device-wide revocation.
*/
func TestService_LogoutAll(t *testing.T) {
	fixture := newAuthFixture(t, activeAccount())

	var tokens []string
	for i := 0; i < 3; i++ {
		session, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "dang@aegis.app",
			Password: "s3cret-password",
		})
		require.NoError(t, err)
		tokens = append(tokens, session.RefreshToken)
	}

	revoked, err := fixture.service.LogoutAll(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, revoked)

	active, err := fixture.service.Sessions(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, active)

	for _, token := range tokens {
		stored, err := fixture.sessions.FindByTokenHash(context.Background(), sec.HashToken(token))
		require.NoError(t, err)
		assert.True(t, stored.IsRevoked)
		assert.True(t, fixture.revocations.marked[stored.ID])
	}
	assert.Equal(t, audit.ActionLogoutAll, fixture.auditor.lastAction())
}
