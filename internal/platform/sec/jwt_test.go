// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package sec_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdang/aegis/internal/platform/sec"
)

// writeKeyPair generates an RSA key pair and writes it as PEM files into a
// temporary directory, returning the two file paths.
func writeKeyPair(t *testing.T) (string, string) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	publicDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: publicDER,
	})

	dir := t.TempDir()
	privatePath := filepath.Join(dir, "jwt_private.pem")
	publicPath := filepath.Join(dir, "jwt_public.pem")

	require.NoError(t, os.WriteFile(privatePath, privatePEM, 0o600))
	require.NoError(t, os.WriteFile(publicPath, publicPEM, 0o644))

	return privatePath, publicPath
}

// newTestTokenService builds a TokenService backed by a fresh key pair.
func newTestTokenService(t *testing.T) *sec.TokenService {
	t.Helper()

	privatePath, publicPath := writeKeyPair(t)
	service, err := sec.NewTokenService(privatePath, publicPath, "aegis.test")
	require.NoError(t, err)

	return service
}

/*
TestTokenService_RoundTrip generates an access token and verifies that every
claim survives the round trip.
*/
func TestTokenService_RoundTrip(t *testing.T) {
	tests := []struct {
		name       string
		superadmin bool
	}{
		{"regular_user", false},
		{"superadmin", true},
	}

	service := newTestTokenService(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := service.GenerateAccessToken("user-1", "tenant-1", "session-1", tt.superadmin, time.Minute)
			require.NoError(t, err)
			require.NotEmpty(t, token)

			claims, err := service.VerifyToken(token)
			require.NoError(t, err)

			assert.Equal(t, "user-1", claims.UserID)
			assert.Equal(t, "tenant-1", claims.TenantID)
			assert.Equal(t, "session-1", claims.SessionID)
			assert.Equal(t, tt.superadmin, claims.Superadmin)
			assert.Equal(t, "aegis.test", claims.Issuer)
			assert.Equal(t, "user-1", claims.Subject)

			// The session ID doubles as the revocation target.
			assert.Equal(t, "session-1", claims.ID)
		})
	}
}

/*
TestTokenService_Expired checks that a token past its lifetime maps onto the
dedicated expiry sentinel, not the generic invalid one.
*/
func TestTokenService_Expired(t *testing.T) {
	service := newTestTokenService(t)

	token, err := service.GenerateAccessToken("user-1", "tenant-1", "session-1", false, -time.Minute)
	require.NoError(t, err)

	claims, err := service.VerifyToken(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
	assert.NotErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_Tampered checks that modifying the token body breaks the
signature check.
*/
func TestTokenService_Tampered(t *testing.T) {
	service := newTestTokenService(t)

	token, err := service.GenerateAccessToken("user-1", "tenant-1", "session-1", false, time.Minute)
	require.NoError(t, err)

	tampered := []byte(token)
	middle := len(tampered) / 2
	if tampered[middle] == 'A' {
		tampered[middle] = 'B'
	} else {
		tampered[middle] = 'A'
	}

	claims, err := service.VerifyToken(string(tampered))
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_WrongKey checks that a token signed by another key pair is
rejected.
*/
func TestTokenService_WrongKey(t *testing.T) {
	issuingService := newTestTokenService(t)
	verifyingService := newTestTokenService(t)

	token, err := issuingService.GenerateAccessToken("user-1", "tenant-1", "session-1", false, time.Minute)
	require.NoError(t, err)

	claims, err := verifyingService.VerifyToken(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestTokenService_RejectsNonRSA checks that tokens signed with a symmetric
algorithm are refused even when the payload is well formed. 'alg' confusion
attacks depend on the verifier accepting whatever the header announces.
*/
func TestTokenService_RejectsNonRSA(t *testing.T) {
	service := newTestTokenService(t)

	claims := sec.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		UserID:    "user-1",
		TenantID:  "tenant-1",
		SessionID: "session-1",
	}

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("guessed-secret"))
	require.NoError(t, err)

	parsed, err := service.VerifyToken(forged)
	assert.Nil(t, parsed)
	assert.ErrorIs(t, err, sec.ErrTokenInvalid)
}

/*
TestNewTokenService_MissingKeys checks constructor failures on unreadable or
malformed key material.
*/
func TestNewTokenService_MissingKeys(t *testing.T) {
	privatePath, publicPath := writeKeyPair(t)

	t.Run("missing_private_key", func(t *testing.T) {
		service, err := sec.NewTokenService(filepath.Join(t.TempDir(), "absent.pem"), publicPath, "aegis.test")
		assert.Nil(t, service)
		assert.Error(t, err)
	})

	t.Run("missing_public_key", func(t *testing.T) {
		service, err := sec.NewTokenService(privatePath, filepath.Join(t.TempDir(), "absent.pem"), "aegis.test")
		assert.Nil(t, service)
		assert.Error(t, err)
	})

	t.Run("garbage_private_key", func(t *testing.T) {
		garbagePath := filepath.Join(t.TempDir(), "garbage.pem")
		require.NoError(t, os.WriteFile(garbagePath, []byte("not a key"), 0o600))

		service, err := sec.NewTokenService(garbagePath, publicPath, "aegis.test")
		assert.Nil(t, service)
		assert.Error(t, err)
	})
}
