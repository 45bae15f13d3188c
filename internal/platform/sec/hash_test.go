// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package sec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhdang/aegis/internal/platform/sec"
)

/*
TestHashPassword_RoundTrip checks that a hashed password verifies against the
original and nothing else.
*/
func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := sec.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)

	assert.True(t, sec.CheckPasswordHash("correct horse battery staple", hash))
	assert.False(t, sec.CheckPasswordHash("incorrect horse", hash))
	assert.False(t, sec.CheckPasswordHash("", hash))
}

/*
TestHashPassword_UniqueSalts checks that hashing the same password twice
produces different outputs.
*/
func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := sec.HashPassword("same-password")
	require.NoError(t, err)
	second, err := sec.HashPassword("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

/*
TestGenerateSecureToken checks output length and uniqueness of the opaque
token generator.
*/
func TestGenerateSecureToken(t *testing.T) {
	first, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)
	second, err := sec.GenerateSecureToken(32)
	require.NoError(t, err)

	// 32 raw bytes encode to 43 unpadded base64url characters.
	assert.Len(t, first, 43)
	assert.NotEqual(t, first, second)
}

/*
TestHashToken checks that token digests are deterministic hex SHA-256.
*/
func TestHashToken(t *testing.T) {
	digest := sec.HashToken("opaque-refresh-token")

	assert.Len(t, digest, 64)
	assert.Equal(t, digest, sec.HashToken("opaque-refresh-token"))
	assert.NotEqual(t, digest, sec.HashToken("other-token"))
}
