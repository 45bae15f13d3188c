// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, Session) and the token lifecycle:
short-lived RS256 access tokens paired with stateful, single-use refresh
tokens organized into rotation families.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import "time"

// # Domain Entities

// User represents an account belonging to exactly one home tenant.
type User struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	DisplayName  string     `json:"display_name"`
	IsSuperadmin bool       `json:"is_superadmin"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Session represents one generation of a refresh-token family.
//
// A login starts a new family. Each refresh rotates the family forward: the
// old session is marked rotated and a new one is created with the same
// FamilyID. Presenting a rotated or revoked session's token again is reuse,
// and reuse revokes the whole family.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	TenantID  string     `json:"tenant_id"`
	FamilyID  string     `json:"family_id"`
	TokenHash string     `json:"-"` // Hashed value of the refresh token. Omitted for security.
	UserAgent string     `json:"user_agent"`
	IPAddress string     `json:"ip_address"`
	ExpiresAt time.Time  `json:"expires_at"`
	IsRevoked bool       `json:"is_revoked"`
	IsRotated bool       `json:"is_rotated"`
	RotatedAt *time.Time `json:"rotated_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldTenantID        = "tenant_id"
	FieldRefreshToken    = "refresh_token"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldSessionID       = "session_id"
	FieldUser            = "user"
	FieldMessage         = "message"
	FieldSessionsRevoked = "sessions_revoked"
)
