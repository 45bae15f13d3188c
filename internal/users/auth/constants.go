// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package auth

import "time"

// # Authentication Constraints

const (
	// RefreshTokenLength is the byte length of the random refresh token secret.
	// 32 bytes of entropy; only its SHA-256 digest is ever stored.
	RefreshTokenLength = 32

	// SessionSweepInterval is how often expired session rows are purged.
	// Expired sessions are inert either way, the sweep just reclaims storage.
	SessionSweepInterval = 1 * time.Hour
)
