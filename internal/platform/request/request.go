// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package requestutil extracts the common inputs handlers need from a request.

Every handler starts the same way: decode a body, read a path ID, find out
who is calling and which tenant they act in. These helpers keep that opening
uniform and make sure the failure modes (bad JSON, missing auth, missing
tenant scope) always map to the same error codes.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/platform/ctxutil"
	"github.com/minhdang/aegis/internal/platform/sec"
	"github.com/minhdang/aegis/internal/platform/validate"
)

/*
DecodeJSON decodes the request body into target.

Description: Decode failures collapse into the shared ErrInvalidJSON; the
client learns the payload was malformed, not where, since raw decoder errors
reference Go types.

Parameters:
  - request: *http.Request
  - target: interface{} (pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON when the body does not decode
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

// ID reads a named path parameter. Routes address resources by UUID, so the
// value feeds straight into store lookups; an unknown ID is a NotFound there,
// not a parse error here.
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
RequiredClaims returns the verified token claims or rejects the request.

Description: The authentication middleware stores claims for any request
bearing a valid token. Handlers behind RequireAuth can rely on them being
present; this helper is the explicit check for handlers that are mounted on
mixed routes.

Returns:
  - *sec.AuthClaims: The verified claims
  - error: apperr.Unauthorized when no valid token was presented
*/
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return claims, nil
}

/*
RequiredUserID returns the authenticated account's ID.

Returns:
  - string: Account UUID from the verified token
  - error: apperr.Unauthorized when no valid token was presented
*/
func RequiredUserID(request *http.Request) (string, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return "", err
	}

	return claims.UserID, nil
}

/*
RequiredTenantID returns the active tenant established by the tenant guard.

Description: A missing tenant scope on a tenant-scoped route is a hard error,
never a default. Falling back to "first tenant" or similar would let a
confused client read another tenant's data.

Returns:
  - string: Tenant UUID from the validated X-Tenant-ID header
  - error: apperr.TenantRequired when the request never carried the header
*/
func RequiredTenantID(request *http.Request) (string, error) {
	tenantID := ctxutil.GetTenantID(request.Context())
	if tenantID == "" {
		return "", apperr.TenantRequired()
	}

	return tenantID, nil
}
