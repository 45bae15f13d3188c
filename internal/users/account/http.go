// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package account HTTP delivery.

It exposes the self-service profile surface (/me) and the tenant directory
administration surface (/users).

# Security

The /me endpoints require authentication only. The /users endpoints are
tenant-scoped: the guard validates X-Tenant-ID first, then each route carries
its users:read or users:write permission gate.
*/
package account

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/minhdang/aegis/internal/core/permission"
	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/platform/constants"
	"github.com/minhdang/aegis/internal/platform/middleware"
	requestutil "github.com/minhdang/aegis/internal/platform/request"
	"github.com/minhdang/aegis/internal/platform/respond"
	"github.com/minhdang/aegis/internal/platform/validate"
	"github.com/minhdang/aegis/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements the HTTP layer for account management.
type Handler struct {
	accountService *Service
	permissions    middleware.PermissionChecker
	tenants        middleware.TenantChecker
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, permissions middleware.PermissionChecker, tenants middleware.TenantChecker) *Handler {
	return &Handler{
		accountService: service,
		permissions:    permissions,
		tenants:        tenants,
	}
}

// Routes returns a [chi.Router] configured with the account domain's endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Self-service profile
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Get("/me", handler.me)
		r.Patch("/me", handler.updateProfile)
		r.Put("/me/password", handler.changePassword)
	})

	// Tenant directory administration
	router.Route("/users", func(r chi.Router) {
		r.Use(middleware.RequireTenant(handler.tenants))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(handler.permissions, permission.UsersRead))

			r.Get("/", handler.listUsers)
			r.Get("/{userID}", handler.getUser)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePermission(handler.permissions, permission.UsersWrite))

			r.Post("/", handler.createUser)
			r.Patch("/{userID}", handler.updateUser)
			r.Delete("/{userID}", handler.deleteUser)
		})
	})

	return router
}

// # Request Payloads

type updateProfileRequest struct {
	DisplayName *string `json:"display_name"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type createUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type updateUserRequest struct {
	DisplayName *string `json:"display_name"`
	IsActive    *bool   `json:"is_active"`
}

// # Self-Service Endpoints

/*
Me returns the authenticated account's profile view.

GET /api/v1/me

Description: The response joins the identity record with the tenants the
account may enter and its effective permissions. The permission list is
resolved for the tenant named in the optional X-Tenant-ID header, defaulting
to the account's home tenant when the header is absent.

Response:
  - 200: Profile: Identity, available tenants, and effective permissions
  - 401: ErrUnauthorized: Authentication required
  - 403: ErrTenantMismatch: Header names a foreign tenant without superadmin
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Same isolation rule as the tenant guard, with home tenant as the default.
	tenantID := strings.TrimSpace(request.Header.Get(constants.HeaderXTenantID))
	if tenantID == "" {
		tenantID = claims.TenantID
	}
	if !claims.Superadmin && tenantID != claims.TenantID {
		respond.Error(writer, request, apperr.TenantMismatch("Access to the requested tenant is denied"))
		return
	}

	profile, err := handler.accountService.Me(request.Context(), claims.UserID, tenantID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}

/*
UpdateProfile applies partial changes to the caller's own profile.

PATCH /api/v1/me

Request:
  - Body: updateProfileRequest (DisplayName)

Response:
  - 200: User: Updated identity record
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) updateProfile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateProfileRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.DisplayName != nil {
		validator.Required(FieldDisplayName, *input.DisplayName).
			MaxLen(FieldDisplayName, *input.DisplayName, 120)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateProfile(request.Context(), userID, UpdateProfileInput{
		DisplayName: input.DisplayName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
ChangePassword rotates the caller's password.

PUT /api/v1/me/password

Description: Verifies the current password before applying the new one. A
successful rotation revokes every active session; the caller must log in
again with the new credentials.

Request:
  - Body: changePasswordRequest (CurrentPassword, NewPassword)

Response:
  - 200: Success: Password changed
  - 401: ErrAuthentication: Current password is incorrect
*/
func (handler *Handler) changePassword(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input changePasswordRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldCurrentPassword, input.CurrentPassword).
		Required(FieldNewPassword, input.NewPassword).
		MinLen(FieldNewPassword, input.NewPassword, 8)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.accountService.ChangePassword(request.Context(), userID, ChangePasswordInput{
		CurrentPassword: input.CurrentPassword,
		NewPassword:     input.NewPassword,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		constants.FieldMessage: "Password changed successfully",
	})
}

// # Directory Administration Endpoints

/*
ListUsers returns a page of the active tenant's accounts.

GET /api/v1/users?page=1&limit=20

Response:
  - 200: []User with pagination metadata
  - 403: ErrPermissionDenied: Caller lacks users:read
*/
func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	users, total, err := handler.accountService.ListUsers(request.Context(), tenantID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GetUser retrieves a single account within the active tenant.

GET /api/v1/users/{userID}

Response:
  - 200: User: The account
  - 404: ErrNotFound: Unknown, deleted, or foreign-tenant account
*/
func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.GetUser(request.Context(), tenantID, requestutil.ID(request, "userID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
CreateUser provisions a new account homed in the active tenant.

POST /api/v1/users

Request:
  - Body: createUserRequest (Email, Password, DisplayName)

Response:
  - 201: User: Created account
  - 409: ErrConflict: Email already registered
  - 403: ErrPermissionDenied: Caller lacks users:write
*/
func (handler *Handler) createUser(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input createUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, 8).
		Required(FieldDisplayName, input.DisplayName).
		MaxLen(FieldDisplayName, input.DisplayName, 120)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.CreateUser(request.Context(), claims.UserID, tenantID, CreateUserInput{
		Email:       input.Email,
		Password:    input.Password,
		DisplayName: input.DisplayName,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
UpdateUser applies partial changes to a tenant account.

PATCH /api/v1/users/{userID}

Request:
  - Body: updateUserRequest (DisplayName, IsActive)

Response:
  - 200: User: Updated account
  - 403: ErrForbidden: Attempt to deactivate a superadmin
  - 404: ErrNotFound: Unknown, deleted, or foreign-tenant account
*/
func (handler *Handler) updateUser(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input updateUserRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.DisplayName != nil {
		validator.Required(FieldDisplayName, *input.DisplayName).
			MaxLen(FieldDisplayName, *input.DisplayName, 120)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.UpdateUser(
		request.Context(),
		claims.UserID,
		tenantID,
		requestutil.ID(request, "userID"),
		UpdateUserInput{
			DisplayName: input.DisplayName,
			IsActive:    input.IsActive,
		},
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
DeleteUser soft-deletes a tenant account and terminates its sessions.

DELETE /api/v1/users/{userID}

Response:
  - 204: Account deleted
  - 403: ErrForbidden: Superadmin target or self-deletion
  - 404: ErrNotFound: Unknown, deleted, or foreign-tenant account
*/
func (handler *Handler) deleteUser(writer http.ResponseWriter, request *http.Request) {
	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.accountService.DeleteUser(
		request.Context(),
		claims.UserID,
		tenantID,
		requestutil.ID(request, "userID"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
