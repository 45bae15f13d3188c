// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package role

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minhdang/aegis/internal/core/permission"
	"github.com/minhdang/aegis/internal/platform/middleware"
	requestutil "github.com/minhdang/aegis/internal/platform/request"
	"github.com/minhdang/aegis/internal/platform/respond"
	"github.com/minhdang/aegis/internal/platform/validate"
	"github.com/minhdang/aegis/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements role management HTTP endpoints.
//
// # Scope
//
// Every route is tenant-scoped: the guard validates X-Tenant-ID before any
// handler runs, and each operation carries its own permission gate so that
// read, write, and assignment rights can be granted independently.
type Handler struct {
	roleService *Service
	permissions middleware.PermissionChecker
	tenants     middleware.TenantChecker
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, permissions middleware.PermissionChecker, tenants middleware.TenantChecker) *Handler {
	return &Handler{
		roleService: service,
		permissions: permissions,
		tenants:     tenants,
	}
}

// Routes returns a [chi.Router] configured with role management routes.
// The parent router authenticates every request before these run.
//
// # Endpoints
//   - GET    /                               : Lists visible roles.
//   - GET    /{roleID}                       : Returns one role.
//   - POST   /                               : Creates a role.
//   - PATCH  /{roleID}                       : Updates a role.
//   - DELETE /{roleID}                       : Deletes a role.
//   - POST   /{roleID}/assignments           : Grants the role to a user.
//   - DELETE /{roleID}/assignments/{userID}  : Revokes the role from a user.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.RequireTenant(handler.tenants))

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(handler.permissions, permission.RolesRead))
		r.Get("/", handler.listRoles)
		r.Get("/{roleID}", handler.getRole)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(handler.permissions, permission.RolesCreate))
		r.Post("/", handler.createRole)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(handler.permissions, permission.RolesUpdate))
		r.Patch("/{roleID}", handler.updateRole)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(handler.permissions, permission.RolesDelete))
		r.Delete("/{roleID}", handler.deleteRole)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequirePermission(handler.permissions, permission.RolesAssign))
		r.Post("/{roleID}/assignments", handler.assignRole)
		r.Delete("/{roleID}/assignments/{userID}", handler.unassignRole)
	})

	return router
}

// # Request Payloads

type createRoleRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Permissions []string `json:"permissions"`
}

type updateRoleRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Permissions *[]string `json:"permissions"`
}

type assignRoleRequest struct {
	UserID string `json:"user_id"`
}

// # Handlers

/*
ListRoles returns a page of roles visible to the active tenant.

GET /api/v1/roles

Request:
  - Query: page, limit

Response:
  - 200: []Role: Tenant roles plus system roles, with pagination metadata
*/
func (handler *Handler) listRoles(writer http.ResponseWriter, request *http.Request) {
	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)

	roles, total, err := handler.roleService.List(request.Context(), tenantID, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, roles, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GetRole returns one role with its permission set.

GET /api/v1/roles/{roleID}

Response:
  - 200: Role: Requested role
  - 404: ErrNotFound: Missing or belonging to another tenant
*/
func (handler *Handler) getRole(writer http.ResponseWriter, request *http.Request) {
	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.roleService.Get(request.Context(), tenantID, requestutil.ID(request, "roleID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

/*
CreateRole defines a new role in the active tenant.

POST /api/v1/roles

Request:
  - Body: createRoleRequest (Name, Description, Permissions)

Response:
  - 201: Role: Created role
  - 400: ErrInvalidJSON: Bad input, malformed or unknown permission
  - 409: ErrConflict: Role name already taken in this tenant
*/
func (handler *Handler) createRole(writer http.ResponseWriter, request *http.Request) {
	var input createRoleRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 80).
		MaxLen(FieldDescription, input.Description, 255)
	for _, value := range input.Permissions {
		validator.Permission(FieldPermissions, value)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.roleService.Create(request.Context(), claims.UserID, tenantID, CreateInput{
		Name:        input.Name,
		Description: input.Description,
		Permissions: input.Permissions,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, role)
}

/*
UpdateRole applies partial changes to a role.

PATCH /api/v1/roles/{roleID}

Description: Omitted fields are left untouched. Sending a permissions array
replaces the whole set and triggers cache invalidation for the tenant.

Request:
  - Body: updateRoleRequest (Name, Description, Permissions; all optional)

Response:
  - 200: Role: Updated role
  - 403: ErrForbidden: System roles cannot be modified
  - 404: ErrNotFound: Missing or belonging to another tenant
  - 409: ErrConflict: Role name already taken in this tenant
  - 503: ErrCacheUnavailable: Write committed but invalidation failed
*/
func (handler *Handler) updateRole(writer http.ResponseWriter, request *http.Request) {
	var input updateRoleRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.Name != nil {
		validator.Required(FieldName, *input.Name).MaxLen(FieldName, *input.Name, 80)
	}
	if input.Description != nil {
		validator.MaxLen(FieldDescription, *input.Description, 255)
	}
	if input.Permissions != nil {
		for _, value := range *input.Permissions {
			validator.Permission(FieldPermissions, value)
		}
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.roleService.Update(request.Context(), claims.UserID, tenantID, requestutil.ID(request, "roleID"), UpdateInput{
		Name:        input.Name,
		Description: input.Description,
		Permissions: input.Permissions,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, role)
}

/*
DeleteRole removes a role and all assignments of it.

DELETE /api/v1/roles/{roleID}

Response:
  - 204: No content
  - 403: ErrForbidden: System roles cannot be deleted
  - 404: ErrNotFound: Missing or belonging to another tenant
  - 503: ErrCacheUnavailable: Write committed but invalidation failed
*/
func (handler *Handler) deleteRole(writer http.ResponseWriter, request *http.Request) {
	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.roleService.Delete(request.Context(), claims.UserID, tenantID, requestutil.ID(request, "roleID")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
AssignRole grants a role to a user in the active tenant.

POST /api/v1/roles/{roleID}/assignments

Request:
  - Body: assignRoleRequest (UserID)

Response:
  - 204: No content
  - 404: ErrNotFound: Missing role
  - 409: ErrConflict: Already assigned
  - 422: ErrUnprocessable: Unknown user
  - 503: ErrCacheUnavailable: Write committed but invalidation failed
*/
func (handler *Handler) assignRole(writer http.ResponseWriter, request *http.Request) {
	var input assignRoleRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUserID, input.UserID).UUID(FieldUserID, input.UserID)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.roleService.Assign(request.Context(), claims.UserID, tenantID, requestutil.ID(request, "roleID"), AssignInput{
		UserID: input.UserID,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

/*
UnassignRole revokes a role from a user in the active tenant.

DELETE /api/v1/roles/{roleID}/assignments/{userID}

Response:
  - 204: No content
  - 404: ErrNotFound: Assignment does not exist
  - 503: ErrCacheUnavailable: Write committed but invalidation failed
*/
func (handler *Handler) unassignRole(writer http.ResponseWriter, request *http.Request) {
	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.roleService.Unassign(
		request.Context(),
		claims.UserID,
		tenantID,
		requestutil.ID(request, "roleID"),
		requestutil.ID(request, "userID"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
