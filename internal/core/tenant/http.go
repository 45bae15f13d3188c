// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package tenant

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/minhdang/aegis/internal/core/permission"
	"github.com/minhdang/aegis/internal/platform/apperr"
	"github.com/minhdang/aegis/internal/platform/middleware"
	requestutil "github.com/minhdang/aegis/internal/platform/request"
	"github.com/minhdang/aegis/internal/platform/respond"
	"github.com/minhdang/aegis/internal/platform/validate"
	"github.com/minhdang/aegis/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements tenant directory HTTP endpoints.
type Handler struct {
	tenantService *Service
	permissions   middleware.PermissionChecker
}

// NewHandler constructs a new [Handler] with its dependencies.
func NewHandler(service *Service, permissions middleware.PermissionChecker) *Handler {
	return &Handler{
		tenantService: service,
		permissions:   permissions,
	}
}

// Routes returns a [chi.Router] configured with tenant directory routes.
// The parent router authenticates every request before these run.
//
// # Endpoints
//   - POST  /            : Provisions a tenant (superadmin).
//   - GET   /            : Lists the tenants visible to the caller.
//   - PATCH /{tenantID}  : Updates or suspends a tenant (superadmin).
//   - GET   /{tenantID}  : Returns the caller's active tenant.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Platform console endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireSuperadmin)
		r.Post("/", handler.create)
		r.Patch("/{tenantID}", handler.update)
	})

	// Directory listing: superadmins see the whole directory, everyone
	// else only the tenants they can enter.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", handler.list)
	})

	// Tenant-scoped endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireTenant(handler.tenantService))
		r.Use(middleware.RequirePermission(handler.permissions, permission.TenantsRead))
		r.Get("/{tenantID}", handler.get)
	})

	return router
}

// # Request Payloads

type createTenantRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

type updateTenantRequest struct {
	Name     *string `json:"name"`
	Domain   *string `json:"domain"`
	IsActive *bool   `json:"is_active"`
}

// # Handlers

/*
Create provisions a new tenant.

POST /api/v1/tenants

Description: Creates an active tenant in the directory. Restricted to
superadmins because tenants are platform-level resources.

Request:
  - Body: createTenantRequest (Name, Domain)

Response:
  - 201: Tenant: Created tenant
  - 400: ErrInvalidJSON: Bad input or validation failure
  - 409: ErrConflict: Name or domain already taken
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	var input createTenantRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).
		MaxLen(FieldName, input.Name, 120).
		MaxLen(FieldDomain, input.Domain, 255)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	tenant, err := handler.tenantService.Create(request.Context(), claims.UserID, CreateInput{
		Name:   input.Name,
		Domain: input.Domain,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, tenant)
}

/*
List returns a page of tenants visible to the caller.

GET /api/v1/tenants

Description: Superadmins see the whole directory, including suspended
tenants. Everyone else sees only the tenants they can enter: their home
tenant plus tenants where they hold a role. Backs the tenant switcher.

Request:
  - Query: page, limit

Response:
  - 200: []Tenant: Requested page with pagination metadata
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if claims.Superadmin {
		tenants, total, err := handler.tenantService.List(request.Context(), params)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}
		respond.Paginated(writer, tenants, pagination.NewMeta(params.Page, params.Limit, total))
		return
	}

	tenants, err := handler.tenantService.AvailableFor(request.Context(), claims.UserID, false)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, pageOf(tenants, params), pagination.NewMeta(params.Page, params.Limit, len(tenants)))
}

// pageOf slices an already-loaded tenant list down to the requested page.
// Non-superadmin visibility sets are small, so paging in memory is fine.
func pageOf(tenants []*Tenant, params pagination.Params) []*Tenant {
	start := params.Offset()
	if start >= len(tenants) {
		return []*Tenant{}
	}

	end := start + params.Limit
	if end > len(tenants) {
		end = len(tenants)
	}

	return tenants[start:end]
}

/*
Update applies partial changes to a tenant.

PATCH /api/v1/tenants/{tenantID}

Description: Renames, re-domains, or suspends a tenant. Suspension is
enforced on the next authorization decision of every user in the tenant.

Request:
  - Body: updateTenantRequest (Name, Domain, IsActive; all optional)

Response:
  - 200: Tenant: Updated tenant
  - 404: ErrNotFound: Unknown tenant
  - 409: ErrConflict: Name or domain already taken
*/
func (handler *Handler) update(writer http.ResponseWriter, request *http.Request) {
	tenantID := requestutil.ID(request, "tenantID")

	var input updateTenantRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	if input.Name != nil {
		validator.Required(FieldName, *input.Name).MaxLen(FieldName, *input.Name, 120)
	}
	if input.Domain != nil {
		validator.MaxLen(FieldDomain, *input.Domain, 255)
	}

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	claims, err := requestutil.RequiredClaims(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	tenant, err := handler.tenantService.Update(request.Context(), claims.UserID, tenantID, UpdateInput{
		Name:     input.Name,
		Domain:   input.Domain,
		IsActive: input.IsActive,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, tenant)
}

/*
Get returns the caller's active tenant.

GET /api/v1/tenants/{tenantID}

Description: Tenant members may read the tenant they are currently scoped
to. The path ID must match the X-Tenant-ID scope established by the guard.

Response:
  - 200: Tenant: Requested tenant
  - 403: ErrTenantMismatch: Path does not match the active tenant scope
  - 404: ErrNotFound: Unknown tenant
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if requestutil.ID(request, "tenantID") != tenantID {
		respond.Error(writer, request, apperr.TenantMismatch("Access to the requested tenant is denied"))
		return
	}

	tenant, err := handler.tenantService.Get(request.Context(), tenantID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, tenant)
}
