// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/minhdang/aegis/internal/platform/request"
	"github.com/minhdang/aegis/internal/platform/respond"
	"github.com/minhdang/aegis/pkg/pagination"
	"github.com/minhdang/aegis/pkg/query"
)

// Handler implements the audit trail HTTP endpoints.
type Handler struct {
	auditService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{auditService: service}
}

// Routes returns a [chi.Router] with the audit endpoints. Authentication,
// tenant isolation, and the audit:read permission gate are mounted by the
// parent router.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.list)
	return router
}

/*
List returns a page of the active tenant's audit trail.

GET /api/v1/audit?page=1&limit=20&actions=role.created,role.deleted

Description: Newest entries first. The optional actions parameter narrows the
page to a comma-separated set of action identifiers.

Response:
  - 200: []Entry with pagination metadata
  - 400: ErrTenantRequired: Missing X-Tenant-ID header
  - 403: ErrPermissionDenied: Caller lacks audit:read
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	tenantID, err := requestutil.RequiredTenantID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	actions := query.StringSlice(request.URL.Query().Get("actions"))

	entries, total, err := handler.auditService.List(request.Context(), tenantID, actions, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, entries, pagination.NewMeta(params.Page, params.Limit, total))
}
