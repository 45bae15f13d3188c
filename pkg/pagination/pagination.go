// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

// Package pagination is the shared paging vocabulary for list endpoints.
//
// # Overview
//
// Every listing in the API (users, tenants, roles, audit entries) speaks the
// same dialect: ?page and ?limit in, a meta block out. Handlers parse with
// [FromRequest], stores turn [Params] into LIMIT/OFFSET, and responses attach
// [Meta] so consoles can render page controls without counting rows.
package pagination

import (
	"math"
	"net/http"
	"strconv"
)

const (
	// DefaultLimit is the page size when the client does not ask for one.
	DefaultLimit = 20

	// MaxLimit caps the page size. Larger exports go through repeated pages,
	// not one unbounded query.
	MaxLimit = 100

	// DefaultPage is the first page. Pages are 1-indexed.
	DefaultPage = 1
)

// Params is a sanitized page request. Values coming out of [FromRequest] are
// always within bounds, so stores can interpolate them without re-checking.
type Params struct {
	Page  int
	Limit int
}

// Offset returns the row offset for a SQL OFFSET clause.
func (params Params) Offset() int {
	if params.Page <= 1 {
		return 0
	}
	return (params.Page - 1) * params.Limit
}

// Meta is the paging block attached to list responses.
type Meta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewMeta builds the paging block for a response, deriving TotalPages from
// the total row count and the page size.
func NewMeta(page, limit, total int) Meta {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return Meta{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// FromRequest reads "page" and "limit" from the query string.
//
// # Clamping
//
// Missing, malformed, or out-of-range values fall back to [DefaultPage] and
// [DefaultLimit]. A limit above [MaxLimit] counts as out of range: asking for
// 5000 rows gets the default page size, not the maximum.
func FromRequest(request *http.Request) Params {
	query := request.URL.Query()

	return Params{
		Page:  intWithin(query.Get("page"), 1, math.MaxInt, DefaultPage),
		Limit: intWithin(query.Get("limit"), 1, MaxLimit, DefaultLimit),
	}
}

// intWithin parses raw and returns fallback unless lower <= n <= upper.
func intWithin(raw string, lower, upper, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < lower || n > upper {
		return fallback
	}
	return n
}
