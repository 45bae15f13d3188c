// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package tenant implements the tenant directory.

A tenant is the isolation boundary of the platform: every role, grant, cached
permission set, and audit record lives inside exactly one tenant. This package
manages the lifecycle of those boundaries (provisioning, suspension) but never
the authorization logic inside them.
*/
package tenant

import "time"

// # Domain Entities

// Tenant represents one isolated organization on the platform.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// # Field Identifiers

const (
	FieldName   = "name"
	FieldDomain = "domain"
)
