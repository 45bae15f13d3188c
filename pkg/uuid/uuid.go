// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package uuid issues the primary keys for every record in the platform.

All IDs are UUID version 7: random enough to be unguessable in URLs, yet
time-ordered so PostgreSQL B-tree indexes append instead of fragmenting.
Tenants, accounts, sessions, roles, and audit entries all share this one
ID shape, which keeps the stores and the API surface uniform.

The creation timestamp embedded in a v7 ID is an implementation detail.
Nothing may parse it back out; CreatedAt columns remain the source of truth.
*/
package uuid

import "github.com/google/uuid"

// New returns a fresh UUIDv7 as its canonical string form.
//
// Generation only fails when the OS entropy source does, which is not a
// condition request handlers can meaningfully recover from, so it panics.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuid: entropy source failed: " + err.Error())
	}

	return id.String()
}
