// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

/*
Package pointer removes the boilerplate around optional values.

Update payloads model "field absent" as a nil pointer, so the codebase
constantly lifts literals into pointers and applies pointers over existing
values. These generic helpers keep both directions to a single call.

Key Functions:
  - To: Lifts a value into a pointer, for building partial-update inputs.
  - Fallback: Applies an optional field over the current value.
*/
package pointer

// To returns a pointer to value. Typical use is building an update input
// from literals: Name: pointer.To("Support L2").
func To[T any](value T) *T {
	return &value
}

// Fallback dereferences optional, falling back to current when it is nil.
// Applying a partial update becomes one line per field:
//
//	user.DisplayName = pointer.Fallback(input.DisplayName, user.DisplayName)
func Fallback[T any](optional *T, current T) T {
	if optional == nil {
		return current
	}
	return *optional
}
