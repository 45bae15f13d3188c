// Copyright (c) 2026 Aegis. All rights reserved.
// Author: dang.leminh.dev@gmail.com

// Package validate collects field-level input failures into one
// VALIDATION_ERROR instead of rejecting a payload one field at a time.
//
// # Architecture
//
// Handlers chain rules over the decoded payload and call [Validator.Err]
// once. Admin consoles render the details list next to each form field, so
// messages are written for end users, not for logs.
package validate

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/minhdang/aegis/internal/platform/apperr"
)

var (
	// uuidRegex accepts the canonical lowercase form of any UUID version.
	// The platform issues v7, but seeded fixtures may carry v4.
	uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

	// permissionRegex matches the "resource:action" permission format.
	permissionRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*:[a-z][a-z0-9_]*$`)

	// ErrInvalidJSON is what every handler answers when a body fails to decode.
	ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")
)

// Validator accumulates rule failures. The zero value is ready to use; one
// instance serves one request and must not be shared across goroutines.
type Validator struct {
	failures []apperr.FieldError
}

// # Rules

// Required fails when the trimmed value is empty.
func (validator *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		validator.add(field, "This field is required")
	}
	return validator
}

// MaxLen fails when the value exceeds max characters. Counted in runes, so
// multi-byte names are not penalized.
func (validator *Validator) MaxLen(field, value string, max int) *Validator {
	if utf8.RuneCountInString(value) > max {
		validator.add(field, fmt.Sprintf("Maximum %d characters", max))
	}
	return validator
}

// MinLen fails when the value is shorter than min characters. Password
// minimums count runes for the same reason MaxLen does.
func (validator *Validator) MinLen(field, value string, min int) *Validator {
	if utf8.RuneCountInString(value) < min {
		validator.add(field, fmt.Sprintf("Minimum %d characters", min))
	}
	return validator
}

// Email fails when the value does not parse as an RFC 5322 address.
func (validator *Validator) Email(field, value string) *Validator {
	if _, err := mail.ParseAddress(value); err != nil {
		validator.add(field, "Must be a valid email address")
	}
	return validator
}

// UUID fails when the value is not a UUID. Case-insensitive; the stored and
// generated forms are lowercase.
func (validator *Validator) UUID(field, value string) *Validator {
	if !uuidRegex.MatchString(strings.ToLower(value)) {
		validator.add(field, "Must be a valid UUID")
	}
	return validator
}

// Permission fails when the value is not a well-formed permission string.
//
// # Format
//
// Permissions follow "resource:action" (e.g. "roles:create"). The wildcard
// "*" deliberately does not match: it is granted through role records, never
// accepted as client input. Whether a well-formed permission actually exists
// is the service layer's question, not this one's.
func (validator *Validator) Permission(field, value string) *Validator {
	if !permissionRegex.MatchString(value) {
		validator.add(field, "Must follow the resource:action format")
	}
	return validator
}

// # Output

// Err returns a VALIDATION_ERROR carrying every collected failure, or nil
// when all rules passed. Call it exactly once, at the end of the chain.
func (validator *Validator) Err() error {
	if len(validator.failures) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", validator.failures...)
}

// HasErrors reports whether any rule has failed so far. Lets a handler skip
// expensive follow-up checks when the basics are already broken.
func (validator *Validator) HasErrors() bool {
	return len(validator.failures) > 0
}

func (validator *Validator) add(field, message string) {
	validator.failures = append(validator.failures, apperr.FieldError{Field: field, Message: message})
}
