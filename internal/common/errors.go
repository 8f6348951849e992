// Package common defines shared constants and sentinel errors used across
// chatgate components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Registration / identity errors.
	ErrDuplicateIdentity   = errors.New("identity already exists")
	ErrAllocationExhausted = errors.New("identifier allocation exhausted")

	// Challenge lifecycle errors.
	ErrChallengeExpired = errors.New("challenge expired")

	// Auth errors (invalid or malformed token, bad credentials,
	// role mismatch).
	ErrInvalidCredential = errors.New("invalid credential")
	ErrTokenMalformed    = errors.New("token malformed")
	ErrTokenExpired      = errors.New("token expired")

	// External chat backend errors.
	ErrBackendUnavailable = errors.New("chat backend unavailable")
)

// DuplicateError reports a uniqueness-constraint violation on a specific
// identity field (username, email, admin_name or external_id). It matches
// ErrDuplicateIdentity under errors.Is so callers can treat all duplicates
// uniformly while still inspecting the field with errors.As.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return "duplicate " + e.Field
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicateIdentity
}
