// Package common defines shared constants and sentinel errors used across
// client and server layers of gophauth. Callers should use errors.Is / errors.As
// to match these values.
package common

import (
	"errors"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")

	// Infrastructure errors. Both surface as 500 and are logged server-side.
	ErrorStoreUnavailable = errors.New("credential store unavailable")
	ErrorConfig           = errors.New("configuration error")

	// Auth errors (invalid, malformed, expired or revoked token).
	ErrInvalidToken = errors.New("invalid token")
)

// ValidationError reports caller input that is missing or malformed.
// Fields lists the offending request fields in declaration order.
type ValidationError struct {
	Fields  []string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// AuthError is a credential or token failure. Message is safe to show to the caller.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Is lets errors.Is(err, ErrorUnauthorized) match any AuthError.
func (e *AuthError) Is(target error) bool {
	return target == ErrorUnauthorized
}

// NewAuthError returns an AuthError with the given client-facing message.
func NewAuthError(msg string) error {
	return &AuthError{Message: msg}
}
