package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors for the service layer. Handlers map these onto HTTP
// statuses and machine-readable codes.
var (
	// ErrValidation covers missing or malformed fields, caught before any
	// store access.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned for a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountPending is returned when a pending account attempts to
	// authenticate.
	ErrAccountPending = errors.New("account pending approval")

	// ErrAccountBanned is returned when a banned account attempts to
	// authenticate.
	ErrAccountBanned = errors.New("account banned")

	// ErrPermission is returned when an authenticated actor lacks the role
	// required for an operation.
	ErrPermission = errors.New("permission denied")

	// ErrNotFound is returned when the target incident or user no longer
	// exists.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned for duplicate registration of an identity.
	ErrConflict = errors.New("already exists")

	// ErrTimeout is returned when a store operation exceeds its deadline.
	ErrTimeout = errors.New("operation timed out")
)

// classifyStoreError translates low-level store errors into the service
// taxonomy, preserving the original error for logs via %w call sites.
func classifyStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	default:
		return err
	}
}
