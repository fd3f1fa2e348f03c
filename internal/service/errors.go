package service

import (
	"errors"
	"fmt"
)

// Errors returned by the service. They are wrapped with details, so
// callers compare with errors.Is.
var (
	// ErrValidation marks a missing or malformed input; nothing was attempted.
	ErrValidation = errors.New("validation error")
	// ErrDuplicateCode marks an asset code already used by another asset.
	ErrDuplicateCode = errors.New("duplicate code")
	// ErrDuplicateName marks a category, employee or username already in use.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrNotFound marks a referenced id that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState marks a failed status precondition.
	ErrInvalidState = errors.New("invalid state")
	// ErrStorage marks a database or file system failure. Any partially
	// applied write has been rolled back.
	ErrStorage = errors.New("storage failure")
	// ErrUnauthorized marks bad login credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks an operation the actor may not perform.
	ErrForbidden = errors.New("forbidden")
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func invalidStateError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

// storageError wraps a repository error. Errors that already carry a
// service sentinel pass through unchanged.
func storageError(op string, err error) error {
	if isServiceError(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func isServiceError(err error) bool {
	for _, target := range []error{
		ErrValidation, ErrDuplicateCode, ErrDuplicateName, ErrNotFound,
		ErrInvalidState, ErrStorage, ErrUnauthorized, ErrForbidden,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
