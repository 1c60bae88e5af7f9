package services

import (
	"errors"
	"fmt"

	"project-tracker/backend/internal/repositories"
	"project-tracker/backend/internal/session"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = repositories.ErrDuplicateEmail
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = repositories.ErrNotFound
	ErrUnauthenticated    = session.ErrInvalidSession
	ErrInvalidReference   = repositories.ErrInvalidReference
	ErrForbidden          = errors.New("forbidden")
	ErrStorage            = repositories.ErrStorage
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ErrorCode is the stable machine-readable name of a service error.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrInvalidReference):
		return "invalid_reference"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	default:
		return "storage_error"
	}
}

// isUnexpected reports errors that are not part of an operation's contract
// and deserve a log line.
func isUnexpected(err error) bool {
	return err != nil && ErrorCode(err) == "storage_error"
}
