// Package errs defines the error kinds shared by the ledger components.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced member, record or book does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a duplicate active issuance for a book.
	ErrConflict = errors.New("conflict")
	// ErrStorage signals a persistence failure.
	ErrStorage = errors.New("storage failure")
	// ErrInvalidArgument signals failed input validation.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrRateLimited is returned when a throttled operation is called too often.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Storage wraps a driver error so that it matches ErrStorage while keeping the cause inspectable.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// NotFoundf builds an ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Invalidf builds an ErrInvalidArgument with a formatted message.
func Invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// Kind returns a short machine-readable name for the error kind.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrInvalidArgument):
		return "INVALID_ARGUMENT"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrStorage):
		return "STORAGE"
	default:
		return "INTERNAL"
	}
}
