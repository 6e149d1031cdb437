package apperr

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrUnauthenticated indicates a missing or invalid identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates a known identity with no access path, or an exhausted capacity ceiling.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound indicates a resource id that does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("validation")
	// ErrConflict indicates a state-machine precondition violation.
	ErrConflict = errors.New("conflict")
)

// Unauthenticated tags an error as an identity failure.
func Unauthenticated(msg string) error {
	return errors.Join(ErrUnauthenticated, errors.New(strings.TrimSpace(msg)))
}

// Forbidden tags an error as an access denial.
func Forbidden(msg string) error {
	return errors.Join(ErrForbidden, errors.New(strings.TrimSpace(msg)))
}

// NotFound tags an error as a missing resource.
func NotFound(msg string) error {
	return errors.Join(ErrNotFound, errors.New(strings.TrimSpace(msg)))
}

// Validation tags an error as malformed input.
func Validation(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

// Conflict tags an error as a state precondition violation.
func Conflict(msg string) error {
	return errors.Join(ErrConflict, errors.New(strings.TrimSpace(msg)))
}

// Map normalizes infrastructure failures into the taxonomy. Anything it
// does not recognize stays as-is and surfaces as an internal error.
func Map(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrUnauthenticated),
		errors.Is(err, ErrForbidden),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrConflict):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Join(ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(ErrConflict, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return err
}
