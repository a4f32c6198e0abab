// Package apperr defines the error taxonomy shared by stores, the board and
// sprint components, and the HTTP features.
//
// Callers test with errors.Is against the sentinels. CapacityError and
// ValidationError carry details and match their sentinel through Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrDuplicateName = errors.New("you already lead a team with this name")
	ErrAlreadyMember = errors.New("already a member")
	ErrAlreadyLeader = errors.New("you are already the leader of this team")
	ErrCapacity      = errors.New("board capacity reached")
	ErrCrossTeam     = errors.New("task belongs to a different team")
	ErrValidation    = errors.New("validation failed")
	ErrTooMany       = errors.New("too many attempts, try again later")
)

// NotFound wraps ErrNotFound with the kind of entity that is missing.
func NotFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// CapacityError reports a denied board admission.
type CapacityError struct {
	Count int64
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("board capacity reached (%d/%d)", e.Count, e.Limit)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacity }

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + " " + e.Msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid returns a ValidationError for field.
func Invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

// HTTPStatus maps err onto the status code a handler should answer with.
// Unknown errors are internal.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict),
		errors.Is(err, ErrDuplicateName),
		errors.Is(err, ErrAlreadyMember),
		errors.Is(err, ErrAlreadyLeader),
		errors.Is(err, ErrCapacity),
		errors.Is(err, ErrCrossTeam):
		return http.StatusConflict
	case errors.Is(err, ErrTooMany):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Public reports whether err belongs to the taxonomy and may be shown to the caller.
func Public(err error) bool {
	return HTTPStatus(err) != http.StatusInternalServerError
}
