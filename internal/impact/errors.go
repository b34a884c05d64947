package impact

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("impact: invalid request: %s", strings.Join(e.Fields, "; "))
}

// NotFoundError reports an unknown competitor or signal.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("impact: %s %q not found", e.Kind, e.ID)
}

// StoreError wraps a failure of an underlying repository.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("impact: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// IsValidation returns true if err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound returns true if err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// HTTPStatus maps an analysis error to an HTTP status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
