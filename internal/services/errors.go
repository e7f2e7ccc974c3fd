package services

import (
	"errors"

	"github.com/forneria/shop/internal/validation"
)

var (
	// ErrNotFound maps to a 404 at the handler layer.
	ErrNotFound = errors.New("not found")
	// ErrIntegrity is returned when a delete would orphan dependent rows
	// (protect-on-delete) or a unique constraint is violated.
	ErrIntegrity = errors.New("integrity violation")
)

// ValidationError carries field-level violations for inline form display
// or JSON error details.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string { return "validation failed" }

// NewValidationError wraps non-empty violations; returns nil when the map
// is empty so callers can `if err := ...; err != nil`.
func NewValidationError(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// AsValidation extracts a *ValidationError from err, if present.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
