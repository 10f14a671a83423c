package component

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrNotRendered is returned by element access before Render completed
	// or after Destructor.
	ErrNotRendered = errors.New("component: not rendered")

	// ErrElementNotFound means no element in the component's subtree
	// carries the requested logical name.
	ErrElementNotFound = errors.New("component: element not found")

	// ErrAlreadyRendered is returned by a second Render without an
	// intervening Destructor.
	ErrAlreadyRendered = errors.New("component: already rendered")

	// ErrMissingField is wrapped by FieldError.
	ErrMissingField = errors.New("component: missing required field")

	// ErrNilParent is returned when rendering into a nil element.
	ErrNilParent = errors.New("component: nil parent element")

	// ErrNoTemplate is returned when Render runs without a template.
	ErrNoTemplate = errors.New("component: no template")
)

// FieldError reports a required input field that was absent.
type FieldError struct {
	Field string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("component: missing required field %q", e.Field)
}

// Unwrap returns ErrMissingField.
func (e *FieldError) Unwrap() error {
	return ErrMissingField
}

// Require returns a *FieldError for field unless ok is true.
func Require(field string, ok bool) error {
	if ok {
		return nil
	}
	return &FieldError{Field: field}
}

// ElementError names the logical element a lookup failed for.
type ElementError struct {
	Name string
	Err  error
}

// Error implements the error interface.
func (e *ElementError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Name)
}

// Unwrap returns the underlying error.
func (e *ElementError) Unwrap() error {
	return e.Err
}
