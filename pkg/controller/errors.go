package controller

import "errors"

var (
	// ErrAlreadyActive is returned by a second Activate.
	ErrAlreadyActive = errors.New("controller: already active")

	// ErrDestroyed is returned by operations on a destroyed controller.
	ErrDestroyed = errors.New("controller: destroyed")

	// ErrRequiredBinding is returned by InitHandlers when a required
	// binding matched no element.
	ErrRequiredBinding = errors.New("controller: required binding matched no element")
)
