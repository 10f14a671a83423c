package model

import (
	"errors"
	"fmt"
)

var (
	// ErrServer is any response with status above 499.
	ErrServer = errors.New("model: server error")

	// ErrUnauthorized is a 401 or 403 response.
	ErrUnauthorized = errors.New("model: unauthorized")

	// ErrNotFound is a 404 response.
	ErrNotFound = errors.New("model: not found")

	// ErrRequest is any other 4xx response.
	ErrRequest = errors.New("model: request rejected")

	// ErrInvalidRequest is returned before sending when arguments are
	// unusable.
	ErrInvalidRequest = errors.New("model: invalid request")

	// ErrLoginRejected is a login response without a user.
	ErrLoginRejected = errors.New("model: login rejected")
)

// Error describes a failed call. Err is one of the sentinels above or the
// transport error.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("model: %s: %v", e.Op, e.Err)
	}
	if e.Message == "" {
		return fmt.Sprintf("model: %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("model: %s: status %d: %s", e.Op, e.Status, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// classify maps a status code to its sentinel. It returns nil for 2xx.
func classify(status int) error {
	switch {
	case status > 499:
		return ErrServer
	case status == 401 || status == 403:
		return ErrUnauthorized
	case status == 404:
		return ErrNotFound
	case status > 399:
		return ErrRequest
	case status < 200 || status > 299:
		return ErrRequest
	}
	return nil
}

// ErrorText returns the text to show for err: the server's message when
// there is one, a generic line otherwise.
func ErrorText(err error) string {
	var me *Error
	if errors.As(err, &me) && me.Message != "" {
		return me.Message
	}
	switch {
	case errors.Is(err, ErrServer):
		return "Server error"
	case errors.Is(err, ErrUnauthorized):
		return "You have no rights to see this"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	}
	return "Something went wrong"
}
