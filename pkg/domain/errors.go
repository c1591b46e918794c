package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store
// or its time-to-live has elapsed.
var ErrSessionNotFound = errors.New("session not found")

// ErrMissingSession is returned when a mutation is attempted without a session ID.
var ErrMissingSession = errors.New("missing session id")

// ErrInvalidData is the sentinel wrapped by every ValidationError.
var ErrInvalidData = errors.New("invalid data")

// ValidationError reports a client request that lacks a required field.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid data: missing %s", e.Field)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidData
}

// ErrProductNotFound is returned when a catalog has no product with the requested ID.
var ErrProductNotFound = errors.New("product not found")
