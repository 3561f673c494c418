package core

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrStoreClosed is returned when trying to use a closed store
	ErrStoreClosed = errors.New("store is closed")

	// ErrUnavailable is returned when the store cannot be opened or initialized.
	// This is fatal to plugin startup.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrWriteFailed is returned when an insert fails at the engine level
	ErrWriteFailed = errors.New("storage write failed")

	// ErrReadFailed is returned when a query-time scan fails, so callers can
	// distinguish "the store is broken" from "nothing found"
	ErrReadFailed = errors.New("storage read failed")
)

// StoreError wraps errors with operation context and a failure kind
type StoreError struct {
	Op   string // Operation name
	Kind error  // One of the sentinel errors above
	Err  error  // Underlying error
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("histindex: %v: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("histindex: %s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Kind, target) || errors.Is(e.Err, target)
}

// wrapError wraps an error with operation context and failure kind
func wrapError(op string, kind, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Kind: kind, Err: err}
}
