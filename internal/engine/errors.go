package engine

import (
	"errors"
	"fmt"
)

// Common engine errors
var (
	// ErrEngineNotReady is returned when recognition is requested before
	// an engine handle was successfully constructed.
	ErrEngineNotReady = errors.New("recognition engine is not initialized")

	// ErrEngineFailed is returned when the engine rejects or fails a
	// recognition call.
	ErrEngineFailed = errors.New("recognition failed")

	// ErrUnknownEngine is returned for an unrecognized engine type in
	// the configuration.
	ErrUnknownEngine = errors.New("unknown engine type")

	// ErrMissingCredentials is returned when the vision engine finds no
	// Google Cloud credentials in the environment.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")
)

// Error wraps engine failures with the operation and optional detail.
type Error struct {
	// Op is the operation that failed (e.g. "Recognize", "New").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("engine: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("engine: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewError creates an Error for the given operation.
func NewError(op string, err error, details string) *Error {
	return &Error{Op: op, Err: err, Details: details}
}

// WrapError wraps err as an Error unless it already is one.
func WrapError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var engErr *Error
	if errors.As(err, &engErr) {
		return err
	}
	return NewError(op, err, details)
}
