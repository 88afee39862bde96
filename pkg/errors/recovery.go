// Package errors provides comprehensive error handling utilities for clusview.
//
// This file contains panic recovery utilities used by the sweep worker pool:
// a panic inside one clustering task becomes a structured error for that
// configuration instead of tearing down the whole batch.

package errors

import (
	"fmt"
	"runtime/debug"

	"github.com/cockroachdb/errors"
)

// PanicError represents an error that was created from a recovered panic.
// It includes the original panic value and stack trace information.
type PanicError struct {
	// PanicValue is the original value passed to panic()
	PanicValue interface{}

	// StackTrace contains the stack trace at the time of panic
	StackTrace string

	// Operation identifies where the panic was recovered
	Operation string
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// String provides detailed information including stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// NewPanicError creates a new PanicError with the given operation context and panic value.
func NewPanicError(operation string, panicValue interface{}) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

// Recover is meant to be deferred with a pointer to the named error result
// of the enclosing function:
//
//	func SomeMethod() (err error) {
//	    defer Recover(&err, "SomeMethod")
//	    // ...
//	}
//
// A panic becomes a *PanicError. If the function had already set an error,
// that error is kept and annotated with the panic value.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = errors.Wrapf(*err, "panic in %s: %v", operation, r)
		return
	}
	*err = NewPanicError(operation, r)
}

// SafeExecute executes a function and recovers from any panic, converting it to an error.
//
//	err := SafeExecute("hdbscan fit", func() error {
//	    return clusterer.Fit(X)
//	})
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}

// SafeValue is SafeExecute for functions that also produce a value.
// On panic the zero value is returned together with a *PanicError.
func SafeValue[T any](operation string, fn func() (T, error)) (value T, err error) {
	defer Recover(&err, operation)
	return fn()
}
