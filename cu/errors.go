// Package cu structured error types for resource and launch failures.
package cu

import (
	"errors"
	"fmt"
)

// ErrorType categorizes runtime errors. Memory, Execution and Device
// errors are resource failures and fatal to a run; InvalidArg errors are
// caller contract violations caught before any kernel executes.
type ErrorType int

const (
	ErrTypeMemory ErrorType = iota
	ErrTypeInvalidArg
	ErrTypeExecution
	ErrTypeDevice
)

// String returns the error type as a string.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeMemory:
		return "Memory"
	case ErrTypeInvalidArg:
		return "InvalidArgument"
	case ErrTypeExecution:
		return "Execution"
	case ErrTypeDevice:
		return "Device"
	default:
		return "Unknown"
	}
}

// Error is a structured runtime error carrying the failed operation and
// an optional underlying cause.
type Error struct {
	Type    ErrorType
	Op      string      // Operation that failed
	Message string      // Human-readable message
	Err     error       // Underlying error if any
	Context interface{} // Additional context, e.g. a recovered panic value
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cu %s error in %s: %s (caused by: %v)",
			e.Type.String(), e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("cu %s error in %s: %s", e.Type.String(), e.Op, e.Message)
}

// Unwrap allows error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewMemoryError creates a memory-related error.
func NewMemoryError(op, message string, err error) error {
	return &Error{Type: ErrTypeMemory, Op: op, Message: message, Err: err}
}

// NewInvalidArgError creates an invalid argument error.
func NewInvalidArgError(op, message string) error {
	return &Error{Type: ErrTypeInvalidArg, Op: op, Message: message}
}

// NewExecutionError creates an execution error.
func NewExecutionError(op, message string, err error) error {
	return &Error{Type: ErrTypeExecution, Op: op, Message: message, Err: err}
}

// NewDeviceError creates a device error.
func NewDeviceError(op, message string, err error) error {
	return &Error{Type: ErrTypeDevice, Op: op, Message: message, Err: err}
}

// Common pre-defined errors

var (
	// ErrInvalidSize indicates a non-positive allocation size.
	ErrInvalidSize = NewInvalidArgError("Malloc", "size must be positive")

	// ErrDoubleFree indicates a double free attempt.
	ErrDoubleFree = NewMemoryError("Free", "double free detected", nil)

	// ErrInvalidDevice indicates an invalid device ID.
	ErrInvalidDevice = NewInvalidArgError("SetDevice", "invalid device ID")
)

// IsMemoryError checks if an error is a memory error.
func IsMemoryError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrTypeMemory
	}
	return false
}

// IsInvalidArgError checks if an error is an invalid argument error.
func IsInvalidArgError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrTypeInvalidArg
	}
	return false
}

// IsExecutionError checks if an error is an execution error.
func IsExecutionError(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == ErrTypeExecution
	}
	return false
}
