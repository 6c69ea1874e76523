package kdb

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

// RetCode classifies every failure the key core can report.
type RetCode int

const (
	// RetCSuccess is never carried by an Error, it only exists for symmetry with the C return codes
	RetCSuccess RetCode = iota
	// RetCInvalidName is returned when a text does not parse as "<namespace>:/<path>"
	RetCInvalidName
	// RetCNullArgument is returned when a required pointer argument is missing
	RetCNullArgument
	// RetCConversionFailure is returned when a foreign structure cannot be read back
	RetCConversionFailure
	// RetCLocked is returned when a mutation hits a locked part of a key
	RetCLocked
	// RetCInvalidNamespace is returned for namespace values outside the fixed table
	RetCInvalidNamespace
	// RetCInvalidValue is returned when a value has the wrong representation for the operation
	RetCInvalidValue
)

// String returns the name of the return code
func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInvalidName:
		return "InvalidName"
	case RetCNullArgument:
		return "NullArgument"
	case RetCConversionFailure:
		return "ConversionFailure"
	case RetCLocked:
		return "Locked"
	case RetCInvalidNamespace:
		return "InvalidNamespace"
	case RetCInvalidValue:
		return "InvalidValue"
	default:
		return "Unknown"
	}
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error wraps a return code, a message and an optional cause.
// Two errors are considered equal by errors.Is if their codes match, so the
// sentinel values below can be used to test for a class of failure.
type Error struct {
	Code RetCode
	Msg  string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("kdb (code %s): %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("kdb (code %s): %s", e.Code, e.Msg)
}

// Unwrap returns the cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Errorf creates a new Error with a formatted message
func Errorf(code RetCode, format string, args ...interface{}) *Error {
	return NewError(code, fmt.Sprintf(format, args...))
}

// WrapError creates a new Error that carries err as its cause
func WrapError(code RetCode, err error, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
		Err:  err,
	}
}

// Sentinels for errors.Is
var (
	ErrInvalidName       = NewError(RetCInvalidName, "invalid key name")
	ErrNullArgument      = NewError(RetCNullArgument, "required argument is null")
	ErrConversionFailure = NewError(RetCConversionFailure, "foreign structure cannot be converted")
	ErrLocked            = NewError(RetCLocked, "key is locked")
	ErrInvalidNamespace  = NewError(RetCInvalidNamespace, "invalid namespace")
	ErrInvalidValue      = NewError(RetCInvalidValue, "invalid value")
)
