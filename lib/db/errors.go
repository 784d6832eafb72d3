package db

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

// ErrCode classifies the errors raised by the dictionaries themselves.
// Errors raised by a backend engine are not wrapped in an *Error and keep their native type.
type ErrCode uint8

const (
	ErrCInvalidArgument         ErrCode = iota + 1 // Blank name, missing connection or formatter
	ErrCUnsupportedKeyType                         // Key type has no ordering or column mapping
	ErrCUnsupportedValueType                       // Value type is not a supported numeric kind
	ErrCNotFound                                   // Get or Increment on an absent key
	ErrCDuplicateKey                               // Add of an existing key
	ErrCUnsupportedStructureKind                   // No backend for the requested dictionary kind
	ErrCTypeMismatch                               // Name already resolved with other types
)

func (c ErrCode) String() string {
	switch c {
	case ErrCInvalidArgument:
		return "InvalidArgument"
	case ErrCUnsupportedKeyType:
		return "UnsupportedKeyType"
	case ErrCUnsupportedValueType:
		return "UnsupportedValueType"
	case ErrCNotFound:
		return "NotFound"
	case ErrCDuplicateKey:
		return "DuplicateKey"
	case ErrCUnsupportedStructureKind:
		return "UnsupportedStructureKind"
	case ErrCTypeMismatch:
		return "TypeMismatch"
	default:
		return "Unknown"
	}
}

// Sentinel errors to compare against with errors.Is
var (
	ErrInvalidArgument          = &Error{Code: ErrCInvalidArgument}
	ErrUnsupportedKeyType       = &Error{Code: ErrCUnsupportedKeyType}
	ErrUnsupportedValueType     = &Error{Code: ErrCUnsupportedValueType}
	ErrNotFound                 = &Error{Code: ErrCNotFound}
	ErrDuplicateKey             = &Error{Code: ErrCDuplicateKey}
	ErrUnsupportedStructureKind = &Error{Code: ErrCUnsupportedStructureKind}
	ErrTypeMismatch             = &Error{Code: ErrCTypeMismatch}
)

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is raised by the dictionaries for contract violations.
// Err optionally carries the native error that caused it (e.g. a primary key violation).
type Error struct {
	Code ErrCode // The error class
	Dict string  // Name of the dictionary, if known
	Op   string  // Operation that failed, if known
	Msg  string  // Additional detail
	Err  error   // Native cause
}

// NewError creates a new *Error for the given dictionary and operation
func NewError(code ErrCode, dict, op, msg string) *Error {
	return &Error{Code: code, Dict: dict, Op: op, Msg: msg}
}

// WrapError creates a new *Error that keeps the native cause reachable through errors.As
func WrapError(code ErrCode, dict, op string, cause error) *Error {
	return &Error{Code: code, Dict: dict, Op: op, Err: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Code.String())
	if e.Dict != "" {
		sb.WriteString(fmt.Sprintf(" (dict %q", e.Dict))
		if e.Op != "" {
			sb.WriteString(", op " + e.Op)
		}
		sb.WriteString(")")
	}
	if e.Msg != "" {
		sb.WriteString(": " + e.Msg)
	}
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	return sb.String()
}

// Is matches any *Error with the same code, so errors.Is(err, ErrNotFound) works
// for errors created with NewError and WrapError.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Unwrap exposes the native cause.
func (e *Error) Unwrap() error {
	return e.Err
}
