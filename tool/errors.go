package tool

import (
	"errors"
	"fmt"
)

// ErrorCode classifies every failure a tool call or sub-task can surface.
type ErrorCode string

const (
	// CodeValidation marks malformed input: missing or mistyped arguments,
	// unknown tool names, unroutable queries.
	CodeValidation ErrorCode = "validation_error"
	// CodeNotFound marks a referenced entity that does not exist.
	CodeNotFound ErrorCode = "not_found"
	// CodeConflict marks a write rejected by the store's integrity rules.
	CodeConflict ErrorCode = "conflict"
	// CodeInternal marks executor and transport failures.
	CodeInternal ErrorCode = "internal"
	// CodeUnreachable marks a specialist endpoint that could not be reached.
	CodeUnreachable ErrorCode = "unreachable"
)

// Error is the typed error carried inside results and task failure messages.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds a typed error in the manner of fmt.Errorf.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError normalizes any error to the taxonomy. Typed errors pass through,
// everything else becomes an internal error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return &Error{Code: CodeInternal, Message: err.Error()}
}

// CodeOf reports the taxonomy code of err, or CodeInternal for untyped errors.
func CodeOf(err error) ErrorCode {
	return AsError(err).Code
}
