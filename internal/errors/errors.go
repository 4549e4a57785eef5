// Package errors defines the domain error taxonomy shared by repositories,
// the relationship ledger and the HTTP layer.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a domain failure.
type ErrorCode int

const (
	CodeNotFound ErrorCode = iota + 1000
	CodeForbidden
	CodeValidation
	CodeInvalidCredentials
	CodeUnauthenticated
	CodeConflict

	CodeStorageUnavailable
	CodeSuggestionFailure
	CodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case CodeNotFound:
		return "not found"
	case CodeForbidden:
		return "forbidden"
	case CodeValidation:
		return "validation failure"
	case CodeInvalidCredentials:
		return "invalid credentials"
	case CodeUnauthenticated:
		return "unauthenticated"
	case CodeConflict:
		return "conflict"
	case CodeStorageUnavailable:
		return "storage unavailable"
	case CodeSuggestionFailure:
		return "suggestion service failure"
	default:
		return "internal error"
	}
}

// Error is a coded domain error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Sentinels for errors.Is; they compare by code only.
var (
	ErrNotFound           = &Error{Code: CodeNotFound, Message: CodeNotFound.String()}
	ErrForbidden          = &Error{Code: CodeForbidden, Message: CodeForbidden.String()}
	ErrValidation         = &Error{Code: CodeValidation, Message: CodeValidation.String()}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: CodeInvalidCredentials.String()}
	ErrUnauthenticated    = &Error{Code: CodeUnauthenticated, Message: CodeUnauthenticated.String()}
	ErrConflict           = &Error{Code: CodeConflict, Message: CodeConflict.String()}
	ErrStorageUnavailable = &Error{Code: CodeStorageUnavailable, Message: CodeStorageUnavailable.String()}
	ErrSuggestionFailure  = &Error{Code: CodeSuggestionFailure, Message: CodeSuggestionFailure.String()}
)

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a coded error.
func New(code ErrorCode, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code ErrorCode, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(code ErrorCode, message string, err error) error {
	return &Error{Code: code, Message: message, Err: err}
}

// NotFound reports a missing entity, e.g. NotFound("post", slug).
func NotFound(kind, id string) error {
	return Newf(CodeNotFound, "%s %q not found", kind, id)
}

// Forbidden reports an ownership failure.
func Forbidden(message string) error {
	return New(CodeForbidden, message)
}

// Validation reports rejected input.
func Validation(message string) error {
	return New(CodeValidation, message)
}

// Code returns the code of the first *Error in err's chain, CodeInternal otherwise.
func Code(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}
