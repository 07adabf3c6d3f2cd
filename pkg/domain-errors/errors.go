// Package domainerrors defines the typed error vocabulary shared by services,
// stores, and transport. Every error carries a Code that transport maps to a
// status; the Message is safe to show to callers unless the code is internal.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	CodeValidation         Code = "validation_error"
	CodeBadRequest         Code = "bad_request"
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeRateLimited        Code = "rate_limit_exceeded"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
	CodeInternal           Code = "internal_error"
)

// Error is the concrete domain error.
type Error struct {
	Code    Code
	Message string
	// Details holds an itemized list of problems, e.g. every violated validation rule.
	Details []string
	// RetryAfter is the number of seconds a rate-limited caller should wait.
	RetryAfter int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// Validation builds a validation error listing every violated rule.
func Validation(msg string, details []string) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: append([]string(nil), details...)}
}

// RateLimited builds the "too many requests" signal.
func RateLimited(retryAfterSeconds int) *Error {
	if retryAfterSeconds < 0 {
		retryAfterSeconds = 0
	}
	return &Error{
		Code:       CodeRateLimited,
		Message:    "too many requests",
		RetryAfter: retryAfterSeconds,
	}
}

// As extracts the first *Error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Is reports whether the first domain error in the chain carries code.
func Is(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// HasCode reports whether any domain error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// CodeOf returns the code of the first domain error, or CodeInternal.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvariantViolation:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
