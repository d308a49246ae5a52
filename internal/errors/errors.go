// Package errors provides the domain error taxonomy for the add-on.
//
// Source failures are normally absorbed by the resolver; only relay and input
// validation failures reach a client as explicit statuses.
//
//	if errors.Is(err, errors.ErrParseFailure) {
//	    logger.Warn("feed malformed", "error", err)
//	}
//
//	response.DomainError(w, errors.Forbidden("host not allowed"), logger)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeSourceUnavailable Code = "SOURCE_UNAVAILABLE"
	CodeValidation        Code = "VALIDATION"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeUpstreamRejection Code = "UPSTREAM_REJECTION"
	CodeParseFailure      Code = "PARSE_FAILURE"
	CodeUnsupportedMedia  Code = "UNSUPPORTED_MEDIA"
	CodeBadGateway        Code = "BAD_GATEWAY"
	CodeRateLimited       Code = "RATE_LIMITED"
	CodeInternal          Code = "INTERNAL"
)

// HTTPStatus returns the appropriate HTTP status code for an error code.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case CodeBadGateway, CodeUpstreamRejection:
		return http.StatusBadGateway
	case CodeSourceUnavailable:
		return http.StatusServiceUnavailable
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// HTTPStatus returns the HTTP status code for this error.
func (e *Error) HTTPStatus() int {
	return e.Code.HTTPStatus()
}

// Sentinel errors for use with errors.Is().
var (
	ErrSourceUnavailable = &Error{Code: CodeSourceUnavailable, Message: "source unavailable"}
	ErrValidation        = &Error{Code: CodeValidation, Message: "validation error"}
	ErrForbidden         = &Error{Code: CodeForbidden, Message: "forbidden"}
	ErrNotFound          = &Error{Code: CodeNotFound, Message: "not found"}
	ErrUpstreamRejection = &Error{Code: CodeUpstreamRejection, Message: "upstream rejected request"}
	ErrParseFailure      = &Error{Code: CodeParseFailure, Message: "parse failure"}
	ErrUnsupportedMedia  = &Error{Code: CodeUnsupportedMedia, Message: "unsupported media type"}
	ErrBadGateway        = &Error{Code: CodeBadGateway, Message: "bad gateway"}
	ErrRateLimited       = &Error{Code: CodeRateLimited, Message: "rate limited"}
)

// SourceUnavailable creates a source unavailable error.
func SourceUnavailable(msg string) *Error {
	return &Error{Code: CodeSourceUnavailable, Message: msg}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Forbidden creates a forbidden error.
func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Message: msg}
}

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// UpstreamRejection creates an error for an upstream that answered with an
// unexpected status.
func UpstreamRejection(msg string) *Error {
	return &Error{Code: CodeUpstreamRejection, Message: msg}
}

// RateLimited creates a rate limited error.
func RateLimited(msg string) *Error {
	return &Error{Code: CodeRateLimited, Message: msg}
}

// ParseFailure wraps a malformed-payload error.
func ParseFailure(err error, msg string) *Error {
	return &Error{Code: CodeParseFailure, Message: msg, cause: err}
}

// UnsupportedMedia creates an unsupported media type error.
func UnsupportedMedia(msg string) *Error {
	return &Error{Code: CodeUnsupportedMedia, Message: msg}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}
