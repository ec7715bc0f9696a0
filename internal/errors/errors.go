package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind classifies an expected failure so the transport layer can pick a
// response shape without string matching.
type Kind int

const (
	KindNotFound Kind = iota + 1
	KindUnauthorized
	KindForbidden
	KindValidation
	KindConflict
	KindInternal
)

// Error is the tagged result type returned by core operations for expected
// failures. It is a value to examine, not a panic to recover from.
type Error struct {
	Kind    Kind
	Message string
	Code    string
	// Fields carries field-keyed validation messages so a UI can highlight
	// the offending inputs. Only set for KindValidation.
	Fields map[string][]string
}

func (e *Error) Error() string {
	return e.Message
}

// NotFound reports a referenced entity id that does not resolve.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message, Code: "NOT_FOUND"}
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message, Code: "UNAUTHORIZED"}
}

// Forbidden reports a valid credential whose action the policy engine denied.
func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message, Code: "FORBIDDEN"}
}

// Validation reports structural problems keyed by field name.
func Validation(fields map[string][]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Code: "VALIDATION_ERROR", Fields: fields}
}

// ValidationField is the common single-field case.
func ValidationField(field, message string) *Error {
	return Validation(map[string][]string{field: {message}})
}

// Conflict reports a state-machine or referential guard rejection.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message, Code: "CONFLICT"}
}

// Internal hides an unexpected failure from the caller.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Code: "INTERNAL_ERROR"}
}

// KindOf extracts the Kind from err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ErrorResponse represents a standardized error response body.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string][]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// MapToHTTP maps a tagged error to an HTTP error. Unknown errors collapse
// into a 500 with no internal detail.
func MapToHTTP(err error) *HTTPError {
	var e *Error
	if !stderrors.As(err, &e) {
		return &HTTPError{StatusCode: http.StatusInternalServerError, Message: "internal server error", Code: "INTERNAL_ERROR"}
	}
	status := http.StatusInternalServerError
	switch e.Kind {
	case KindNotFound:
		status = http.StatusNotFound
	case KindUnauthorized:
		status = http.StatusUnauthorized
	case KindForbidden:
		status = http.StatusForbidden
	case KindValidation:
		status = http.StatusBadRequest
	case KindConflict:
		status = http.StatusConflict
	}
	return &HTTPError{StatusCode: status, Message: e.Message, Code: e.Code, Fields: e.Fields}
}
