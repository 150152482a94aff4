package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("Invalid Credentials")
	// ErrUnauthorized is returned when an operation needs an authenticated caller.
	ErrUnauthorized = errors.New("No token, authorization denied")
	// ErrInvalidToken is returned when a token is malformed, expired or revoked.
	ErrInvalidToken = errors.New("Token is not valid")
	// ErrForbidden is returned when the caller may not perform the action.
	ErrForbidden = errors.New("Access denied")
	// ErrNotFound is returned when an id does not resolve to a record.
	ErrNotFound = errors.New("Not found")
	// ErrConflict is returned when a unique field is already taken.
	ErrConflict = errors.New("Already exists")
	// ErrValidation is returned for malformed or missing input.
	ErrValidation = errors.New("Invalid input")
)

// Error carries a client-facing message on top of one of the sentinel kinds.
// errors.Is(err, ErrNotFound) keeps working through it.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel kind.
func (e *Error) Unwrap() error {
	return e.Kind
}

// New returns an error of the given kind with a specific message.
func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf is New with formatting.
func Newf(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation returns a validation error with the given message.
func Validation(message string) *Error {
	return New(ErrValidation, message)
}

// Forbidden returns a forbidden error with the given message.
func Forbidden(message string) *Error {
	return New(ErrForbidden, message)
}

// NotFound returns a not-found error for the named resource, e.g. "Grievance not found".
func NotFound(resource string) *Error {
	return New(ErrNotFound, resource+" not found")
}

// Conflict returns a conflict error with the given message.
func Conflict(message string) *Error {
	return New(ErrConflict, message)
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Msg  string `json:"msg"`
	Code string `json:"code,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Msg:  e.Message,
		Code: e.Code,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
// Conflicts are reported as 400 like any other rejected input.
func MapErrorToHTTP(err error) *HTTPError {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthorized):
		return NewHTTPError(http.StatusUnauthorized, message(err), "UNAUTHORIZED")
	case errors.Is(err, ErrInvalidToken):
		return NewHTTPError(http.StatusUnauthorized, message(err), "INVALID_TOKEN")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, message(err), "FORBIDDEN")
	case errors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, message(err), "NOT_FOUND")
	case errors.Is(err, ErrConflict):
		return NewHTTPError(http.StatusBadRequest, message(err), "CONFLICT")
	case errors.Is(err, ErrValidation):
		return NewHTTPError(http.StatusBadRequest, message(err), "VALIDATION_ERROR")
	default:
		return NewHTTPError(http.StatusInternalServerError, "Server Error", "INTERNAL_ERROR")
	}
}

// message prefers the most specific client-facing text in the chain.
func message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}
