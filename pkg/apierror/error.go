package apierror

import (
	"encoding/json"
	"errors"
	"net/http"

	"loyalty-wallet/internal/model"
)

// Error represents a structured API error response.
type Error struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// ToJSON converts the error to the envelope written by pkg/response.
func (e *Error) ToJSON() []byte {
	data, _ := json.Marshal(struct {
		Success bool   `json:"success"`
		Error   *Error `json:"error"`
	}{Success: false, Error: e})
	return data
}

func newError(status int, code, message, fallback string) *Error {
	if message == "" {
		message = fallback
	}
	return &Error{StatusCode: status, Code: code, Message: message}
}

// BadRequest creates a 400 Bad Request error.
func BadRequest(message string) *Error {
	return newError(http.StatusBadRequest, "BAD_REQUEST", message, "Bad request")
}

// ValidationError creates a 400 error with validation details.
func ValidationError(message string, details ...FieldError) *Error {
	e := newError(http.StatusBadRequest, "VALIDATION_ERROR", message, "Validation failed")
	e.Details = details
	return e
}

// Unauthorized creates a 401 Unauthorized error.
func Unauthorized(message string) *Error {
	return newError(http.StatusUnauthorized, "UNAUTHORIZED", message, "Authentication required")
}

// NotFound creates a 404 Not Found error.
func NotFound(message string) *Error {
	return newError(http.StatusNotFound, "NOT_FOUND", message, "Resource not found")
}

// Conflict creates a 409 Conflict error.
func Conflict(message string) *Error {
	return newError(http.StatusConflict, "CONFLICT", message, "Conflict")
}

// InternalError creates a 500 Internal Server Error.
func InternalError(message string) *Error {
	return newError(http.StatusInternalServerError, "INTERNAL_ERROR", message, "An unexpected error occurred")
}

// BadGateway creates a 502 error for a failing remote store.
func BadGateway(message string) *Error {
	return newError(http.StatusBadGateway, "REMOTE_ERROR", message, "Remote store unavailable")
}

// ServiceUnavailable creates a 503 Service Unavailable error.
func ServiceUnavailable(message string) *Error {
	return newError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message, "Service temporarily unavailable")
}

// FromDomain converts a domain error into an API error.
// Errors that are already *Error are returned unchanged.
func FromDomain(err error) *Error {
	var (
		apiErr  *Error
		valErr  *model.ValidationError
		authErr *model.AuthError
		remErr  *model.RemoteError
		capErr  *model.CaptureError
	)
	switch {
	case err == nil:
		return nil
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &valErr):
		return ValidationError(valErr.Error(), FieldError{Field: valErr.Field, Message: valErr.Message})
	case errors.As(err, &authErr):
		return Unauthorized(authErr.Error())
	case errors.As(err, &remErr):
		return BadGateway(remErr.Error())
	case errors.As(err, &capErr):
		return BadRequest(capErr.Error())
	case errors.Is(err, model.ErrNotFound):
		return NotFound(err.Error())
	case errors.Is(err, model.ErrSyncInProgress):
		return Conflict(err.Error())
	case errors.Is(err, model.ErrSyncDisabled):
		return ServiceUnavailable(err.Error())
	default:
		return InternalError("")
	}
}
