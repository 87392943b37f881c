package errors

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrNotFound         = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrInternal         = New(http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
)

// ToAPIError maps domain errors onto the HTTP error surface. Unknown errors
// become an internal error with the original message attached as a detail.
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var (
		noMatch  *NoMatchError
		arity    *ArityMismatchError
		dupLabel *DuplicateLabelError
		nonPos   *NonPositiveLogValueError
		unit     *UnitMismatchError
		appErr   *AppError
	)
	switch {
	case errors.As(err, &noMatch):
		return New(http.StatusUnprocessableEntity, string(ErrTypeNoMatch), noMatch.Error())
	case errors.As(err, &arity):
		return New(http.StatusBadRequest, string(ErrTypeArityMismatch), arity.Error())
	case errors.As(err, &dupLabel):
		return New(http.StatusConflict, string(ErrTypeDuplicateLabel), dupLabel.Error())
	case errors.As(err, &nonPos):
		return New(http.StatusUnprocessableEntity, string(ErrTypeNonPositiveLog), nonPos.Error())
	case errors.As(err, &unit):
		return New(http.StatusUnprocessableEntity, string(ErrTypeUnitMismatch), unit.Error())
	case errors.As(err, &appErr):
		return New(http.StatusBadRequest, string(appErr.Type), appErr.Message)
	default:
		return NewWithDetails(http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", err.Error())
	}
}
