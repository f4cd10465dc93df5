// errors.go - Structured error handling for API responses
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/layermap/backend/internal/geocode"
	"github.com/layermap/backend/internal/logging"
	"github.com/layermap/backend/internal/mapkit"
	"github.com/layermap/backend/internal/pipeline"
	"github.com/layermap/backend/internal/routing"
	"github.com/layermap/backend/internal/storage"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ShowErrorDetails controls whether unexpected errors expose their text.
var ShowErrorDetails = true

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// NewBadGatewayError creates a 502 error for a failed upstream service
func NewBadGatewayError(service string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadGateway,
		Code:    "UPSTREAM_ERROR",
		Message: fmt.Sprintf("%s request failed", service),
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// FromError maps domain errors onto API errors. Unknown errors become 500s.
func FromError(err error) *APIError {
	var (
		apiErr  *APIError
		cfgErr  *mapkit.ConfigurationError
		selErr  *mapkit.SelectionError
		miseErr *pipeline.PipelineMisuseError
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &selErr):
		return NewNotFoundError(selErr.Kind, selErr.Name)
	case errors.As(err, &cfgErr):
		return &APIError{Status: http.StatusBadRequest, Code: "CONFIGURATION_ERROR", Message: cfgErr.Error()}
	case errors.Is(err, storage.ErrNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, geocode.ErrEmptyQuery):
		return NewValidationError("q")
	case errors.Is(err, routing.ErrIncomplete):
		return &APIError{Status: http.StatusBadRequest, Code: "BAD_REQUEST", Message: err.Error()}
	case errors.As(err, &miseErr):
		return NewConflictError(miseErr.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return NewServiceUnavailableError("map loop did not respond in time")
	default:
		return NewInternalError("unexpected error", err)
	}
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var (
		apiErr  *APIError
		httpErr *echo.HTTPError
	)
	switch {
	case errors.As(err, &httpErr):
		apiErr = &APIError{
			Status:  httpErr.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", httpErr.Message),
		}
	default:
		apiErr = FromError(err)
	}

	if apiErr.Status >= http.StatusInternalServerError {
		logging.L().Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
		if !ShowErrorDetails {
			apiErr = &APIError{Status: apiErr.Status, Code: apiErr.Code, Message: apiErr.Message}
		}
	}

	if err := c.JSON(apiErr.Status, apiErr); err != nil {
		logging.L().Warn("writing error response", "err", err)
	}
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
