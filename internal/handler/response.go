package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"driveshare/internal/repository"
	"driveshare/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// FieldError is one field-scoped validation fault.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrorResponse carries every field fault found in a submission.
type ValidationErrorResponse struct {
	Error  string       `json:"error"`
	Fields []FieldError `json:"fields"`
}

// respondError sends an error response with the appropriate HTTP status code.
// Validation faults get a field-level breakdown; everything else maps to a
// status via the sentinel error switch.
func respondError(c *gin.Context, err error) {
	var single *service.ValidationError
	if errors.As(err, &single) {
		respondValidation(c, service.ValidationErrors{single})
		return
	}

	var multi service.ValidationErrors
	if errors.As(err, &multi) {
		respondValidation(c, multi)
		return
	}

	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

func respondValidation(c *gin.Context, faults service.ValidationErrors) {
	fields := make([]FieldError, len(faults))
	for i, fault := range faults {
		fields[i] = FieldError{Field: fault.Field, Message: fault.Message}
	}
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Error:  "validation failed",
		Fields: fields,
	})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrHandoffNotStarted):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, service.ErrInvalidBookingID),
		errors.Is(err, service.ErrInvalidCoordinates):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, service.ErrTripAlreadyStarted),
		errors.Is(err, service.ErrTripNotStarted),
		errors.Is(err, service.ErrTripAlreadyEnded),
		errors.Is(err, service.ErrHandoffExpired),
		errors.Is(err, service.ErrHandoffIncomplete),
		errors.Is(err, service.ErrHandoffNotVerified):
		return http.StatusConflict

	// Forbidden errors
	case errors.Is(err, service.ErrBypassDisabled):
		return http.StatusForbidden

	// Contention: the session is mid-mutation, retry shortly.
	case errors.Is(err, service.ErrHandoffBusy):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
