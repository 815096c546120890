package utils

import (
	"fmt"
	"net/http"
)

// CustomError is an API failure with its HTTP status. Details is sent to
// the caller as is.
type CustomError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Details != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Details)
	}
	return e.Message
}

func NewPayloadTooLargeError() *CustomError {
	return &CustomError{
		Code:    http.StatusRequestEntityTooLarge,
		Message: "Request body too large",
	}
}

func NewInternalServerError(details interface{}) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: "Internal server error",
		Details: details,
	}
}

// NewValidationError carries one message per rejected field
func NewValidationError(details []string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: "Invalid request data",
		Details: details,
	}
}

func NewNoActiveSourcesError() *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: "No active scrapers available for the selected platforms",
	}
}

func NewRateLimitError() *CustomError {
	return &CustomError{
		Code:    http.StatusTooManyRequests,
		Message: "Too many requests, please try again later",
	}
}
