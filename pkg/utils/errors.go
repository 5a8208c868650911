package utils

import (
	"fmt"
	"net/http"
)

// AppError is the error body of a failed API response.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func NewAppError(code string, message string, details ...string) *AppError {
	err := &AppError{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		err.Details = details[0]
	}
	return err
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Status is the HTTP status an error code is answered with.
func (e *AppError) Status() int {
	if status, ok := codeStatus[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeInvalidCard  = "INVALID_CARD"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeCanceled     = "ANALYSIS_CANCELED"
	ErrCodeAnalysis     = "ANALYSIS_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// StatusClientClosedRequest is nginx's non-standard code for a client that
// disconnected before the answer was ready.
const StatusClientClosedRequest = 499

var codeStatus = map[string]int{
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeInvalidCard:  http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeRateLimited:  http.StatusTooManyRequests,
	ErrCodeCanceled:     StatusClientClosedRequest,
	ErrCodeAnalysis:     http.StatusBadGateway,
	ErrCodeInternal:     http.StatusInternalServerError,
}
