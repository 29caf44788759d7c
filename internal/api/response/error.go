// Package response provides standardized HTTP response structures and
// utilities for the API layer.
package response

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorCode represents standardized error codes for the API
type ErrorCode string

const (
	// Client error codes (4xx)
	ErrorCodeBadRequest  ErrorCode = "BAD_REQUEST"
	ErrorCodeNotFound    ErrorCode = "NOT_FOUND"
	ErrorCodeRateLimited ErrorCode = "RATE_LIMITED"

	// Server error codes (5xx)
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error     ErrorDetails `json:"error"`
	Timestamp string       `json:"timestamp"`
	RequestID string       `json:"request_id,omitempty"`
}

// ErrorDetails contains detailed error information
type ErrorDetails struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, code ErrorCode, message string, details ...string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorDetails := ErrorDetails{
		Code:    code,
		Message: message,
	}
	if len(details) > 0 {
		errorDetails.Details = details[0]
	}

	resp := ErrorResponse{
		Error:     errorDetails,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: w.Header().Get("X-Request-ID"),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// WriteJSON writes a JSON payload with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// WriteBadRequest writes a 400 Bad Request error
func WriteBadRequest(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusBadRequest, ErrorCodeBadRequest, message, details...)
}

// WriteNotFound writes a 404 Not Found error
func WriteNotFound(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusNotFound, ErrorCodeNotFound, message, details...)
}

// WriteRateLimited writes a 429 Too Many Requests error
func WriteRateLimited(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusTooManyRequests, ErrorCodeRateLimited, message, details...)
}

// WriteInternalError writes a 500 Internal Server Error
func WriteInternalError(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusInternalServerError, ErrorCodeInternalError, message, details...)
}

// WriteServiceUnavailable writes a 503 Service Unavailable error
func WriteServiceUnavailable(w http.ResponseWriter, message string, details ...string) {
	WriteError(w, http.StatusServiceUnavailable, ErrorCodeServiceUnavailable, message, details...)
}
