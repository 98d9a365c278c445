// Package apierror defines the error body written by every handler.
package apierror

import (
	"encoding/json"
	"net/http"
	"sort"
)

// Error is an API failure with its HTTP status.
type Error struct {
	StatusCode int          `json:"-"`
	Code       string       `json:"code"`
	Message    string       `json:"message"`
	Details    []FieldError `json:"details,omitempty"`
}

// FieldError names one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Write sends {"success": false, "error": e} with e's status.
func (e *Error) Write(w http.ResponseWriter) {
	body, _ := json.Marshal(struct {
		Success bool   `json:"success"`
		Error   *Error `json:"error"`
	}{false, e})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_, _ = w.Write(body)
}

// FieldErrors converts a field -> message map into details sorted by field.
func FieldErrors(m map[string]string) []FieldError {
	out := make([]FieldError, 0, len(m))
	for field, msg := range m {
		out = append(out, FieldError{Field: field, Message: msg})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

func newError(status int, code, message, fallback string) *Error {
	if message == "" {
		message = fallback
	}
	return &Error{StatusCode: status, Code: code, Message: message}
}

// BadRequest is a 400.
func BadRequest(message string) *Error {
	return newError(http.StatusBadRequest, "BAD_REQUEST", message, "Malformed request")
}

// Unauthorized is a 401.
func Unauthorized(message string) *Error {
	return newError(http.StatusUnauthorized, "UNAUTHORIZED", message, "Authentication required")
}

// Forbidden is a 403.
func Forbidden(message string) *Error {
	return newError(http.StatusForbidden, "FORBIDDEN", message, "Access denied")
}

// NotFound is a 404.
func NotFound(message string) *Error {
	return newError(http.StatusNotFound, "NOT_FOUND", message, "Resource not found")
}

// Conflict is a 409.
func Conflict(message string) *Error {
	return newError(http.StatusConflict, "CONFLICT", message, "Request conflicts with current state")
}

// PayloadTooLarge is a 413.
func PayloadTooLarge(message string) *Error {
	return newError(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", message, "Request body too large")
}

// ValidationError is a 422 carrying per-field details.
func ValidationError(message string, details ...FieldError) *Error {
	e := newError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, "Validation failed")
	e.Details = details
	return e
}

// Unprocessable is a 422 for a well-formed request the current data cannot
// satisfy. code identifies the condition to clients.
func Unprocessable(code, message string) *Error {
	return newError(http.StatusUnprocessableEntity, code, message, "Request cannot be processed")
}

// TooManyRequests is a 429.
func TooManyRequests(message string) *Error {
	return newError(http.StatusTooManyRequests, "RATE_LIMITED", message, "Too many requests")
}

// InternalError is a 500.
func InternalError(message string) *Error {
	return newError(http.StatusInternalServerError, "INTERNAL_ERROR", message, "An unexpected error occurred")
}

// BadGateway is a 502 for a failed upstream call.
func BadGateway(message string) *Error {
	return newError(http.StatusBadGateway, "UPSTREAM_ERROR", message, "Upstream request failed")
}

// ServiceUnavailable is a 503.
func ServiceUnavailable(message string) *Error {
	return newError(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", message, "Service temporarily unavailable")
}
