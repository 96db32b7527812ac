package errors

import (
	"errors"
	"net/http"
)

const (
	HttpInternalError         = "internal_error"
	HttpInvalidPayloadError   = "invalid_payload"
	HttpInvalidQueryError     = "invalid_query"
	HttpNotFoundError         = "not_found"
	HttpStoreUnavailableError = "store_unavailable"
	HttpRateLimitedError      = "rate_limited"
)

// Error taxonomy shared by the write and read paths. Match with errors.Is.
var (
	// ErrValidation marks malformed notifications and invalid queries. Nothing is written.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a sensor whose class requires registered device metadata.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable marks append/aggregate failures of the backing store.
	// Never retried by the core.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrPublish marks a failed live broadcast. Logged, never returned to callers.
	ErrPublish = errors.New("publish failed")
)

// ErrorResponse is the JSON error body returned by every HTTP handler.
type ErrorResponse struct {
	ErrorType string      `json:"error_type"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// Classify maps an error onto an HTTP status and error_type. validationType
// distinguishes bad payloads from bad queries.
func Classify(err error, validationType string) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, validationType
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, HttpNotFoundError
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable, HttpStoreUnavailableError
	default:
		return http.StatusInternalServerError, HttpInternalError
	}
}
