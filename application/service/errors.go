package service

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the orchestrator.
var (
	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("tafsir: client is closed")
	// ErrInvalidRequest indicates a request failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrIndexUnavailable indicates the search index is warming up or failed
	// to build.
	ErrIndexUnavailable = errors.New("search index unavailable")
	// ErrExternalService matches every *ExternalServiceError.
	ErrExternalService = errors.New("external service error")
	// ErrNotConfigured indicates no model endpoint is configured for an
	// operation that needs one.
	ErrNotConfigured = errors.New("no model endpoint configured")
)

// ExternalServiceError reports a failed embedding, translation or reflection
// call. Provider retries have already been exhausted when it is returned.
type ExternalServiceError struct {
	Operation string
	Err       error
}

// Error implements error.
func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ExternalServiceError) Unwrap() error { return e.Err }

// Is matches ErrExternalService.
func (e *ExternalServiceError) Is(target error) bool {
	return target == ErrExternalService
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
