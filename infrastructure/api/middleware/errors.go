package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/helixml/tafsir/application/service"
	"github.com/helixml/tafsir/domain/language"
	"github.com/helixml/tafsir/domain/passage"
	"github.com/helixml/tafsir/infrastructure/api/jsonapi"
)

// JSONAPIContentType is the media type for JSON:API documents.
const JSONAPIContentType = "application/vnd.api+json"

// APIError is an error that carries its own HTTP status.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates a new APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// Code returns the HTTP status code.
func (e *APIError) Code() int { return e.code }

// Message returns the client-facing message.
func (e *APIError) Message() string { return e.message }

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error { return e.cause }

// Classify maps an error to an HTTP status and a JSON:API error title.
func Classify(err error) (int, string) {
	var apiErr *APIError
	var extErr *service.ExternalServiceError

	switch {
	case errors.As(err, &apiErr):
		return apiErr.Code(), http.StatusText(apiErr.Code())
	case errors.Is(err, passage.ErrNotFound):
		return http.StatusNotFound, "Not Found"
	case errors.Is(err, language.ErrUnsupported):
		return http.StatusBadRequest, "Unsupported Language"
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "Validation Error"
	case errors.As(err, &extErr):
		return http.StatusBadGateway, "External Service Error"
	case errors.Is(err, service.ErrIndexUnavailable):
		return http.StatusServiceUnavailable, "Index Unavailable"
	case errors.Is(err, service.ErrClientClosed):
		return http.StatusServiceUnavailable, "Service Unavailable"
	default:
		return http.StatusInternalServerError, "Internal Server Error"
	}
}

// WriteError writes a JSON:API error document for err. The error id is the
// request's correlation ID.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status, title := Classify(err)

	detail := err.Error()
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		detail = apiErr.Message()
	}
	if status == http.StatusInternalServerError {
		detail = "internal error"
	}

	correlationID := GetCorrelationID(r.Context())

	if logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request error",
			slog.Int("status", status),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}

	e := jsonapi.NewError(strconv.Itoa(status), title, detail)
	e.ID = correlationID

	w.Header().Set("Content-Type", JSONAPIContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonapi.NewErrorResponse(e))
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteDocument writes a JSON:API document.
func WriteDocument(w http.ResponseWriter, status int, doc *jsonapi.Document) {
	w.Header().Set("Content-Type", JSONAPIContentType)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(doc)
}
