package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	tafsirlog "github.com/helixml/tafsir/internal/log"
)

// CorrelationIDHeader carries the correlation ID on requests and responses.
const CorrelationIDHeader = "X-Correlation-ID"

// CorrelationID attaches a correlation ID to the request context and echoes
// it in the response. An incoming header wins, then chi's request ID, then a
// fresh UUID.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = middleware.GetReqID(r.Context())
		}
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(CorrelationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(tafsirlog.WithCorrelationID(r.Context(), id)))
	})
}

// GetCorrelationID returns the request's correlation ID, or "".
func GetCorrelationID(ctx context.Context) string {
	return tafsirlog.CorrelationID(ctx)
}
