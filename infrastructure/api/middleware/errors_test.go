package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/helixml/tafsir/application/service"
	"github.com/helixml/tafsir/domain/language"
	"github.com/helixml/tafsir/domain/passage"
	"github.com/helixml/tafsir/infrastructure/api/jsonapi"
	tafsirlog "github.com/helixml/tafsir/internal/log"
)

func TestAPIError(t *testing.T) {
	err := NewAPIError(404, "resource not found", nil)

	if err.Code() != 404 {
		t.Errorf("Code() = %v, want 404", err.Code())
	}
	if err.Message() != "resource not found" {
		t.Errorf("Message() = %v, want 'resource not found'", err.Message())
	}

	expected := "api error 404: resource not found"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestAPIError_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewAPIError(500, "internal error", cause)

	expected := "api error 500: internal error: underlying error"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}

	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"surah not found", fmt.Errorf("lookup: %w", passage.ErrSurahNotFound), http.StatusNotFound},
		{"ayah not found", passage.ErrAyahNotFound, http.StatusNotFound},
		{"unsupported language", fmt.Errorf("%w: %q", language.ErrUnsupported, "xx"), http.StatusBadRequest},
		{"validation", fmt.Errorf("%w: top_k", service.ErrInvalidRequest), http.StatusBadRequest},
		{"external", &service.ExternalServiceError{Operation: "translate", Err: errors.New("boom")}, http.StatusBadGateway},
		{"index unavailable", fmt.Errorf("%w: warming", service.ErrIndexUnavailable), http.StatusServiceUnavailable},
		{"closed", service.ErrClientClosed, http.StatusServiceUnavailable},
		{"api error", NewAPIError(http.StatusTeapot, "tea", nil), http.StatusTeapot},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, title := Classify(tt.err)
			if status != tt.status {
				t.Errorf("Classify() status = %d, want %d", status, tt.status)
			}
			if title == "" {
				t.Error("Classify() title should not be empty")
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	ctx := tafsirlog.WithCorrelationID(context.Background(), "corr-1")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tafsir/x/2/1", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	WriteError(w, req, fmt.Errorf("get passage: %w", passage.ErrSurahNotFound), tafsirlog.Discard())

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != JSONAPIContentType {
		t.Errorf("Content-Type = %q, want %q", ct, JSONAPIContentType)
	}

	var doc jsonapi.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(doc.Errors))
	}
	e := doc.Errors[0]
	if e.Status != "404" || e.ID != "corr-1" || e.Title != "Not Found" {
		t.Errorf("unexpected error object: %+v", e)
	}
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteError(w, req, errors.New("password=hunter2"), nil)

	var doc jsonapi.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Errors[0].Detail != "internal error" {
		t.Errorf("Detail = %q, want internal error", doc.Errors[0].Detail)
	}
}

func TestCorrelationID(t *testing.T) {
	var seen string
	handler := CorrelationID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetCorrelationID(r.Context())
	}))

	t.Run("incoming header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(CorrelationIDHeader, "abc")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if seen != "abc" {
			t.Errorf("context id = %q, want abc", seen)
		}
		if got := w.Header().Get(CorrelationIDHeader); got != "abc" {
			t.Errorf("response header = %q, want abc", got)
		}
	})

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if seen == "" {
			t.Fatal("expected a generated correlation id")
		}
		if got := w.Header().Get(CorrelationIDHeader); got != seen {
			t.Errorf("response header = %q, want %q", got, seen)
		}
	})
}
