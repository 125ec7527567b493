package api_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/tafsir/infrastructure/api"
	"github.com/helixml/tafsir/internal/testclient"
)

func TestAPIServer_Routes(t *testing.T) {
	client := testclient.New(t, nil)
	handler := api.NewAPIServer(client, "1.0.0").Handler()

	tests := []struct {
		name   string
		method string
		target string
		body   string
		status int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"healthz", http.MethodGet, "/healthz", "", http.StatusOK},
		{"status", http.MethodGet, "/api/v1/status", "", http.StatusOK},
		{"tafsir", http.MethodGet, "/api/v1/tafsir/ibn-katheer/2/1", "", http.StatusOK},
		{"tafsir not found", http.MethodGet, "/api/v1/tafsir/ibn-katheer/3/1", "", http.StatusNotFound},
		{"search", http.MethodGet, "/api/v1/search?query=patience", "", http.StatusOK},
		{"reflections", http.MethodPost, "/api/v1/reflections", `{"author":"al-tabari","surah":2,"from_ayah":1,"to_ayah":3,"language":"ur"}`, http.StatusOK},
		{"translations", http.MethodPost, "/api/v1/translations", `{"text":"sabr","language":"en"}`, http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/repositories", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = httptest.NewRequest(tt.method, tt.target, nil)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code, "body: %s", w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Correlation-ID"))
		})
	}
}

func TestAPIServer_ErrorCarriesCorrelationID(t *testing.T) {
	client := testclient.New(t, nil)
	handler := api.NewAPIServer(client, "1.0.0").Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tafsir/ibn-katheer/2/1?language=xx", nil)
	req.Header.Set("X-Correlation-ID", "trace-7")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var doc struct {
		Errors []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
			Title  string `json:"title"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	require.Len(t, doc.Errors, 1)
	assert.Equal(t, "trace-7", doc.Errors[0].ID)
	assert.Equal(t, "400", doc.Errors[0].Status)
	assert.Equal(t, "Unsupported Language", doc.Errors[0].Title)
}

func TestAPIServer_Health(t *testing.T) {
	client := testclient.New(t, nil)
	handler := api.NewAPIServer(client, "1.0.0").Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestAPIServer_ServeAndShutdown(t *testing.T) {
	client := testclient.New(t, nil)
	apiServer := api.NewAPIServer(client, "1.0.0")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- apiServer.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/v1/status")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, apiServer.Shutdown(ctx))
	require.NoError(t, <-done)
}
