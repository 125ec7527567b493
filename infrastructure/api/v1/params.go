// Package v1 implements the version 1 HTTP API routers.
package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/tafsir/application/service"
)

// pathInt parses a required integer URL parameter.
func pathInt(req *http.Request, name string) (int, error) {
	raw := chi.URLParam(req, name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", service.ErrInvalidRequest, name, raw)
	}
	return n, nil
}

// queryInt parses an optional integer query parameter. Missing means zero.
func queryInt(req *http.Request, name string) (int, error) {
	raw := req.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", service.ErrInvalidRequest, name, raw)
	}
	return n, nil
}

func decodeBody(req *http.Request, dst any) error {
	dec := json.NewDecoder(req.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: decode body: %v", service.ErrInvalidRequest, err)
	}
	return nil
}
