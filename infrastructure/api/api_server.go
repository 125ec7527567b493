package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/helixml/tafsir"
	apimiddleware "github.com/helixml/tafsir/infrastructure/api/middleware"
	v1 "github.com/helixml/tafsir/infrastructure/api/v1"
	"github.com/helixml/tafsir/infrastructure/api/v1/dto"
	mcpinternal "github.com/helixml/tafsir/internal/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RequestTimeout bounds every /api/v1 request. Reflection is the slowest
// route; it waits on one bounded model call.
const RequestTimeout = 90 * time.Second

// APIServer provides an HTTP API backed by a tafsir Client.
type APIServer struct {
	client  *tafsir.Client
	version string
	server  *Server
	logger  *slog.Logger
	mu      sync.Mutex
}

// NewAPIServer creates a new APIServer wired to the given Client. version is
// reported by the MCP endpoint.
func NewAPIServer(client *tafsir.Client, version string) *APIServer {
	return &APIServer{
		client:  client,
		version: version,
		logger:  client.Logger(),
	}
}

// mountRoutes wires up the health, v1 and MCP routes on the given router.
func (a *APIServer) mountRoutes(router chi.Router) {
	c := a.client

	router.Get("/health", health)
	router.Get("/healthz", health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(chimiddleware.Timeout(RequestTimeout))

		r.Mount("/tafsir", v1.NewTafsirRouter(c).Routes())
		r.Mount("/search", v1.NewSearchRouter(c).Routes())
		r.Mount("/reflections", v1.NewReflectionsRouter(c).Routes())
		r.Mount("/translations", v1.NewTranslationsRouter(c).Routes())
		r.Mount("/status", v1.NewStatusRouter(c).Routes())
	})

	// No timeout middleware: MCP streams responses and keeps session state in
	// response headers.
	mcpSrv := mcpinternal.NewServer(c.Tafsir, a.version, a.logger)
	router.Mount("/mcp", server.NewStreamableHTTPServer(mcpSrv.MCPServer()))
}

func health(w http.ResponseWriter, _ *http.Request) {
	apimiddleware.WriteJSON(w, http.StatusOK, dto.HealthResponse{Status: "healthy"})
}

// HTTPServer builds the fully wired Server for addr. Shutdown stops the most
// recently built one.
func (a *APIServer) HTTPServer(addr string) *Server {
	srv := NewServer(addr, a.client.Config().CORSAllowedOrigins(), a.logger)
	a.mountRoutes(srv.Router())
	a.mu.Lock()
	a.server = srv
	a.mu.Unlock()
	return srv
}

// Serve starts the HTTP server on an existing listener.
func (a *APIServer) Serve(ln net.Listener) error {
	return a.HTTPServer(ln.Addr().String()).Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (a *APIServer) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	srv := a.server
	a.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Handler returns the fully wired router, middleware included, for use with
// custom servers and tests.
func (a *APIServer) Handler() http.Handler {
	srv := NewServer("", a.client.Config().CORSAllowedOrigins(), a.logger)
	a.mountRoutes(srv.Router())
	return srv.Router()
}
