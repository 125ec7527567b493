package v1

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/tafsir"
	"github.com/helixml/tafsir/infrastructure/api/jsonapi"
	"github.com/helixml/tafsir/infrastructure/api/middleware"
)

// StatusRouter reports index warm-up state.
type StatusRouter struct {
	client *tafsir.Client
}

// NewStatusRouter creates a new StatusRouter.
func NewStatusRouter(client *tafsir.Client) *StatusRouter {
	return &StatusRouter{client: client}
}

// Routes returns the chi router for the status endpoint.
func (r *StatusRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.Get)

	return router
}

// Get handles GET /api/v1/status. It always answers 200; readiness is in
// the body.
func (r *StatusRouter) Get(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteDocument(w, http.StatusOK, jsonapi.NewSingleResponse(jsonapi.StatusResource(r.client.Status())))
}
