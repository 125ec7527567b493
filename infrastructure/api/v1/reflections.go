package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/tafsir"
	"github.com/helixml/tafsir/application/service"
	"github.com/helixml/tafsir/infrastructure/api/jsonapi"
	"github.com/helixml/tafsir/infrastructure/api/middleware"
	"github.com/helixml/tafsir/infrastructure/api/v1/dto"
)

// ReflectionsRouter handles reflection generation.
type ReflectionsRouter struct {
	client *tafsir.Client
	logger *slog.Logger
}

// NewReflectionsRouter creates a new ReflectionsRouter.
func NewReflectionsRouter(client *tafsir.Client) *ReflectionsRouter {
	return &ReflectionsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for reflection endpoints.
func (r *ReflectionsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Create)

	return router
}

// Create handles POST /api/v1/reflections. Repeated requests for the same
// range and language are served from the cache.
func (r *ReflectionsRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.ReflectionRequest
	if err := decodeBody(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	res, err := r.client.Tafsir.Reflect(req.Context(), service.ReflectRequest{
		Author:   body.Author,
		Surah:    body.Surah,
		FromAyah: body.FromAyah,
		ToAyah:   body.ToAyah,
		Language: body.Language,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteDocument(w, http.StatusOK, jsonapi.NewSingleResponse(jsonapi.ReflectionResource(res)))
}
