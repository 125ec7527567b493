package v1

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/helixml/tafsir"
	"github.com/helixml/tafsir/application/service"
	"github.com/helixml/tafsir/infrastructure/api/jsonapi"
	"github.com/helixml/tafsir/infrastructure/api/middleware"
)

// TafsirRouter handles point lookups.
type TafsirRouter struct {
	client *tafsir.Client
	logger *slog.Logger
}

// NewTafsirRouter creates a new TafsirRouter.
func NewTafsirRouter(client *tafsir.Client) *TafsirRouter {
	return &TafsirRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for tafsir endpoints.
func (r *TafsirRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/{author}/{surah}/{ayah}", r.Get)

	return router
}

// Get handles GET /api/v1/tafsir/{author}/{surah}/{ayah}?language=.
func (r *TafsirRouter) Get(w http.ResponseWriter, req *http.Request) {
	surah, err := pathInt(req, "surah")
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	ayah, err := pathInt(req, "ayah")
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	res, err := r.client.Tafsir.GetPassage(req.Context(), service.PassageRequest{
		Author:   chi.URLParam(req, "author"),
		Surah:    surah,
		Ayah:     ayah,
		Language: req.URL.Query().Get("language"),
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteDocument(w, http.StatusOK, jsonapi.NewSingleResponse(jsonapi.PassageResource(res)))
}
