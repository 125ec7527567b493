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

// TranslationsRouter handles free-text translation.
type TranslationsRouter struct {
	client *tafsir.Client
	logger *slog.Logger
}

// NewTranslationsRouter creates a new TranslationsRouter.
func NewTranslationsRouter(client *tafsir.Client) *TranslationsRouter {
	return &TranslationsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for translation endpoints.
func (r *TranslationsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Create)

	return router
}

// Create handles POST /api/v1/translations.
func (r *TranslationsRouter) Create(w http.ResponseWriter, req *http.Request) {
	var body dto.TranslationRequest
	if err := decodeBody(req, &body); err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	res, err := r.client.Tafsir.Translate(req.Context(), service.TranslateRequest{
		Text:     body.Text,
		Language: body.Language,
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteDocument(w, http.StatusOK, jsonapi.NewSingleResponse(jsonapi.TranslationResource(body.Text, res)))
}
