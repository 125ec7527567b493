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

// SearchRouter handles topic search.
type SearchRouter struct {
	client *tafsir.Client
	logger *slog.Logger
}

// NewSearchRouter creates a new SearchRouter.
func NewSearchRouter(client *tafsir.Client) *SearchRouter {
	return &SearchRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for search endpoints.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", r.Search)

	return router
}

// Search handles GET /api/v1/search?query=&query_language=&top_k=&author=&surah=&language=.
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	topK, err := queryInt(req, "top_k")
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}
	surah, err := queryInt(req, "surah")
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	res, err := r.client.Tafsir.SearchTopic(req.Context(), service.SearchRequest{
		Query:         q.Get("query"),
		QueryLanguage: q.Get("query_language"),
		TopK:          topK,
		Author:        q.Get("author"),
		Surah:         surah,
		Language:      q.Get("language"),
	})
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteDocument(w, http.StatusOK, jsonapi.SearchDocument(res))
}
