package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/berkano/internal/blockservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *blockservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Conversion.
	r.Post("/render/{flavor}", h.Render)
	r.Post("/render", h.Render)
	r.Post("/normalize", h.Normalize)

	// Schema inspection.
	r.Get("/types", h.ListContentTypes)
	r.Get("/types/{keyOrAlias}", h.GetContentType)
	r.Get("/datatypes", h.ListDataTypes)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
