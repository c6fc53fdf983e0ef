package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, notifier ReloadNotifier, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, notifier)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Context resolution.
	r.Get("/context", h.GetContext)

	// Corpus browsing.
	r.Get("/operations", h.ListOperations)
	r.Get("/documents", h.ListDocuments)
	r.Get("/documents/{docID}", h.GetDocument)

	// Graph.
	r.Get("/graph", h.Graph)

	// Diagnostics and rebuild.
	r.Get("/diagnostics", h.Diagnostics)
	r.Post("/reload", h.Reload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
