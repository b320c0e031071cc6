package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/railspress/themekit/internal/themeservice"
)

// NewRouter creates a chi router with all authoring routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// notify, if non-nil, is called after successful mutations.
func NewRouter(svc *themeservice.Service, authEnabled bool, token string, sseHandler http.Handler, notify Notifier) chi.Router {
	h := NewHandler(svc, notify)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Route("/themes/{theme}", func(r chi.Router) {
		// Draft files.
		r.Get("/files", h.ListFiles)
		r.Get("/files/*", h.GetFile)
		r.Put("/files/*", h.SaveFile)
		r.Delete("/files/*", h.DeleteFile)

		// Version history.
		r.Get("/history/*", h.History)
		r.Post("/restore/*", h.Restore)

		// Template document edits.
		r.Post("/templates/{template}/sections", h.AddSection)
		r.Put("/templates/{template}/sections/{section}", h.UpdateSection)
		r.Delete("/templates/{template}/sections/{section}", h.RemoveSection)
		r.Post("/templates/{template}/order", h.Reorder)

		// Publish pipeline.
		r.Post("/publish", h.Publish)
		r.Post("/rollback", h.Rollback)
		r.Get("/snapshots", h.Snapshots)
	})

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewFrontendRouter creates the unauthenticated visitor-facing router.
func NewFrontendRouter(svc *themeservice.Service) chi.Router {
	fh := NewFrontendHandler(svc)

	r := chi.NewRouter()
	r.Get("/render/{theme}/{template}", fh.RenderPage)
	r.Get("/assets/{theme}/*", fh.Asset)
	return r
}
