package api

import (
	"mime"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/railspress/themekit/internal/render"
	"github.com/railspress/themekit/internal/themeservice"
)

// FrontendHandler serves visitor-facing pages and snapshot assets.
type FrontendHandler struct {
	svc *themeservice.Service
}

// NewFrontendHandler creates a handler over the theme service.
func NewFrontendHandler(svc *themeservice.Service) *FrontendHandler {
	return &FrontendHandler{svc: svc}
}

// RenderPage handles GET /render/{theme}/{template}.
// With ?draft=1 it renders the authoring preview from draft state instead
// of the active snapshot.
func (h *FrontendHandler) RenderPage(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	templateName := chi.URLParam(r, "template")

	global := map[string]any{}
	var (
		res *render.Result
		err error
	)
	if r.URL.Query().Get("draft") == "1" {
		res, err = h.svc.PreviewTemplate(r.Context(), theme, templateName, global)
	} else {
		res, err = h.svc.RenderTemplate(r.Context(), theme, templateName, global)
	}
	if err != nil {
		respondError(w, err, "render page")
		return
	}

	// Section errors are observability data, not response failures.
	if len(res.SectionErrors) > 0 {
		for _, se := range res.SectionErrors {
			w.Header().Add("X-Section-Error", se.SectionID)
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(res.HTML))
}

// Asset handles GET /assets/{theme}/*, serving byte blobs from the theme's
// active snapshot. MIME type comes from the file extension.
func (h *FrontendHandler) Asset(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	content, err := h.svc.Asset(r.Context(), theme, path)
	if err != nil {
		respondError(w, err, "serve asset")
		return
	}
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = http.DetectContentType(content)
	}
	w.Header().Set("Content-Type", ct)
	_, _ = w.Write(content)
}
