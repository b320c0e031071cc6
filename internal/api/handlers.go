package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/railspress/themekit/internal/apperr"
	"github.com/railspress/themekit/internal/draft"
	"github.com/railspress/themekit/internal/themeservice"
)

const maxBodyBytes = 10 << 20 // 10 MB

// Notifier is called after successful mutations so event streams can fan
// changes out to authoring UIs. kind is one of "saved", "deleted",
// "published", "rolledback".
type Notifier func(kind, themeID, path string)

// Handler holds API route handlers.
type Handler struct {
	svc    *themeservice.Service
	notify Notifier
}

// NewHandler creates a new Handler. notify may be nil.
func NewHandler(svc *themeservice.Service, notify Notifier) *Handler {
	h := &Handler{svc: svc, notify: notify}
	if h.notify == nil {
		h.notify = func(string, string, string) {}
	}
	return h
}

// filePath extracts the theme file path from the URL wildcard.
// Supports encoded slashes from OpenAPI clients (e.g. sections%2Fhero.html).
func filePath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// author reads the acting author from the X-Author header.
func author(r *http.Request) string {
	if a := r.Header.Get("X-Author"); a != "" {
		return a
	}
	return "anonymous"
}

// respondError maps domain errors onto HTTP statuses.
func respondError(w http.ResponseWriter, err error, what string) {
	switch {
	case errors.Is(err, apperr.ErrInvalidPath):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid path"))
	case themeservice.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, errorBody("already exists"))
	case errors.Is(err, apperr.ErrPublishConflict), errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("conflict"))
	default:
		slog.Error(what+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// ListFiles handles GET /api/themes/{theme}/files.
func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	infos, err := h.svc.ListFiles(r.Context(), theme)
	if err != nil {
		respondError(w, err, "list files")
		return
	}
	items := make([]FileListItem, len(infos))
	for i, fi := range infos {
		items[i] = FileListItem{
			Path:      fi.Path,
			Type:      fi.Type,
			Checksum:  fi.Checksum,
			Version:   fi.Version,
			UpdatedAt: fi.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, FileListResponse{Files: items, Total: len(items)})
}

// GetFile handles GET /api/themes/{theme}/files/*.
func (h *Handler) GetFile(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	detail, err := h.svc.GetFile(r.Context(), theme, path)
	if err != nil {
		respondError(w, err, "get file")
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// SaveFile handles PUT /api/themes/{theme}/files/*.
func (h *Handler) SaveFile(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req SaveFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	v, warnings, err := h.svc.SaveFile(r.Context(), theme, path, []byte(req.Content), author(r), req.Summary)
	if err != nil {
		respondError(w, err, "save file")
		return
	}
	h.notify("saved", theme, path)
	writeJSON(w, http.StatusOK, SaveFileResponse{
		Path:     v.Path,
		Version:  v.Version,
		Checksum: v.Checksum,
		Warnings: warnings,
	})
}

// DeleteFile handles DELETE /api/themes/{theme}/files/*.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	if err := h.svc.DeleteFile(r.Context(), theme, path); err != nil {
		respondError(w, err, "delete file")
		return
	}
	h.notify("deleted", theme, path)
	w.WriteHeader(http.StatusNoContent)
}

// History handles GET /api/themes/{theme}/history/*.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	versions, err := h.svc.History(r.Context(), theme, path, limit, offset)
	if err != nil {
		respondError(w, err, "history")
		return
	}
	items := make([]VersionItem, len(versions))
	for i, v := range versions {
		items[i] = VersionItem{
			Version:   v.Version,
			Size:      v.Size,
			Checksum:  v.Checksum,
			Author:    v.Author,
			Summary:   v.Summary,
			CreatedAt: v.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Path: path, Versions: items})
}

// Restore handles POST /api/themes/{theme}/restore/*.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	path := filePath(r)
	if path == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Version < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody("version is required"))
		return
	}
	v, err := h.svc.Restore(r.Context(), theme, path, req.Version, author(r))
	if err != nil {
		respondError(w, err, "restore")
		return
	}
	h.notify("saved", theme, path)
	writeJSON(w, http.StatusOK, SaveFileResponse{Path: v.Path, Version: v.Version, Checksum: v.Checksum})
}

// AddSection handles POST /api/themes/{theme}/templates/{template}/sections.
func (h *Handler) AddSection(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	templateName := chi.URLParam(r, "template")
	var req AddSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.ID == "" || req.Type == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("id and type are required"))
		return
	}
	position := -1
	if req.Position != nil {
		position = *req.Position
	}
	sec := &draft.Section{Type: req.Type, Settings: req.Settings, Blocks: req.Blocks}
	doc, warnings, err := h.svc.AddSection(r.Context(), theme, templateName, req.ID, sec, position, author(r))
	if err != nil {
		respondError(w, err, "add section")
		return
	}
	h.notify("saved", theme, draft.DocumentPath(templateName))
	writeJSON(w, http.StatusOK, DocumentResponse{Template: templateName, Document: doc, Warnings: warnings})
}

// UpdateSection handles PUT /api/themes/{theme}/templates/{template}/sections/{section}.
func (h *Handler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	templateName := chi.URLParam(r, "template")
	sectionID := chi.URLParam(r, "section")
	var req UpdateSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	doc, warnings, err := h.svc.UpdateSection(r.Context(), theme, templateName, sectionID, req.Settings, author(r))
	if err != nil {
		respondError(w, err, "update section")
		return
	}
	h.notify("saved", theme, draft.DocumentPath(templateName))
	writeJSON(w, http.StatusOK, DocumentResponse{Template: templateName, Document: doc, Warnings: warnings})
}

// RemoveSection handles DELETE /api/themes/{theme}/templates/{template}/sections/{section}.
func (h *Handler) RemoveSection(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	templateName := chi.URLParam(r, "template")
	sectionID := chi.URLParam(r, "section")
	doc, warnings, err := h.svc.RemoveSection(r.Context(), theme, templateName, sectionID, author(r))
	if err != nil {
		respondError(w, err, "remove section")
		return
	}
	h.notify("saved", theme, draft.DocumentPath(templateName))
	writeJSON(w, http.StatusOK, DocumentResponse{Template: templateName, Document: doc, Warnings: warnings})
}

// Reorder handles POST /api/themes/{theme}/templates/{template}/order.
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	templateName := chi.URLParam(r, "template")
	var req ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	doc, warnings, err := h.svc.Reorder(r.Context(), theme, templateName, req.Order, author(r))
	if err != nil {
		respondError(w, err, "reorder")
		return
	}
	h.notify("saved", theme, draft.DocumentPath(templateName))
	writeJSON(w, http.StatusOK, DocumentResponse{Template: templateName, Document: doc, Warnings: warnings})
}

// Publish handles POST /api/themes/{theme}/publish.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	snap, err := h.svc.Publish(r.Context(), theme, author(r))
	if err != nil {
		respondError(w, err, "publish")
		return
	}
	h.notify("published", theme, "")
	writeJSON(w, http.StatusCreated, PublishResponse{
		Snapshot:    snap.Number,
		PublishedAt: snap.PublishedAt,
		PublishedBy: snap.PublishedBy,
		FileCount:   len(snap.Files),
	})
}

// Rollback handles POST /api/themes/{theme}/rollback.
func (h *Handler) Rollback(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	var req RollbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Snapshot < 1 {
		writeJSON(w, http.StatusBadRequest, errorBody("snapshot is required"))
		return
	}
	if err := h.svc.RollbackTo(r.Context(), theme, req.Snapshot); err != nil {
		respondError(w, err, "rollback")
		return
	}
	h.notify("rolledback", theme, "")
	w.WriteHeader(http.StatusNoContent)
}

// Snapshots handles GET /api/themes/{theme}/snapshots.
func (h *Handler) Snapshots(w http.ResponseWriter, r *http.Request) {
	theme := chi.URLParam(r, "theme")
	infos, err := h.svc.Snapshots(r.Context(), theme)
	if err != nil {
		respondError(w, err, "list snapshots")
		return
	}
	items := make([]SnapshotItem, len(infos))
	for i, si := range infos {
		items[i] = SnapshotItem(si)
	}
	writeJSON(w, http.StatusOK, SnapshotListResponse{Snapshots: items})
}
