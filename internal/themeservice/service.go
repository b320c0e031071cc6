// Package themeservice coordinates the version store, draft workspaces, and
// the renderer behind the authoring and rendering entrypoints.
package themeservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/railspress/themekit/internal/apperr"
	"github.com/railspress/themekit/internal/draft"
	"github.com/railspress/themekit/internal/render"
	"github.com/railspress/themekit/internal/store"
)

// SettingsPath is the logical path of a theme's global settings tree.
const SettingsPath = "config/settings.json"

// FileDetail is the full representation of a draft file.
type FileDetail struct {
	Path      string    `json:"path"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	Checksum  string    `json:"checksum"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates store and render operations.
type Service struct {
	db       store.ThemeStore
	renderer *render.Renderer
}

// NewService creates a new theme service.
func NewService(db store.ThemeStore, renderer *render.Renderer) *Service {
	return &Service{db: db, renderer: renderer}
}

// workspace binds the draft workspace for a theme.
func (s *Service) workspace(themeID string) *draft.Workspace {
	return draft.NewWorkspace(s.db, themeID)
}

// SaveFile writes content as a new draft version. When the target is a
// template document, non-fatal validation warnings are returned alongside;
// a save is never blocked by them.
func (s *Service) SaveFile(_ context.Context, themeID, path string, content []byte, author, summary string) (*store.Version, []string, error) {
	v, err := s.db.Write(themeID, path, content, author, summary)
	if err != nil {
		return nil, nil, err
	}
	return v, documentWarnings(path, content), nil
}

// GetFile returns the latest draft version of a file.
func (s *Service) GetFile(_ context.Context, themeID, path string) (*FileDetail, error) {
	fi, content, err := s.db.GetFile(themeID, path)
	if err != nil {
		return nil, err
	}
	return &FileDetail{
		Path:      fi.Path,
		Type:      fi.Type,
		Content:   string(content),
		Checksum:  fi.Checksum,
		Version:   fi.Version,
		UpdatedAt: fi.UpdatedAt,
	}, nil
}

// ListFiles returns every live draft file of a theme.
func (s *Service) ListFiles(_ context.Context, themeID string) ([]store.FileInfo, error) {
	return s.db.ListFiles(themeID)
}

// DeleteFile soft-deletes a draft file; its history stays restorable.
func (s *Service) DeleteFile(_ context.Context, themeID, path string) error {
	return s.db.Delete(themeID, path)
}

// History returns version metadata for a file, newest first.
func (s *Service) History(_ context.Context, themeID, path string, limit, offset int) ([]store.Version, error) {
	return s.db.History(themeID, path, limit, offset)
}

// Restore re-writes a historical version as the new latest draft version.
func (s *Service) Restore(_ context.Context, themeID, path string, version int, author string) (*store.Version, error) {
	return s.db.Restore(themeID, path, version, author)
}

// AddSection adds a section to a template document at the given position.
func (s *Service) AddSection(_ context.Context, themeID, templateName, sectionID string, sec *draft.Section, position int, author string) (*draft.Document, []string, error) {
	return s.workspace(themeID).UpdateDocument(templateName, author, func(d *draft.Document) error {
		return d.AddSection(sectionID, sec, position)
	})
}

// UpdateSection replaces the settings of an existing section.
func (s *Service) UpdateSection(_ context.Context, themeID, templateName, sectionID string, settings map[string]any, author string) (*draft.Document, []string, error) {
	return s.workspace(themeID).UpdateDocument(templateName, author, func(d *draft.Document) error {
		return d.UpdateSettings(sectionID, settings)
	})
}

// RemoveSection deletes a section from a template document.
func (s *Service) RemoveSection(_ context.Context, themeID, templateName, sectionID, author string) (*draft.Document, []string, error) {
	return s.workspace(themeID).UpdateDocument(templateName, author, func(d *draft.Document) error {
		return d.RemoveSection(sectionID)
	})
}

// Reorder replaces a template document's section order.
func (s *Service) Reorder(_ context.Context, themeID, templateName string, order []string, author string) (*draft.Document, []string, error) {
	return s.workspace(themeID).UpdateDocument(templateName, author, func(d *draft.Document) error {
		d.Reorder(order)
		return nil
	})
}

// Publish freezes the theme's current draft tree into a new immutable
// snapshot and makes it the active one.
func (s *Service) Publish(_ context.Context, themeID, author string) (*store.Snapshot, error) {
	tree, err := s.workspace(themeID).CurrentTree()
	if err != nil {
		return nil, err
	}
	if len(tree) == 0 {
		return nil, fmt.Errorf("themeservice: theme %s has no draft files: %w", themeID, apperr.ErrNotFound)
	}
	return s.db.Publish(themeID, author, tree)
}

// RollbackTo reassigns the theme's active pointer to an earlier snapshot.
func (s *Service) RollbackTo(_ context.Context, themeID string, number int) error {
	return s.db.Rollback(themeID, number)
}

// Snapshots lists a theme's snapshots, newest first.
func (s *Service) Snapshots(_ context.Context, themeID string) ([]store.SnapshotInfo, error) {
	return s.db.Snapshots(themeID)
}

// RenderTemplate renders a template from the theme's active snapshot.
// The resolver is bound to the snapshot value before any resolution, so the
// whole render observes one publish generation.
func (s *Service) RenderTemplate(ctx context.Context, themeID, templateName string, global map[string]any) (*render.Result, error) {
	snap, err := s.db.ActiveSnapshot(themeID)
	if err != nil {
		return nil, err
	}
	return s.renderWith(ctx, render.NewSnapshotResolver(snap), themeID, templateName, global)
}

// PreviewTemplate renders a template from the theme's draft state.
func (s *Service) PreviewTemplate(ctx context.Context, themeID, templateName string, global map[string]any) (*render.Result, error) {
	return s.renderWith(ctx, render.NewDraftResolver(s.db, themeID), themeID, templateName, global)
}

func (s *Service) renderWith(_ context.Context, resolver render.Resolver, themeID, templateName string, global map[string]any) (*render.Result, error) {
	// Resolvers report a missing document as apperr.ErrNotFound; anything
	// else is a storage fault and must stay distinguishable from a 404.
	docData, err := resolver.Resolve(draft.DocumentPath(templateName))
	if err != nil {
		return nil, fmt.Errorf("themeservice: template %s: %w", templateName, err)
	}
	doc, err := draft.ParseDocument(docData)
	if err != nil {
		return nil, err
	}

	// Layout resolution failure is page-fatal: no partial rendering.
	layout, err := render.ResolveLayout(resolver)
	if err != nil {
		return nil, err
	}

	merged := make(map[string]any, len(global)+3)
	for k, v := range global {
		merged[k] = v
	}
	merged["theme"] = themeID
	merged["template"] = templateName
	if settings := loadSettings(resolver); settings != nil {
		merged["settings"] = settings
	}

	return s.renderer.Render(doc, layout, resolver, merged)
}

// Asset returns an asset blob from the theme's active snapshot.
func (s *Service) Asset(_ context.Context, themeID, path string) ([]byte, error) {
	snap, err := s.db.ActiveSnapshot(themeID)
	if err != nil {
		return nil, err
	}
	content, ok := snap.File(path)
	if !ok {
		return nil, fmt.Errorf("themeservice: asset %s: %w", path, apperr.ErrNotFound)
	}
	return content, nil
}

// loadSettings parses the theme's global settings tree, if present.
func loadSettings(resolver render.Resolver) map[string]any {
	data, err := resolver.Resolve(SettingsPath)
	if err != nil {
		return nil
	}
	var settings map[string]any
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil
	}
	return settings
}

// documentWarnings validates template document saves without blocking them.
func documentWarnings(path string, content []byte) []string {
	if !strings.HasPrefix(path, "templates/") || !strings.HasSuffix(path, ".json") {
		return nil
	}
	doc, err := draft.ParseDocument(content)
	if err != nil {
		return []string{fmt.Sprintf("not a valid template document: %v", err)}
	}
	return doc.Warnings()
}

// IsNotFound reports whether err is any of the store's absence sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, apperr.ErrNotFound) || errors.Is(err, apperr.ErrNoSnapshot)
}
