package api

import (
	"time"

	"github.com/railspress/themekit/internal/draft"
	"github.com/railspress/themekit/internal/themeservice"
)

// FileDetail is the full draft file response type (aliased from the domain layer).
type FileDetail = themeservice.FileDetail

// SaveFileRequest is the request body for saving a draft file.
type SaveFileRequest struct {
	Content string `json:"content"`
	Summary string `json:"summary,omitempty"`
}

// FileListItem is a lightweight item in a file list response.
type FileListItem struct {
	Path      string    `json:"path"`
	Type      string    `json:"type"`
	Checksum  string    `json:"checksum"`
	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileListResponse wraps a theme's draft file listing.
type FileListResponse struct {
	Files []FileListItem `json:"files"`
	Total int            `json:"total"`
}

// VersionItem is one history entry.
type VersionItem struct {
	Version   int       `json:"version"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	Author    string    `json:"author"`
	Summary   string    `json:"summary,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse wraps a file's version history, newest first.
type HistoryResponse struct {
	Path     string        `json:"path"`
	Versions []VersionItem `json:"versions"`
}

// SaveFileResponse is returned after a save, restore, or section edit.
type SaveFileResponse struct {
	Path     string   `json:"path"`
	Version  int      `json:"version"`
	Checksum string   `json:"checksum"`
	Warnings []string `json:"warnings,omitempty"`
}

// RestoreRequest selects the historical version to restore.
type RestoreRequest struct {
	Version int `json:"version"`
}

// AddSectionRequest adds a section to a template document.
type AddSectionRequest struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Settings map[string]any `json:"settings,omitempty"`
	Blocks   []draft.Block  `json:"blocks,omitempty"`
	Position *int           `json:"position,omitempty"`
}

// UpdateSectionRequest replaces a section's settings.
type UpdateSectionRequest struct {
	Settings map[string]any `json:"settings"`
}

// ReorderRequest replaces a template document's section order.
type ReorderRequest struct {
	Order []string `json:"order"`
}

// DocumentResponse returns a template document after an edit.
type DocumentResponse struct {
	Template string          `json:"template"`
	Document *draft.Document `json:"document"`
	Warnings []string        `json:"warnings,omitempty"`
}

// RollbackRequest selects the snapshot to activate.
type RollbackRequest struct {
	Snapshot int `json:"snapshot"`
}

// SnapshotItem is one entry in the snapshot listing.
type SnapshotItem struct {
	Number      int       `json:"number"`
	PublishedAt time.Time `json:"published_at"`
	PublishedBy string    `json:"published_by"`
	FileCount   int       `json:"file_count"`
	Active      bool      `json:"active"`
}

// SnapshotListResponse wraps a theme's snapshot listing.
type SnapshotListResponse struct {
	Snapshots []SnapshotItem `json:"snapshots"`
}

// PublishResponse is returned after a successful publish.
type PublishResponse struct {
	Snapshot    int       `json:"snapshot"`
	PublishedAt time.Time `json:"published_at"`
	PublishedBy string    `json:"published_by"`
	FileCount   int       `json:"file_count"`
}
