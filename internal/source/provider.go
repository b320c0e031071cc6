// Package source abstracts read access to on-disk packaged theme trees.
package source

import "github.com/railspress/themekit/internal/models"

// Provider is the interface for reading a theme source tree.
type Provider interface {
	// List returns metadata for every file under dir (relative to the tree root).
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the tree root).
	Read(path string) ([]byte, error)
}
