package store

import (
	"fmt"
	"path"
	"strings"

	"github.com/railspress/themekit/internal/apperr"
)

// ValidatePath rejects empty, absolute, and traversing paths before any I/O.
// Paths are logical, slash-separated, and relative to the theme root; they
// are never normalized on the caller's behalf.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("store: empty path: %w", apperr.ErrInvalidPath)
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, "\\") {
		return fmt.Errorf("store: absolute or non-slash path %q: %w", p, apperr.ErrInvalidPath)
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("store: traversal in path %q: %w", p, apperr.ErrInvalidPath)
		}
	}
	if path.Clean(p) != p {
		return fmt.Errorf("store: non-canonical path %q: %w", p, apperr.ErrInvalidPath)
	}
	return nil
}

// fileType classifies a theme file by its top-level directory.
func fileType(p string) string {
	switch {
	case strings.HasPrefix(p, "layout/"):
		return "layout"
	case strings.HasPrefix(p, "templates/"):
		return "template"
	case strings.HasPrefix(p, "sections/"):
		return "section"
	case strings.HasPrefix(p, "assets/"):
		return "asset"
	case strings.HasPrefix(p, "config/"):
		return "config"
	default:
		return "other"
	}
}
