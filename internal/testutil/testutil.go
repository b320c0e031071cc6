// Package testutil provides shared test helpers for setting up stores and theme sources.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/railspress/themekit/internal/source"
	"github.com/railspress/themekit/internal/store"
)

// TestDB creates a temporary SQLite theme store that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "themekit-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestSourceDir creates a temporary theme source directory with a source.Provider.
func TestSourceDir(t *testing.T) (string, source.Provider) {
	t.Helper()
	dir := t.TempDir()
	src, err := source.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, src
}

// WriteSourceFile writes a file under a theme source directory, creating
// parent directories as needed.
func WriteSourceFile(t *testing.T, root, path string, content []byte) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		t.Fatal(err)
	}
}
