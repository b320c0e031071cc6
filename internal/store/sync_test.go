package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/railspress/themekit/internal/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeSourceFile(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil {
		t.Fatal(err)
	}
}

func testSource(t *testing.T, root string) source.Provider {
	t.Helper()
	src, err := source.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return src
}

func TestSyncFromSource(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	writeSourceFile(t, dir, "layout/theme.html", []byte("<html></html>"))
	writeSourceFile(t, dir, "sections/hero.html", []byte("<h1>hi</h1>"))
	src := testSource(t, dir)

	changed, err := SyncFromSource(context.Background(), db, "shop", src, testLogger())
	if err != nil {
		t.Fatalf("SyncFromSource: %v", err)
	}
	if changed != 2 {
		t.Errorf("changed = %d, want 2", changed)
	}

	got, err := db.Read("shop", "sections/hero.html")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "<h1>hi</h1>" {
		t.Errorf("content = %q", got)
	}
}

func TestSyncIdempotent(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	writeSourceFile(t, dir, "layout/theme.html", []byte("<html></html>"))
	src := testSource(t, dir)

	if _, err := SyncFromSource(context.Background(), db, "shop", src, testLogger()); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	changed, err := SyncFromSource(context.Background(), db, "shop", src, testLogger())
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if changed != 0 {
		t.Errorf("second sync changed = %d, want 0", changed)
	}

	history, err := db.History("shop", "layout/theme.html", 0, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("expected 1 version after repeated sync, got %d", len(history))
	}
}

func TestSyncPicksUpModification(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	writeSourceFile(t, dir, "assets/app.css", []byte("a{}"))
	src := testSource(t, dir)

	_, _ = SyncFromSource(context.Background(), db, "shop", src, testLogger())
	writeSourceFile(t, dir, "assets/app.css", []byte("a{color:red}"))

	changed, err := SyncFromSource(context.Background(), db, "shop", src, testLogger())
	if err != nil {
		t.Fatalf("SyncFromSource: %v", err)
	}
	if changed != 1 {
		t.Errorf("changed = %d, want 1", changed)
	}
	got, _ := db.Read("shop", "assets/app.css")
	if string(got) != "a{color:red}" {
		t.Errorf("content = %q", got)
	}
}

func TestSyncLeavesStoreOnlyFilesAlone(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	writeSourceFile(t, dir, "layout/theme.html", []byte("<html></html>"))
	src := testSource(t, dir)

	// Author-created draft file that has no on-disk counterpart.
	if _, err := db.Write("shop", "sections/custom.html", []byte("custom"), "alice", ""); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if _, err := SyncFromSource(context.Background(), db, "shop", src, testLogger()); err != nil {
		t.Fatalf("SyncFromSource: %v", err)
	}

	got, err := db.Read("shop", "sections/custom.html")
	if err != nil {
		t.Fatalf("store-only file removed by sync: %v", err)
	}
	if string(got) != "custom" {
		t.Errorf("content = %q", got)
	}
}

func TestSyncContextCancelled(t *testing.T) {
	db := testDB(t)
	dir := t.TempDir()
	writeSourceFile(t, dir, "layout/theme.html", []byte("<html></html>"))
	src := testSource(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := SyncFromSource(ctx, db, "shop", src, testLogger()); err == nil {
		t.Error("expected context error, got nil")
	}
}
