package render

import (
	"errors"
	"testing"

	"github.com/railspress/themekit/internal/apperr"
	"github.com/railspress/themekit/internal/store"
	"github.com/railspress/themekit/internal/testutil"
)

func TestDraftResolverReadsLatest(t *testing.T) {
	db := testutil.TestDB(t)
	_, _ = db.Write("shop", "sections/hero.html", []byte("v1"), "alice", "")
	_, _ = db.Write("shop", "sections/hero.html", []byte("v2"), "alice", "")

	r := NewDraftResolver(db, "shop")
	got, err := r.Resolve("sections/hero.html")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if string(got) != "v2" {
		t.Errorf("content = %q, want v2", got)
	}

	if _, err := r.Resolve("sections/ghost.html"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDraftResolverAssets(t *testing.T) {
	db := testutil.TestDB(t)
	_, _ = db.Write("shop", "assets/z.css", []byte("z"), "alice", "")
	_, _ = db.Write("shop", "assets/a.js", []byte("a"), "alice", "")
	_, _ = db.Write("shop", "layout/theme.html", []byte("layout"), "alice", "")

	r := NewDraftResolver(db, "shop")
	assets, err := r.Assets()
	if err != nil {
		t.Fatalf("Assets: %v", err)
	}
	if len(assets) != 2 {
		t.Fatalf("assets = %d, want 2", len(assets))
	}
	if assets[0].Path != "assets/a.js" {
		t.Errorf("order = %q", assets[0].Path)
	}
}

func TestSnapshotResolverBoundToValue(t *testing.T) {
	db := testutil.TestDB(t)
	_, _ = db.Write("shop", "sections/hero.html", []byte("published"), "alice", "")
	_, _ = db.Write("shop", "assets/app.css", []byte("a{}"), "alice", "")

	tree, err := db.Tree("shop")
	if err != nil {
		t.Fatal(err)
	}
	snap, err := db.Publish("shop", "alice", tree)
	if err != nil {
		t.Fatal(err)
	}

	r := NewSnapshotResolver(snap)

	// Draft edits after publish are invisible through the snapshot resolver.
	_, _ = db.Write("shop", "sections/hero.html", []byte("draft edit"), "bob", "")

	got, err := r.Resolve("sections/hero.html")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if string(got) != "published" {
		t.Errorf("content = %q, want published", got)
	}

	assets, err := r.Assets()
	if err != nil {
		t.Fatalf("Assets: %v", err)
	}
	if len(assets) != 1 || assets[0].Path != "assets/app.css" {
		t.Errorf("assets = %+v", assets)
	}
}

func TestSnapshotResolverMissing(t *testing.T) {
	r := NewSnapshotResolver(&store.Snapshot{})
	if _, err := r.Resolve("layout/theme.html"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
