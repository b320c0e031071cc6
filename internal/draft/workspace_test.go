package draft

import (
	"errors"
	"testing"

	"github.com/railspress/themekit/internal/apperr"
	"github.com/railspress/themekit/internal/testutil"
)

func TestDocumentPath(t *testing.T) {
	if got := DocumentPath("index"); got != "templates/index.json" {
		t.Errorf("DocumentPath = %q", got)
	}
}

func TestWorkspaceDocumentMissing(t *testing.T) {
	db := testutil.TestDB(t)
	w := NewWorkspace(db, "shop")

	if _, err := w.Document("index"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateDocumentCreatesOnFirstEdit(t *testing.T) {
	db := testutil.TestDB(t)
	w := NewWorkspace(db, "shop")

	doc, warnings, err := w.UpdateDocument("index", "alice", func(d *Document) error {
		return d.AddSection("hero", &Section{Type: "hero"}, -1)
	})
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v", warnings)
	}
	if len(doc.Order) != 1 {
		t.Errorf("order = %v", doc.Order)
	}

	// Edits persist through the store.
	loaded, err := w.Document("index")
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if loaded.Sections["hero"] == nil {
		t.Error("section not persisted")
	}
}

func TestUpdateDocumentVersionsEachEdit(t *testing.T) {
	db := testutil.TestDB(t)
	w := NewWorkspace(db, "shop")

	_, _, _ = w.UpdateDocument("index", "alice", func(d *Document) error {
		return d.AddSection("hero", &Section{Type: "hero"}, -1)
	})
	_, _, _ = w.UpdateDocument("index", "alice", func(d *Document) error {
		return d.UpdateSettings("hero", map[string]any{"title": "Welcome"})
	})

	history, err := db.History("shop", DocumentPath("index"), 0, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Errorf("expected 2 versions, got %d", len(history))
	}
}

func TestUpdateDocumentNoopDedups(t *testing.T) {
	db := testutil.TestDB(t)
	w := NewWorkspace(db, "shop")

	_, _, _ = w.UpdateDocument("index", "alice", func(d *Document) error {
		return d.AddSection("hero", &Section{Type: "hero"}, -1)
	})
	// A mutation that changes nothing serializes identically and dedups away.
	_, _, err := w.UpdateDocument("index", "alice", func(d *Document) error { return nil })
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}

	history, _ := db.History("shop", DocumentPath("index"), 0, 0)
	if len(history) != 1 {
		t.Errorf("expected 1 version after no-op edit, got %d", len(history))
	}
}

func TestUpdateDocumentMutateErrorAborts(t *testing.T) {
	db := testutil.TestDB(t)
	w := NewWorkspace(db, "shop")

	wantErr := errors.New("boom")
	_, _, err := w.UpdateDocument("index", "alice", func(d *Document) error { return wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if _, err := w.Document("index"); !errors.Is(err, apperr.ErrNotFound) {
		t.Error("failed mutation persisted a document")
	}
}

func TestCurrentTree(t *testing.T) {
	db := testutil.TestDB(t)
	w := NewWorkspace(db, "shop")

	_, _ = db.Write("shop", "layout/theme.html", []byte("layout"), "alice", "")
	_, _, _ = w.UpdateDocument("index", "alice", func(d *Document) error {
		return d.AddSection("hero", &Section{Type: "hero"}, -1)
	})

	tree, err := w.CurrentTree()
	if err != nil {
		t.Fatalf("CurrentTree: %v", err)
	}
	if len(tree) != 2 {
		t.Errorf("tree has %d entries, want 2", len(tree))
	}
	if _, ok := tree["templates/index.json"]; !ok {
		t.Error("template document missing from tree")
	}
}
