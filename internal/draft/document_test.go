package draft

import (
	"bytes"
	"errors"
	"testing"

	"github.com/railspress/themekit/internal/apperr"
)

func TestParseDocumentDefaults(t *testing.T) {
	d, err := ParseDocument([]byte(`{}`))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if d.Order == nil || d.Sections == nil {
		t.Error("nil order or sections after parse")
	}
}

func TestParseDocumentInvalid(t *testing.T) {
	if _, err := ParseDocument([]byte(`{not json`)); err == nil {
		t.Error("expected parse error")
	}
}

func TestAddSection(t *testing.T) {
	d := NewDocument()
	if err := d.AddSection("hero", &Section{Type: "hero"}, -1); err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	if err := d.AddSection("footer", &Section{Type: "footer"}, -1); err != nil {
		t.Fatalf("AddSection: %v", err)
	}
	if err := d.AddSection("banner", &Section{Type: "banner"}, 1); err != nil {
		t.Fatalf("AddSection at position: %v", err)
	}

	want := []string{"hero", "banner", "footer"}
	for i, id := range want {
		if d.Order[i] != id {
			t.Fatalf("order = %v, want %v", d.Order, want)
		}
	}
}

func TestAddSectionDuplicate(t *testing.T) {
	d := NewDocument()
	_ = d.AddSection("hero", &Section{Type: "hero"}, -1)
	if err := d.AddSection("hero", &Section{Type: "hero"}, -1); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestAddSectionValidation(t *testing.T) {
	d := NewDocument()
	if err := d.AddSection("", &Section{Type: "hero"}, -1); err == nil {
		t.Error("expected error for empty id")
	}
	if err := d.AddSection("hero", &Section{}, -1); err == nil {
		t.Error("expected error for missing type")
	}
}

func TestRemoveSection(t *testing.T) {
	d := NewDocument()
	_ = d.AddSection("hero", &Section{Type: "hero"}, -1)
	_ = d.AddSection("footer", &Section{Type: "footer"}, -1)

	if err := d.RemoveSection("hero"); err != nil {
		t.Fatalf("RemoveSection: %v", err)
	}
	if len(d.Order) != 1 || d.Order[0] != "footer" {
		t.Errorf("order = %v, want [footer]", d.Order)
	}
	if err := d.RemoveSection("hero"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateSettings(t *testing.T) {
	d := NewDocument()
	_ = d.AddSection("hero", &Section{Type: "hero", Settings: map[string]any{"title": "old"}}, -1)

	if err := d.UpdateSettings("hero", map[string]any{"title": "new"}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if d.Sections["hero"].Settings["title"] != "new" {
		t.Errorf("settings = %v", d.Sections["hero"].Settings)
	}

	if err := d.UpdateSettings("ghost", nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReorderAcceptsUnknownIDs(t *testing.T) {
	d := NewDocument()
	_ = d.AddSection("hero", &Section{Type: "hero"}, -1)

	d.Reorder([]string{"ghost", "hero"})
	if len(d.Order) != 2 {
		t.Fatalf("order = %v", d.Order)
	}

	warnings := d.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want 1", warnings)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	d := NewDocument()
	_ = d.AddSection("hero", &Section{Type: "hero", Settings: map[string]any{"b": 1, "a": 2}}, -1)
	_ = d.AddSection("footer", &Section{Type: "footer"}, -1)

	first, err := d.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	second, err := d.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("repeated Encode produced different bytes")
	}
	if first[len(first)-1] != '\n' {
		t.Error("encoded document missing trailing newline")
	}

	// Round-trip survives.
	parsed, err := ParseDocument(first)
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	if len(parsed.Order) != 2 || parsed.Sections["hero"].Type != "hero" {
		t.Errorf("round-trip lost data: %+v", parsed)
	}
}
