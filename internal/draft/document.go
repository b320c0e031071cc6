// Package draft implements the editable workspace of a theme: its template
// documents and the file tree a publish freezes into a snapshot.
package draft

import (
	"encoding/json"
	"fmt"

	"github.com/railspress/themekit/internal/apperr"
)

// Block is a nested fragment inside a section.
type Block struct {
	Type     string         `json:"type"`
	Settings map[string]any `json:"settings,omitempty"`
}

// Section is one independently rendered template fragment.
type Section struct {
	Type     string         `json:"type"`
	Settings map[string]any `json:"settings,omitempty"`
	Blocks   []Block        `json:"blocks,omitempty"`
}

// Document is the ordered composition of sections for one page type.
// It is owned by exactly one workspace and never shared across drafts.
type Document struct {
	Order    []string            `json:"order"`
	Sections map[string]*Section `json:"sections"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{Order: []string{}, Sections: map[string]*Section{}}
}

// ParseDocument decodes a serialized template document.
func ParseDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("draft: parse document: %w", err)
	}
	if d.Order == nil {
		d.Order = []string{}
	}
	if d.Sections == nil {
		d.Sections = map[string]*Section{}
	}
	return &d, nil
}

// Encode serializes the document. Map keys are emitted sorted, so encoding
// is deterministic and unchanged edits dedup away in the version store.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("draft: encode document: %w", err)
	}
	return append(data, '\n'), nil
}

// AddSection inserts a section under id at the given order position.
// position < 0 or past the end appends.
func (d *Document) AddSection(id string, s *Section, position int) error {
	if id == "" || s == nil || s.Type == "" {
		return fmt.Errorf("draft: section id and type are required")
	}
	if _, ok := d.Sections[id]; ok {
		return fmt.Errorf("draft: section %s: %w", id, apperr.ErrAlreadyExists)
	}
	d.Sections[id] = s
	if position < 0 || position >= len(d.Order) {
		d.Order = append(d.Order, id)
		return nil
	}
	d.Order = append(d.Order[:position], append([]string{id}, d.Order[position:]...)...)
	return nil
}

// RemoveSection deletes a section and every occurrence of it in the order.
func (d *Document) RemoveSection(id string) error {
	if _, ok := d.Sections[id]; !ok {
		return fmt.Errorf("draft: section %s: %w", id, apperr.ErrNotFound)
	}
	delete(d.Sections, id)
	kept := d.Order[:0]
	for _, o := range d.Order {
		if o != id {
			kept = append(kept, o)
		}
	}
	d.Order = kept
	return nil
}

// UpdateSettings replaces the settings of an existing section.
func (d *Document) UpdateSettings(id string, settings map[string]any) error {
	s, ok := d.Sections[id]
	if !ok {
		return fmt.Errorf("draft: section %s: %w", id, apperr.ErrNotFound)
	}
	s.Settings = settings
	return nil
}

// Reorder replaces the section order. Ids referencing unknown sections are
// accepted (the renderer skips them); they show up in Warnings instead.
func (d *Document) Reorder(order []string) {
	if order == nil {
		order = []string{}
	}
	d.Order = order
}

// Warnings reports non-fatal document inconsistencies: order entries with no
// matching section. Authoring tools surface these without blocking a save.
func (d *Document) Warnings() []string {
	var out []string
	for _, id := range d.Order {
		if _, ok := d.Sections[id]; !ok {
			out = append(out, fmt.Sprintf("order references unknown section %q", id))
		}
	}
	return out
}
