package draft

import (
	"errors"
	"fmt"

	"github.com/railspress/themekit/internal/apperr"
	"github.com/railspress/themekit/internal/store"
)

// DocumentPath returns the store path of a named template document.
func DocumentPath(templateName string) string {
	return "templates/" + templateName + ".json"
}

// Workspace is the current editable state of one theme, backed by the
// versioned file store. A workspace comes into existence on first edit;
// earlier draft states stay reachable through file history.
type Workspace struct {
	themeID string
	db      store.ThemeStore
}

// NewWorkspace binds a workspace to a theme.
func NewWorkspace(db store.ThemeStore, themeID string) *Workspace {
	return &Workspace{themeID: themeID, db: db}
}

// ThemeID returns the owning theme.
func (w *Workspace) ThemeID() string { return w.themeID }

// Document loads a template document from the latest stored version.
func (w *Workspace) Document(templateName string) (*Document, error) {
	data, err := w.db.Read(w.themeID, DocumentPath(templateName))
	if err != nil {
		return nil, err
	}
	return ParseDocument(data)
}

// UpdateDocument applies mutate to a template document and persists the
// result as a new file version, subject to checksum dedup: a mutation that
// leaves the serialized document unchanged creates no version. A document
// that does not exist yet starts empty. Returns the updated document and
// its non-fatal validation warnings.
func (w *Workspace) UpdateDocument(templateName, author string, mutate func(*Document) error) (*Document, []string, error) {
	doc, err := w.Document(templateName)
	if errors.Is(err, apperr.ErrNotFound) {
		doc = NewDocument()
	} else if err != nil {
		return nil, nil, err
	}

	if err := mutate(doc); err != nil {
		return nil, nil, err
	}

	data, err := doc.Encode()
	if err != nil {
		return nil, nil, err
	}
	if _, err := w.db.Write(w.themeID, DocumentPath(templateName), data, author, fmt.Sprintf("edit template %s", templateName)); err != nil {
		return nil, nil, err
	}
	return doc, doc.Warnings(), nil
}

// CurrentTree materializes every live file path and content of the theme:
// the exact set a publish copies by value into a snapshot.
func (w *Workspace) CurrentTree() (map[string][]byte, error) {
	return w.db.Tree(w.themeID)
}
