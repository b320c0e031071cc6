package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/railspress/themekit/internal/apperr"
	"github.com/railspress/themekit/internal/store"
)

func errNotFound(path string) error {
	return fmt.Errorf("render: %s: %w", path, apperr.ErrNotFound)
}

// Resolver fetches raw bytes by logical theme path, decoupling rendering
// from where the content lives (draft state or a published snapshot).
type Resolver interface {
	// Resolve returns the content at a logical path, or apperr.ErrNotFound.
	Resolve(path string) ([]byte, error)
	// Assets returns every assets/ blob the resolver exposes, ordered by path.
	Assets() ([]Asset, error)
}

// Asset is a named byte blob (stylesheet, script) exposed alongside markup.
// MIME type and embedding are the caller's concern.
type Asset struct {
	Path    string
	Content []byte
}

const assetPrefix = "assets/"

// DraftResolver reads through the version store's latest live versions.
// It backs authoring previews.
type DraftResolver struct {
	db      store.ThemeStore
	themeID string
}

// NewDraftResolver creates a resolver over a theme's draft state.
func NewDraftResolver(db store.ThemeStore, themeID string) *DraftResolver {
	return &DraftResolver{db: db, themeID: themeID}
}

func (r *DraftResolver) Resolve(path string) ([]byte, error) {
	return r.db.Read(r.themeID, path)
}

func (r *DraftResolver) Assets() ([]Asset, error) {
	tree, err := r.db.Tree(r.themeID)
	if err != nil {
		return nil, err
	}
	return assetsFromTree(tree), nil
}

// SnapshotResolver reads through one fully materialized published snapshot.
// Because it is bound to a snapshot value rather than "whatever is active",
// an entire render observes a single publish generation even while a
// concurrent publish swaps the active pointer.
type SnapshotResolver struct {
	files  map[string][]byte
	assets []Asset
}

// NewSnapshotResolver binds a resolver to a snapshot value.
func NewSnapshotResolver(snap *store.Snapshot) *SnapshotResolver {
	files := make(map[string][]byte, len(snap.Files))
	var assets []Asset
	for _, f := range snap.Files {
		files[f.Path] = f.Content
		if strings.HasPrefix(f.Path, assetPrefix) {
			assets = append(assets, Asset{Path: f.Path, Content: f.Content})
		}
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Path < assets[j].Path })
	return &SnapshotResolver{files: files, assets: assets}
}

func (r *SnapshotResolver) Resolve(path string) ([]byte, error) {
	content, ok := r.files[path]
	if !ok {
		return nil, errNotFound(path)
	}
	return content, nil
}

func (r *SnapshotResolver) Assets() ([]Asset, error) {
	return r.assets, nil
}

func assetsFromTree(tree map[string][]byte) []Asset {
	var out []Asset
	for p, content := range tree {
		if strings.HasPrefix(p, assetPrefix) {
			out = append(out, Asset{Path: p, Content: content})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
