// Package render composes final page markup from a template document, a
// layout, and section sources fetched through a Resolver.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/railspress/themekit/internal/draft"
)

// ContentForLayoutToken is the literal marker a layout carries where the
// concatenated section output is substituted, exactly once.
const ContentForLayoutToken = "{{ content_for_layout }}"

// LayoutPath is the logical path of a theme's layout.
const LayoutPath = "layout/theme.html"

// SectionSourcePath maps a section type to the logical path of its source.
func SectionSourcePath(sectionType string) string {
	return "sections/" + sectionType + ".html"
}

// SectionError records a non-fatal, per-section rendering failure. Errors
// are returned for observability, never raised to abort the page.
type SectionError struct {
	SectionID   string `json:"section_id"`
	SectionType string `json:"section_type"`
	Message     string `json:"message"`
}

// Result is the output of one render call.
type Result struct {
	HTML          string
	Assets        []Asset
	SectionErrors []SectionError
}

// Renderer composes pages. Its function map is built once at construction
// and never mutated afterwards, so any number of renders for any themes can
// run in parallel without shared mutable state leaking between them.
type Renderer struct {
	funcs  template.FuncMap
	logger *slog.Logger
}

// New creates a Renderer with its own immutable function registry.
func New(logger *slog.Logger) *Renderer {
	return &Renderer{funcs: makeFuncMap(), logger: logger}
}

// Render merges a template document, a layout, and resolved section bodies
// into final markup. Identical inputs produce byte-identical output.
//
//   - An order id with no matching section entry is skipped silently.
//   - A section whose source cannot be resolved contributes an empty
//     fragment and a SectionError.
//   - A section whose source fails to parse or execute contributes a
//     visible inline error fragment and a SectionError.
//   - The concatenated fragments replace the first occurrence of the
//     layout's content token; a layout without the token renders as-is and
//     the section output is discarded with a warning log.
func (r *Renderer) Render(doc *draft.Document, layout []byte, resolver Resolver, global map[string]any) (*Result, error) {
	res := &Result{}

	var sections strings.Builder
	for _, id := range doc.Order {
		sec, ok := doc.Sections[id]
		if !ok {
			continue
		}

		src, err := resolver.Resolve(SectionSourcePath(sec.Type))
		if err != nil {
			res.SectionErrors = append(res.SectionErrors, SectionError{
				SectionID:   id,
				SectionType: sec.Type,
				Message:     fmt.Sprintf("unresolved section source: %v", err),
			})
			continue
		}

		fragment, renderErr := r.renderSection(id, sec, src, global)
		if renderErr != nil {
			res.SectionErrors = append(res.SectionErrors, SectionError{
				SectionID:   id,
				SectionType: sec.Type,
				Message:     renderErr.Error(),
			})
			sections.WriteString(errorFragment(id))
			continue
		}
		sections.WriteString(fragment)
	}

	body := sections.String()
	layoutStr := string(layout)
	if strings.Contains(layoutStr, ContentForLayoutToken) {
		res.HTML = strings.Replace(layoutStr, ContentForLayoutToken, body, 1)
	} else {
		r.logger.Warn("render: layout has no content placeholder, section output discarded")
		res.HTML = layoutStr
	}

	assets, err := resolver.Assets()
	if err != nil {
		r.logger.Warn("render: asset enumeration failed", slog.String("error", err.Error()))
	} else {
		res.Assets = assets
	}

	return res, nil
}

// renderSection parses and executes one section source with its local
// context merged over the global context. Engine errors are returned as
// values; they never escape as panics or abort the page.
func (r *Renderer) renderSection(id string, sec *draft.Section, src []byte, global map[string]any) (string, error) {
	tmpl, err := template.New(sec.Type).Funcs(r.funcs).Parse(string(src))
	if err != nil {
		return "", fmt.Errorf("template syntax: %v", err)
	}

	data := make(map[string]any, len(global)+1)
	for k, v := range global {
		data[k] = v
	}
	data["section"] = map[string]any{
		"id":       id,
		"type":     sec.Type,
		"settings": sec.Settings,
		"blocks":   sec.Blocks,
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("template execution: %v", err)
	}
	return buf.String(), nil
}

// ResolveLayout fetches the layout through the resolver. Failure here is
// page-fatal; callers return a full-page error instead of partial markup.
func ResolveLayout(resolver Resolver) ([]byte, error) {
	layout, err := resolver.Resolve(LayoutPath)
	if err != nil {
		return nil, fmt.Errorf("render: resolve layout: %w", err)
	}
	return layout, nil
}

// errorFragment is the visible inline marker substituted for a section that
// failed to render. The failure detail travels in SectionError, not markup.
func errorFragment(id string) string {
	return fmt.Sprintf(`<div class="section-render-error" data-section-id="%s"></div>`, template.HTMLEscapeString(id))
}
