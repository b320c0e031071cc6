package mcpserver

// TemplateFormatContract describes the canonical template document format
// that LLM consumers should follow when editing theme templates.
const TemplateFormatContract = `# Themekit Template Document Contract

Every template document stored under ` + "`templates/<name>.json`" + ` MUST follow
this structure.

## Structure

` + "```" + `json
{
  "order": ["hero", "featured", "footer-cta"],
  "sections": {
    "hero": {
      "type": "hero",
      "settings": {"title": "Welcome", "subtitle": "..."},
      "blocks": [
        {"type": "button", "settings": {"label": "Shop now", "url": "/shop"}}
      ]
    },
    "featured": {"type": "product-grid", "settings": {"count": 4}},
    "footer-cta": {"type": "newsletter", "settings": {}}
  }
}
` + "```" + `

## Rules

1. **` + "`order`" + `** is the exact render sequence. Entries referencing ids missing
   from ` + "`sections`" + ` are tolerated (the renderer skips them) but reported as
   warnings on save — clean them up.
2. **Section ids** are lowercase, kebab-case, unique within the document.
3. **` + "`type`" + `** names the section source: type ` + "`hero`" + ` renders
   ` + "`sections/hero.html`" + `. Saving a document whose types have no matching
   source file produces per-section render errors, not a failed page.
4. **` + "`settings`" + `** is a free-form JSON object exposed to the section source
   as ` + "`.section.settings`" + `; ` + "`blocks`" + ` appear as ` + "`.section.blocks`" + `.
5. **Section sources** are Go html/template files. The section context is:
   ` + "`{{.section.id}}`" + `, ` + "`{{.section.type}}`" + `, ` + "`{{.section.settings.<key>}}`" + `,
   plus the globals ` + "`{{.theme}}`" + `, ` + "`{{.template}}`" + `, ` + "`{{.settings}}`" + `
   (the tree from ` + "`config/settings.json`" + `).
6. **The layout** lives at ` + "`layout/theme.html`" + ` and must contain the literal
   token ` + "`{{ content_for_layout }}`" + ` exactly once where section output is
   injected.
7. **Edits are drafts.** Nothing a visitor sees changes until ` + "`publish_theme`" + `
   is called; use ` + "`preview_template`" + ` to inspect draft state.
8. **Encoding** is UTF-8 JSON with a trailing newline.
`
