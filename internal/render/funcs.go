package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
)

// makeFuncMap builds the renderer's function registry. Every function is
// deterministic; nothing here reads clocks, randomness, or globals, which
// keeps render output byte-identical for identical inputs.
func makeFuncMap() template.FuncMap {
	return template.FuncMap{
		// Strings
		"upper":   strings.ToUpper,
		"lower":   strings.ToLower,
		"trim":    strings.TrimSpace,
		"replace": replace,
		"join":    join,

		// Values
		"default": defaultValue,
		"isSet":   isSet,
		"jsonify": jsonify,

		// Raw markup
		"safeHTML": safeHTML,
		"safeCSS":  safeCSS,
		"assetURL": assetURL,

		// Arithmetic
		"add":  add,
		"sub":  sub,
		"mult": mult,
		"div":  div,
		"mod":  mod,
		"inc":  inc,
		"dec":  dec,
	}
}

// replace returns s with all occurrences of old replaced by new.
func replace(s, old, new string) string {
	return strings.ReplaceAll(s, old, new)
}

// join concatenates items with sep between them.
func join(items []string, sep string) string {
	return strings.Join(items, sep)
}

// defaultValue returns val unless it is nil or an empty string.
func defaultValue(def, val any) any {
	if val == nil {
		return def
	}
	if s, ok := val.(string); ok && s == "" {
		return def
	}
	return val
}

// isSet reports whether a settings map carries a non-nil value for key.
func isSet(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	v, ok := m[key]
	return ok && v != nil
}

// jsonify renders a value as compact JSON, or an empty string on failure.
func jsonify(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// safeHTML marks a string as trusted markup, bypassing escaping.
func safeHTML(s string) template.HTML {
	return template.HTML(s) //nolint:gosec // explicit author opt-in
}

// safeCSS marks a string as trusted CSS.
func safeCSS(s string) template.CSS {
	return template.CSS(s) //nolint:gosec // explicit author opt-in
}

// assetURL maps a theme asset path to its serving URL.
func assetURL(theme, name string) string {
	return fmt.Sprintf("/assets/%s/assets/%s", theme, name)
}

// add returns a + b.
func add(a, b int) int {
	return a + b
}

// sub returns a - b.
func sub(a, b int) int {
	return a - b
}

// mult returns a * b.
func mult(a, b int) int {
	return a * b
}

// div returns a / b (integer division). Returns 0 if b is 0.
func div(a, b int) int {
	if b == 0 {
		return 0
	}
	return a / b
}

// mod returns a % b. Returns 0 if b is 0.
func mod(a, b int) int {
	if b == 0 {
		return 0
	}
	return a % b
}

// inc returns i + 1.
func inc(i int) int {
	return i + 1
}

// dec returns i - 1.
func dec(i int) int {
	return i - 1
}
