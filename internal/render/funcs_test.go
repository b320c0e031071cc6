package render

import (
	"bytes"
	"html/template"
	"testing"
)

// execFunc runs a one-line template against data and returns the output.
func execFunc(t *testing.T, src string, data any) string {
	t.Helper()
	tmpl, err := template.New("t").Funcs(makeFuncMap()).Parse(src)
	if err != nil {
		t.Fatalf("parse %q: %v", src, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		t.Fatalf("execute %q: %v", src, err)
	}
	return buf.String()
}

func TestStringFuncs(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`{{upper "abc"}}`, "ABC"},
		{`{{lower "AbC"}}`, "abc"},
		{`{{trim "  x  "}}`, "x"},
		{`{{replace "a-b-c" "-" "."}}`, "a.b.c"},
		{`{{join .items ", "}}`, "a, b"},
	}
	for _, c := range cases {
		got := execFunc(t, c.src, map[string]any{"items": []string{"a", "b"}})
		if got != c.want {
			t.Errorf("%s = %q, want %q", c.src, got, c.want)
		}
	}
}

func TestDefaultAndIsSet(t *testing.T) {
	settings := map[string]any{"title": "Hello", "empty": "", "null": nil}

	if got := execFunc(t, `{{default "fallback" .title}}`, settings); got != "Hello" {
		t.Errorf("default with value = %q", got)
	}
	if got := execFunc(t, `{{default "fallback" .empty}}`, settings); got != "fallback" {
		t.Errorf("default with empty string = %q", got)
	}
	if got := execFunc(t, `{{default "fallback" .missing}}`, settings); got != "fallback" {
		t.Errorf("default with missing key = %q", got)
	}

	if !isSet(settings, "title") {
		t.Error("isSet(title) = false")
	}
	if isSet(settings, "null") || isSet(settings, "missing") || isSet(nil, "x") {
		t.Error("isSet reported unset keys as set")
	}
}

func TestJsonify(t *testing.T) {
	got := jsonify(map[string]any{"a": 1})
	if got != `{"a":1}` {
		t.Errorf("jsonify = %q", got)
	}
	if jsonify(func() {}) != "" {
		t.Error("jsonify of unmarshalable value should be empty")
	}
}

func TestSafeMarkup(t *testing.T) {
	got := execFunc(t, `{{safeHTML "<b>bold</b>"}}`, nil)
	if got != "<b>bold</b>" {
		t.Errorf("safeHTML = %q", got)
	}

	// Without safeHTML the same markup is escaped.
	got = execFunc(t, `{{.raw}}`, map[string]any{"raw": "<b>bold</b>"})
	if got == "<b>bold</b>" {
		t.Error("untrusted markup was not escaped")
	}
}

func TestAssetURL(t *testing.T) {
	if got := assetURL("shop", "app.css"); got != "/assets/shop/assets/app.css" {
		t.Errorf("assetURL = %q", got)
	}
}

func TestArithmetic(t *testing.T) {
	cases := []struct {
		src  string
		want string
	}{
		{`{{add 2 3}}`, "5"},
		{`{{sub 5 3}}`, "2"},
		{`{{mult 4 3}}`, "12"},
		{`{{div 10 3}}`, "3"},
		{`{{div 10 0}}`, "0"},
		{`{{mod 10 3}}`, "1"},
		{`{{mod 10 0}}`, "0"},
		{`{{inc 1}}`, "2"},
		{`{{dec 1}}`, "0"},
	}
	for _, c := range cases {
		if got := execFunc(t, c.src, nil); got != c.want {
			t.Errorf("%s = %q, want %q", c.src, got, c.want)
		}
	}
}
