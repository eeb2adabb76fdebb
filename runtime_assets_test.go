package formguard

import (
	"io/fs"
	"strings"
	"testing"
)

func TestStylesheetFSContainsStylesheet(t *testing.T) {
	data, err := fs.ReadFile(StylesheetFS(), "formguard.css")
	if err != nil {
		t.Fatalf("expected stylesheet to be readable: %v", err)
	}
	if !strings.Contains(string(data), ".fg-input") {
		t.Fatalf("expected stylesheet to style the guarded input")
	}
}

func TestEmbeddedTemplatesIncludePages(t *testing.T) {
	for _, name := range []string{"layout.tmpl", "index.tmpl", "partials/form.tmpl"} {
		if _, err := fs.Stat(EmbeddedTemplates(), name); err != nil {
			t.Fatalf("expected template %s: %v", name, err)
		}
	}
}

func TestScriptMatchesPattern(t *testing.T) {
	script, err := Script(GuardConfig{})
	if err != nil {
		t.Fatalf("script: %v", err)
	}
	if !strings.Contains(string(script), "event.preventDefault();") {
		t.Fatalf("expected submit interception in script")
	}
	if !Valid(" example.com ") || Valid("example") {
		t.Fatalf("unexpected verdicts for Pattern %s", Pattern)
	}
}
