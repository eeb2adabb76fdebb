package render_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-formguard/pkg/render"
)

type stubTranslator map[string]string

func (t stubTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	if msg, ok := t[key]; ok {
		return msg, nil
	}
	return "", errors.New("missing translation")
}

func TestCatalog_LocaleChain(t *testing.T) {
	catalog := render.Catalog{
		Fallback: "en",
		Messages: map[string]map[string]string{
			"zh":    {"greeting": "你好"},
			"zh-TW": {"greeting": "您好"},
			"en":    {"greeting": "Hello", "count": "%d domains"},
		},
	}

	cases := []struct {
		locale string
		want   string
	}{
		{"zh-TW", "您好"},
		{"zh-CN", "你好"},
		{"fr", "Hello"},
		{"", "Hello"},
	}
	for _, tc := range cases {
		got, err := catalog.Translate(tc.locale, "greeting")
		if err != nil {
			t.Fatalf("translate %q: %v", tc.locale, err)
		}
		if got != tc.want {
			t.Fatalf("translate %q = %q, want %q", tc.locale, got, tc.want)
		}
	}

	got, err := catalog.Translate("en", "count", 3)
	if err != nil || got != "3 domains" {
		t.Fatalf("expected formatted message, got %q (%v)", got, err)
	}

	if _, err := catalog.Translate("en", "unknown"); !errors.Is(err, render.ErrMissingTranslation) {
		t.Fatalf("expected ErrMissingTranslation, got %v", err)
	}
}

func TestCatalog_Merge(t *testing.T) {
	base := render.Catalog{Fallback: "zh-CN", Messages: map[string]map[string]string{
		"en": {"a": "A", "b": "B"},
	}}
	merged := base.Merge(render.Catalog{Messages: map[string]map[string]string{
		"en": {"b": "Bee"},
		"de": {"a": "Ah"},
	}})

	if merged.Fallback != "zh-CN" {
		t.Fatalf("expected fallback preserved, got %q", merged.Fallback)
	}
	if got, _ := merged.Translate("en", "b"); got != "Bee" {
		t.Fatalf("expected override, got %q", got)
	}
	if got, _ := merged.Translate("en", "a"); got != "A" {
		t.Fatalf("expected base message kept, got %q", got)
	}
	if got, _ := merged.Translate("de", "a"); got != "Ah" {
		t.Fatalf("expected new locale, got %q", got)
	}
	if got, _ := base.Translate("en", "b"); got != "B" {
		t.Fatalf("merge must not mutate the receiver, got %q", got)
	}
}

func TestTranslate_Fallbacks(t *testing.T) {
	if got := render.Translate("en", "k", "Fallback", nil, nil); got != "Fallback" {
		t.Fatalf("expected fallback without translator, got %q", got)
	}
	if got := render.Translate("en", "k", "", nil, nil); got != "k" {
		t.Fatalf("expected key without fallback, got %q", got)
	}
	if got := render.Translate("en", "k", "Fallback", stubTranslator{"k": "Translated"}, nil); got != "Translated" {
		t.Fatalf("expected translation, got %q", got)
	}

	var gotErr error
	onMissing := func(_ string, key string, _ []any, err error) string {
		gotErr = err
		return "missing:" + key
	}
	if got := render.Translate("en", "k", "Fallback", nil, onMissing); got != "missing:k" {
		t.Fatalf("expected handler output, got %q", got)
	}
	if !errors.Is(gotErr, render.ErrMissingTranslator) {
		t.Fatalf("expected ErrMissingTranslator, got %v", gotErr)
	}
}

func TestTemplateI18nFuncs(t *testing.T) {
	funcs := render.TemplateI18nFuncs(stubTranslator{"title": "Titre"}, render.TemplateI18nConfig{})

	translate, ok := funcs["translate"].(func(any, string, string) string)
	if !ok {
		t.Fatalf("translate helper has unexpected type %T", funcs["translate"])
	}
	if got := translate("fr", "title", "Title"); got != "Titre" {
		t.Fatalf("expected translation, got %q", got)
	}
	if got := translate("fr", "missing", "Default"); got != "Default" {
		t.Fatalf("expected default fallback, got %q", got)
	}

	current, ok := funcs["current_locale"].(func(any) string)
	if !ok {
		t.Fatalf("current_locale helper has unexpected type %T", funcs["current_locale"])
	}
	if got := current(map[string]any{"locale": "zh-CN"}); got != "zh-CN" {
		t.Fatalf("expected locale from map, got %q", got)
	}
	if got := current(struct{ Locale string }{Locale: "en"}); got != "en" {
		t.Fatalf("expected locale from struct, got %q", got)
	}
	if got := current(nil); got != "" {
		t.Fatalf("expected empty locale for nil, got %q", got)
	}
}
