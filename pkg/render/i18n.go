package render

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingTranslator is passed to MissingTranslationHandler when no
	// translator was configured.
	ErrMissingTranslator = errors.New("render: translator not configured")
	// ErrMissingTranslation is returned by Catalog when neither the locale nor
	// its base language define the key.
	ErrMissingTranslation = errors.New("render: missing translation")
)

// Translator resolves a message key for a locale. Extra args are applied with
// fmt-style verbs when the message contains any.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// MissingTranslationHandler decides what to show when a key cannot be
// resolved. params carries the call arguments; the first element may be a
// map with a "default" entry holding the caller's fallback.
type MissingTranslationHandler func(locale, key string, params []any, err error) string

// Catalog is an in-memory Translator keyed by locale then message key.
type Catalog struct {
	// Messages maps locale -> key -> message.
	Messages map[string]map[string]string
	// Fallback is consulted after the requested locale and its base language.
	Fallback string
}

// Translate looks the key up in locale, then its base language ("zh" for
// "zh-CN"), then the fallback locale.
func (c Catalog) Translate(locale, key string, args ...any) (string, error) {
	for _, candidate := range localeChain(locale, c.Fallback) {
		messages, ok := c.Messages[candidate]
		if !ok {
			continue
		}
		msg, ok := messages[key]
		if !ok || strings.TrimSpace(msg) == "" {
			continue
		}
		if len(args) > 0 && strings.Contains(msg, "%") {
			return fmt.Sprintf(msg, args...), nil
		}
		return msg, nil
	}
	return "", fmt.Errorf("%w: %s (%s)", ErrMissingTranslation, key, locale)
}

// Merge returns a catalog with other's messages layered over c's.
func (c Catalog) Merge(other Catalog) Catalog {
	out := Catalog{
		Messages: make(map[string]map[string]string, len(c.Messages)+len(other.Messages)),
		Fallback: c.Fallback,
	}
	if other.Fallback != "" {
		out.Fallback = other.Fallback
	}
	for _, src := range []map[string]map[string]string{c.Messages, other.Messages} {
		for locale, messages := range src {
			dst, ok := out.Messages[locale]
			if !ok {
				dst = make(map[string]string, len(messages))
				out.Messages[locale] = dst
			}
			for key, msg := range messages {
				dst[key] = msg
			}
		}
	}
	return out
}

// Translate resolves key through t, falling back to fallback (or the key
// itself) and routing failures through onMissing when set.
func Translate(locale, key, fallback string, t Translator, onMissing MissingTranslationHandler) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}

	if t == nil {
		if onMissing != nil {
			return onMissing(locale, key, []any{map[string]any{"default": fallback}}, ErrMissingTranslator)
		}
		if strings.TrimSpace(fallback) != "" {
			return fallback
		}
		return key
	}

	result, err := t.Translate(locale, key)
	if err == nil && strings.TrimSpace(result) != "" {
		return result
	}

	if onMissing != nil {
		return onMissing(locale, key, []any{map[string]any{"default": fallback}}, err)
	}
	if strings.TrimSpace(fallback) != "" {
		return fallback
	}
	return key
}

func missingTranslationDefault(_ string, key string, params []any, _ error) string {
	for _, param := range params {
		if m, ok := param.(map[string]any); ok {
			if def, ok := m["default"].(string); ok && strings.TrimSpace(def) != "" {
				return def
			}
		}
	}
	return key
}

func localeChain(locale, fallback string) []string {
	locale = strings.TrimSpace(locale)
	chain := make([]string, 0, 3)
	if locale != "" {
		chain = append(chain, locale)
		if base, _, found := strings.Cut(locale, "-"); found && base != "" {
			chain = append(chain, base)
		}
	}
	if fallback = strings.TrimSpace(fallback); fallback != "" && fallback != locale {
		chain = append(chain, fallback)
	}
	return chain
}
