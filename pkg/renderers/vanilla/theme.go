package vanilla

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	theme "github.com/goliatone/go-theme"
)

// DefaultThemeName names the built-in manifest.
const DefaultThemeName = "formguard"

// ErrThemeNotFound is returned by Themes.Select for unknown names.
var ErrThemeNotFound = errors.New("vanilla: theme not found")

// DefaultManifest is the built-in theme. Its tokens mirror the custom
// properties declared by the embedded stylesheet.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"color-primary":    "#1f6feb",
			"color-danger":     "#cf222e",
			"color-text":       "#1f2328",
			"color-muted":      "#656d76",
			"color-surface":    "#ffffff",
			"color-background": "#f6f8fa",
			"radius":           "6px",
		},
		Assets: theme.Assets{
			Prefix: "/static/css",
			Files: map[string]string{
				"stylesheet": StylesheetName,
			},
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"color-primary":    "#4493f8",
					"color-text":       "#e6edf3",
					"color-muted":      "#9198a1",
					"color-surface":    "#151b23",
					"color-background": "#0d1117",
				},
			},
		},
	}
}

// Themes resolves theme manifests by name and variant. Manifests are also
// registered with a go-theme registry, which validates them and can be
// handed to other consumers through Provider.
type Themes struct {
	mu        sync.RWMutex
	manifests map[string]*theme.Manifest
	provider  theme.ThemeProvider
	fallback  string
}

var _ theme.ThemeSelector = (*Themes)(nil)

// NewThemes registers manifests. The first manifest becomes the fallback for
// empty names; with no manifests the built-in one is used.
func NewThemes(manifests ...*theme.Manifest) (*Themes, error) {
	if len(manifests) == 0 {
		manifests = []*theme.Manifest{DefaultManifest()}
	}
	registry := theme.NewRegistry()
	t := &Themes{
		manifests: make(map[string]*theme.Manifest, len(manifests)),
		provider:  registry,
	}
	for _, manifest := range manifests {
		if manifest == nil {
			continue
		}
		if err := registry.Register(manifest); err != nil {
			return nil, fmt.Errorf("vanilla: register theme %q: %w", manifest.Name, err)
		}
		t.manifests[manifest.Name] = manifest
		if t.fallback == "" {
			t.fallback = manifest.Name
		}
	}
	return t, nil
}

// Provider exposes the go-theme registry backing t.
func (t *Themes) Provider() theme.ThemeProvider {
	return t.provider
}

// Names lists the registered theme names.
func (t *Themes) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.manifests))
	for name := range t.manifests {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Select implements theme.ThemeSelector. An empty name selects the fallback
// theme; an unknown variant falls back to the base manifest.
func (t *Themes) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	name = strings.TrimSpace(name)
	if name == "" {
		name = t.fallback
	}
	manifest, ok := t.manifests[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrThemeNotFound, name)
	}
	variant = strings.TrimSpace(variant)
	if _, ok := manifest.Variants[variant]; !ok {
		variant = ""
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// RendererConfig flattens a selection into the values templates consume:
// merged tokens, derived CSS variables and an asset resolver.
func RendererConfig(selection *theme.Selection) *theme.RendererConfig {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	manifest := selection.Manifest

	tokens := mergeStrings(manifest.Tokens, nil)
	partials := mergeStrings(manifest.Templates, nil)
	prefix := manifest.Assets.Prefix
	files := mergeStrings(manifest.Assets.Files, nil)

	if v, ok := manifest.Variants[selection.Variant]; ok {
		tokens = mergeStrings(tokens, v.Tokens)
		partials = mergeStrings(partials, v.Templates)
		files = mergeStrings(files, v.Assets.Files)
		if v.Assets.Prefix != "" {
			prefix = v.Assets.Prefix
		}
	}

	cssVars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		if !safeTokenValue(value) {
			continue
		}
		cssVars["--"+strings.TrimPrefix(key, "--")] = value
	}

	return &theme.RendererConfig{
		Theme:    selection.Theme,
		Variant:  selection.Variant,
		Partials: partials,
		Tokens:   tokens,
		CSSVars:  cssVars,
		AssetURL: func(key string) string {
			file, ok := files[key]
			if !ok || file == "" {
				return ""
			}
			if strings.Contains(file, "://") || strings.HasPrefix(file, "/") {
				return file
			}
			return path.Join("/", prefix, file)
		},
	}
}

// cssVarsStyle renders vars as a sorted :root rule.
func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

// safeTokenValue rejects values that could escape the declaration or the
// style element.
func safeTokenValue(value string) bool {
	return strings.TrimSpace(value) != "" && !strings.ContainsAny(value, "<>{};")
}

func mergeStrings(base, overlay map[string]string) map[string]string {
	if len(base) == 0 && len(overlay) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(base)+len(overlay))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range overlay {
		out[key] = value
	}
	return out
}
