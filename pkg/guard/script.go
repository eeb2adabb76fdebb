package guard

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"sync"

	"github.com/goliatone/go-formguard/pkg/domain"
	"github.com/goliatone/go-formguard/pkg/render/template/gotemplate"
)

// ScriptName is the file name the browser script is served under.
const ScriptName = "formguard.js"

// ScriptVersion is stamped into the generated script header.
const ScriptVersion = "v0.3.0"

//go:embed assets/*.tmpl
var embeddedAssets embed.FS

var (
	scriptEngineOnce sync.Once
	scriptEngine     *gotemplate.Engine
	scriptEngineErr  error
)

// AssetsFS exposes the raw script template for callers that want to render
// it through their own engine.
func AssetsFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		return embeddedAssets
	}
	return sub
}

// Script renders the browser rendition of the guard for cfg. Identifiers,
// message and pattern are injected as JSON literals so the browser evaluates
// exactly what the Go guard evaluates. A custom cfg.Validator cannot be
// expressed in JavaScript; the script always tests domain.Pattern.
func Script(cfg Config) ([]byte, error) {
	cfg = cfg.WithDefaults()

	engine, err := loadScriptEngine()
	if err != nil {
		return nil, err
	}

	data := map[string]any{"version": ScriptVersion}
	literals := map[string]string{
		"input_id":      cfg.InputID,
		"form_selector": FormSelector(cfg.FormAction),
		"message":       cfg.Message,
		"pattern":       domain.Pattern,
	}
	for key, value := range literals {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("guard: encode %s: %w", key, err)
		}
		data[key] = string(encoded)
	}

	out, err := engine.RenderTemplate("formguard", data)
	if err != nil {
		return nil, fmt.Errorf("guard: render script: %w", err)
	}
	return []byte(out), nil
}

// FormSelector returns the CSS selector matching a form by action.
func FormSelector(action string) string {
	return fmt.Sprintf("form[action=%q]", action)
}

func loadScriptEngine() (*gotemplate.Engine, error) {
	scriptEngineOnce.Do(func() {
		scriptEngine, scriptEngineErr = gotemplate.New(
			gotemplate.WithName("formguard-script"),
			gotemplate.WithFS(AssetsFS()),
			gotemplate.WithExtension(".js.tmpl"),
		)
	})
	return scriptEngine, scriptEngineErr
}
