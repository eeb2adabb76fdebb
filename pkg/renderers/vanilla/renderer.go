package vanilla

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"

	theme "github.com/goliatone/go-theme"
	"github.com/jonboulle/clockwork"

	"github.com/goliatone/go-formguard/pkg/guard"
	"github.com/goliatone/go-formguard/pkg/render"
	rendertemplate "github.com/goliatone/go-formguard/pkg/render/template"
	gotemplate "github.com/goliatone/go-formguard/pkg/render/template/gotemplate"
)

const (
	// DefaultScriptURL is where pages load the guard script from.
	DefaultScriptURL = "/static/js/" + guard.ScriptName
	// DefaultStylesheetURL is where pages load the stylesheet from.
	DefaultStylesheetURL = "/static/css/" + StylesheetName
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	guard            guard.Config
	translator       render.Translator
	notice           string
	selector         theme.ThemeSelector
	themeName        string
	themeVariant     string
	scriptURL        string
	stylesheetURL    string
	clock            clockwork.Clock
}

// WithTemplatesFS supplies an alternate template bundle via fs.FS.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithGuard binds the rendered form to the guard's input id and action.
func WithGuard(gc guard.Config) Option {
	return func(cfg *config) {
		cfg.guard = gc
	}
}

// WithTranslator sets the catalog used when RenderOptions carries none.
func WithTranslator(t render.Translator) Option {
	return func(cfg *config) {
		if t != nil {
			cfg.translator = t
		}
	}
}

// WithNotice shows an operator banner on every page. The markup is
// sanitised once, here.
func WithNotice(html string) Option {
	return func(cfg *config) {
		cfg.notice = SanitizeNotice(html)
	}
}

// WithThemeSelector resolves theme tokens per request; name and variant are
// used when RenderOptions does not pick one.
func WithThemeSelector(selector theme.ThemeSelector, name, variant string) Option {
	return func(cfg *config) {
		cfg.selector = selector
		cfg.themeName = name
		cfg.themeVariant = variant
	}
}

// WithAssetURLs overrides where the guard script and stylesheet are loaded
// from. Empty values keep the defaults.
func WithAssetURLs(script, stylesheet string) Option {
	return func(cfg *config) {
		if script != "" {
			cfg.scriptURL = script
		}
		if stylesheet != "" {
			cfg.stylesheetURL = stylesheet
		}
	}
}

// WithClock sets the clock relative history times are computed against.
func WithClock(clock clockwork.Clock) Option {
	return func(cfg *config) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// Renderer renders the HTML pages around the guarded form.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	cfg       config
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the vanilla renderer applying any provided options.
func New(options ...Option) (*Renderer, error) {
	cfg := config{
		templateFS:    TemplatesFS(),
		translator:    guard.Messages,
		scriptURL:     DefaultScriptURL,
		stylesheetURL: DefaultStylesheetURL,
		clock:         clockwork.NewRealClock(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}
	cfg.guard = cfg.guard.WithDefaults()

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(
			gotemplate.WithName("formguard-vanilla"),
			gotemplate.WithFS(cfg.templateFS),
			gotemplate.WithExtension(".tmpl"),
		)
		if err != nil {
			return nil, fmt.Errorf("vanilla renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{templates: renderer, cfg: cfg}, nil
}

func (r *Renderer) Name() string {
	return "vanilla"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render renders page with data. Keys in data win over the renderer's
// defaults, except for the translation helpers.
func (r *Renderer) Render(_ context.Context, page render.Page, data map[string]any, opts render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("vanilla renderer: template renderer is nil")
	}
	if !knownPage(page) {
		return nil, fmt.Errorf("vanilla renderer: unknown page %q", page)
	}

	view, err := r.view(page, data, opts)
	if err != nil {
		return nil, err
	}

	result, err := r.templates.RenderTemplate(string(page), view)
	if err != nil {
		return nil, fmt.Errorf("vanilla renderer: render %s: %w", page, err)
	}
	return []byte(result), nil
}

func (r *Renderer) view(page render.Page, data map[string]any, opts render.RenderOptions) (map[string]any, error) {
	locale := strings.TrimSpace(opts.Locale)
	if locale == "" {
		locale = r.cfg.guard.Locale
	}
	translator := opts.Translator
	if translator == nil {
		translator = r.cfg.translator
	}

	view := map[string]any{
		"page":           string(page),
		"locale":         locale,
		"input_id":       r.cfg.guard.InputID,
		"form_action":    r.cfg.guard.FormAction,
		"script_url":     r.cfg.scriptURL,
		"stylesheet_url": r.cfg.stylesheetURL,
		"notice":         r.cfg.notice,
		"domain":         "",
	}

	if err := r.applyTheme(view, opts); err != nil {
		return nil, err
	}

	for key, value := range data {
		view[key] = value
	}
	typedData(view, data, r.cfg.clock.Now())

	var extra []string
	if raw, ok := data["errors"].([]string); ok {
		extra = raw
	}
	view["errors"] = render.MergeFormErrors(opts.Errors, extra...)

	for name, fn := range render.TemplateI18nFuncs(translator, render.TemplateI18nConfig{OnMissing: opts.OnMissing}) {
		view[name] = fn
	}
	return view, nil
}

func (r *Renderer) applyTheme(view map[string]any, opts render.RenderOptions) error {
	if r.cfg.selector == nil {
		return nil
	}
	name := opts.ThemeName
	if name == "" {
		name = r.cfg.themeName
	}
	variant := opts.ThemeVariant
	if variant == "" {
		variant = r.cfg.themeVariant
	}

	selection, err := r.cfg.selector.Select(name, variant)
	if err != nil {
		return fmt.Errorf("vanilla renderer: select theme: %w", err)
	}
	themeCfg := RendererConfig(selection)
	if themeCfg == nil {
		return nil
	}

	view["theme_name"] = themeCfg.Theme
	view["theme_variant"] = themeCfg.Variant
	view["theme_style"] = cssVarsStyle(themeCfg.CSSVars)
	if url := themeCfg.AssetURL("stylesheet"); url != "" {
		view["stylesheet_url"] = url
	}
	return nil
}

func knownPage(page render.Page) bool {
	for _, p := range render.Pages() {
		if p == page {
			return true
		}
	}
	return false
}
