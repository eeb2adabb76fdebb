package render

// RenderOptions describe per-request data that renderers can use to customise
// their output without touching the page data itself.
type RenderOptions struct {
	// Locale selects the catalog used for labels and the guard message, e.g.
	// "zh-CN" or "en".
	Locale string
	// Translator resolves message keys. When nil, renderers fall back to the
	// literal defaults baked into their templates.
	Translator Translator
	// OnMissing controls the string used when a key cannot be translated.
	OnMissing MissingTranslationHandler
	// Errors surfaces form-level messages (for example a rejected submission)
	// above the form.
	Errors []string
	// ThemeName and ThemeVariant pick a theme manifest; empty values use the
	// renderer defaults.
	ThemeName    string
	ThemeVariant string
}
