package tui

import (
	"github.com/goliatone/go-formguard/pkg/guard"
	"github.com/goliatone/go-formguard/pkg/render"
)

// OutputFormat controls how rendered pages are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// DefaultMaxAttempts bounds how often Prompter.Ask re-prompts.
const DefaultMaxAttempts = 3

// Theme captures optional formatting hints the driver can apply when printing
// messages. Keep minimal to avoid coupling prompt logic to ANSI specifics.
type Theme struct {
	PromptPrefix string
	InfoPrefix   string
	ErrorPrefix  string
}

type config struct {
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
	maxAttempts  int
	guard        guard.Config
	translator   render.Translator
}

// Option configures the prompter and the text renderer.
type Option func(*config)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(c *config) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithOutputFormat selects the output serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(c *config) {
		if format != "" {
			c.outputFormat = format
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(c *config) {
		c.theme = theme
	}
}

// WithMaxAttempts sets how many rejected answers Ask tolerates.
func WithMaxAttempts(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithGuard sets the validator, message and locale used by Ask.
func WithGuard(gc guard.Config) Option {
	return func(c *config) {
		c.guard = gc
	}
}

// WithTranslator sets the catalog prompt labels are read from.
func WithTranslator(t render.Translator) Option {
	return func(c *config) {
		if t != nil {
			c.translator = t
		}
	}
}

func newConfig(options []Option) config {
	cfg := config{
		outputFormat: OutputFormatPrettyText,
		maxAttempts:  DefaultMaxAttempts,
		translator:   guard.Messages,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.guard.Translator == nil {
		cfg.guard.Translator = cfg.translator
	}
	cfg.guard = cfg.guard.WithDefaults()
	if cfg.driver == nil {
		cfg.driver = NewSurveyDriver()
	}
	return cfg
}
