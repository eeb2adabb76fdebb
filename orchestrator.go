// Package formguard guards a domain input form in the browser and values the
// domains that get through. The root package re-exports the entry points most
// callers need.
package formguard

import (
	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/domain"
	"github.com/goliatone/go-formguard/pkg/estimate"
	"github.com/goliatone/go-formguard/pkg/guard"
	"github.com/goliatone/go-formguard/pkg/orchestrator"
	"github.com/goliatone/go-formguard/pkg/render"
)

// Pattern is the domain pattern the guard enforces.
const Pattern = domain.Pattern

// GuardConfig selects the guarded input, form and alert message.
type GuardConfig = guard.Config

// Config is the service configuration.
type Config = config.Config

// Result is one estimation.
type Result = estimate.Result

// RenderOptions describes per-request overrides renderers honour.
type RenderOptions = render.RenderOptions

// Valid reports whether s passes the guard once trimmed.
func Valid(s string) bool {
	return domain.IsValid(s)
}

// LoadConfig reads a YAML configuration file; an empty path yields the
// defaults. FORMGUARD_ environment overrides are applied.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// NewOrchestrator builds the estimator, the renderers and the server wiring
// from cfg.
func NewOrchestrator(cfg Config, options ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(cfg, options...)
}
