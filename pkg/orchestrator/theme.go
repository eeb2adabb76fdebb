package orchestrator

import (
	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/renderers/vanilla"
)

// Manifest returns the built-in theme with the configured token overrides
// applied to its base tokens.
func Manifest(cfg config.Theme) *theme.Manifest {
	manifest := vanilla.DefaultManifest()
	if len(cfg.Tokens) == 0 {
		return manifest
	}
	tokens := make(map[string]string, len(manifest.Tokens)+len(cfg.Tokens))
	for key, value := range manifest.Tokens {
		tokens[key] = value
	}
	for key, value := range cfg.Tokens {
		tokens[key] = value
	}
	manifest.Tokens = tokens
	return manifest
}
