package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formguard/pkg/render"
)

// Prompter is the terminal rendition of the form guard: it asks for a
// domain, and on a rejected answer shows the guard message and asks again.
type Prompter struct {
	cfg config
}

// NewPrompter constructs a Prompter with defaults (survey driver, three
// attempts, the built-in guard configuration).
func NewPrompter(options ...Option) *Prompter {
	return &Prompter{cfg: newConfig(options)}
}

// Ask returns the first trimmed answer the guard accepts. It fails with
// ErrAborted on Ctrl+C and with ErrTooManyAttempts once every attempt was
// rejected.
func (p *Prompter) Ask(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", errors.New("tui: context is required")
	}

	label := p.label("form.label", "Domain")
	help := p.label("form.placeholder", "example.com")

	for attempt := 1; attempt <= p.cfg.maxAttempts; attempt++ {
		answer, err := p.cfg.driver.Input(ctx, InputConfig{
			Message: p.cfg.theme.PromptPrefix + label,
			Help:    help,
		})
		if err != nil {
			return "", err
		}

		value := strings.TrimSpace(answer)
		if p.cfg.guard.Validator(value) {
			return value, nil
		}
		if err := p.cfg.driver.Info(ctx, p.cfg.theme.ErrorPrefix+p.cfg.guard.Message); err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %d rejected", ErrTooManyAttempts, p.cfg.maxAttempts)
}

// Confirm asks a yes/no question through the driver.
func (p *Prompter) Confirm(ctx context.Context, message string, def bool) (bool, error) {
	return p.cfg.driver.Confirm(ctx, ConfirmConfig{Message: p.cfg.theme.PromptPrefix + message, Default: def})
}

// Info prints a message through the driver.
func (p *Prompter) Info(ctx context.Context, message string) error {
	return p.cfg.driver.Info(ctx, p.cfg.theme.InfoPrefix+message)
}

func (p *Prompter) label(key, fallback string) string {
	return render.Translate(p.cfg.guard.Locale, key, fallback, p.cfg.translator, nil)
}
