package guard

import (
	"strings"
	"sync/atomic"

	"github.com/goliatone/go-formguard/pkg/domain"
	"github.com/goliatone/go-formguard/pkg/render"
)

const (
	// DefaultInputID is the id of the guarded input element.
	DefaultInputID = "domain"
	// DefaultFormAction is the action attribute of the guarded form.
	DefaultFormAction = "/estimate"
)

// Config selects the elements the guard binds to and what it says on
// rejection. The zero value guards <form action="/estimate"> with the
// domain pattern and the default Chinese message.
type Config struct {
	InputID    string
	FormAction string
	// Message overrides the alert text. When empty the text is resolved from
	// Translator (or the built-in Messages) for Locale.
	Message    string
	Locale     string
	Translator render.Translator
	// Validator decides whether the trimmed value may be submitted. Defaults
	// to domain.IsValid.
	Validator func(string) bool
}

// WithDefaults returns a copy of c with empty fields filled in.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.InputID) == "" {
		c.InputID = DefaultInputID
	}
	if strings.TrimSpace(c.FormAction) == "" {
		c.FormAction = DefaultFormAction
	}
	if c.Locale == "" {
		c.Locale = DefaultLocale
	}
	if c.Message == "" {
		c.Message = Message(c.Locale, c.Translator)
	}
	if c.Validator == nil {
		c.Validator = domain.IsValid
	}
	return c
}

// Guard is a form guard bound to one document.
type Guard struct {
	cfg      Config
	alerter  Alerter
	input    Element
	hasInput bool
	attached bool

	blocked atomic.Int64
	allowed atomic.Int64
}

// Attach runs the page-ready step: it focuses the input when present and
// registers the submit interceptor when the form is present. Missing
// elements are tolerated silently.
func Attach(doc Document, alerter Alerter, cfg Config) *Guard {
	g := &Guard{
		cfg:     cfg.WithDefaults(),
		alerter: alerter,
	}
	if doc == nil {
		return g
	}

	g.input, g.hasInput = doc.ElementByID(g.cfg.InputID)
	if g.hasInput {
		g.input.Focus()
	}

	form, ok := doc.FormByAction(g.cfg.FormAction)
	if !ok {
		return g
	}
	form.OnSubmit(func(event SubmitEvent) {
		g.Submit(event)
	})
	g.attached = true
	return g
}

// Submit intercepts one submission. It reports whether the default action
// was allowed to proceed. On rejection the event is cancelled, the alert is
// shown and focus returns to the input.
func (g *Guard) Submit(event SubmitEvent) bool {
	var value string
	if g.hasInput {
		value = g.input.Value()
	}
	if g.cfg.Validator(strings.TrimSpace(value)) {
		g.allowed.Add(1)
		return true
	}

	g.blocked.Add(1)
	if event != nil {
		event.PreventDefault()
	}
	if g.alerter != nil {
		g.alerter.Alert(g.cfg.Message)
	}
	if g.hasInput {
		g.input.Focus()
	}
	return false
}

// Attached reports whether a submit interceptor was registered.
func (g *Guard) Attached() bool {
	return g.attached
}

// Config returns the effective configuration.
func (g *Guard) Config() Config {
	return g.cfg
}

// Stats returns the number of blocked and allowed submissions so far.
func (g *Guard) Stats() (blocked, allowed int64) {
	return g.blocked.Load(), g.allowed.Load()
}
