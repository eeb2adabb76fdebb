package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/estimate"
	"github.com/goliatone/go-formguard/pkg/guard"
	"github.com/goliatone/go-formguard/pkg/render"
	"github.com/goliatone/go-formguard/pkg/renderers/tui"
	"github.com/goliatone/go-formguard/pkg/renderers/vanilla"
	"github.com/goliatone/go-formguard/pkg/server"
	"github.com/goliatone/go-formguard/pkg/store"
)

const defaultRendererName = "vanilla"

// Option customises the orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger handed to every component.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithClock sets the clock shared by the estimator, the signal cache and the
// store.
func WithClock(clock clockwork.Clock) Option {
	return func(o *Orchestrator) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithSignalSource replaces the sources derived from configuration. Passing
// nil disables signals.
func WithSignalSource(source estimate.SignalSource) Option {
	return func(o *Orchestrator) {
		o.source = source
		o.sourceSet = true
	}
}

// WithTerminalOptions configures the tui renderer and prompter.
func WithTerminalOptions(options ...tui.Option) Option {
	return func(o *Orchestrator) {
		o.tuiOptions = append(o.tuiOptions, options...)
	}
}

// WithMetricsRegistry sets the registry server metrics are registered on.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(o *Orchestrator) {
		o.metrics = reg
	}
}

// WithVersion stamps the server's health endpoint and API description.
func WithVersion(version string) Option {
	return func(o *Orchestrator) {
		o.version = version
	}
}

// Orchestrator owns the components built from one Config.
type Orchestrator struct {
	cfg        config.Config
	logger     logrus.FieldLogger
	clock      clockwork.Clock
	source     estimate.SignalSource
	sourceSet  bool
	tuiOptions []tui.Option
	metrics    *prometheus.Registry
	version    string

	guard    guard.Config
	service  *estimate.Service
	registry *render.Registry

	storeOnce sync.Once
	store     *store.Store
	storeErr  error
}

// New builds the estimator and the renderer registry from cfg. The store is
// opened on first use.
func New(cfg config.Config, options ...Option) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		cfg:    cfg,
		logger: logrus.StandardLogger(),
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}

	rules, err := loadRules(cfg.Rules)
	if err != nil {
		return nil, err
	}
	if !o.sourceSet {
		if o.source, err = SignalSource(cfg, rules, o.clock); err != nil {
			return nil, err
		}
	}
	o.service, err = estimate.NewService(
		estimate.WithRules(rules),
		estimate.WithSignalSource(o.source),
		estimate.WithClock(o.clock),
		estimate.WithLogger(o.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	o.guard = guard.Config{Locale: cfg.Locale, Translator: guard.Messages}.WithDefaults()
	if o.registry, err = o.renderers(); err != nil {
		return nil, err
	}
	return o, nil
}

func loadRules(path string) (*estimate.Rules, error) {
	if path == "" {
		return estimate.DefaultRules()
	}
	return estimate.LoadRules(path)
}

func (o *Orchestrator) renderers() (*render.Registry, error) {
	themes, err := vanilla.NewThemes(Manifest(o.cfg.Theme))
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	html, err := vanilla.New(
		vanilla.WithGuard(o.guard),
		vanilla.WithTranslator(guard.Messages),
		vanilla.WithNotice(o.cfg.Notice),
		vanilla.WithThemeSelector(themes, o.cfg.Theme.Name, o.cfg.Theme.Variant),
		vanilla.WithClock(o.clock),
	)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}

	registry := render.NewRegistry()
	if err := registry.Register(html); err != nil {
		return nil, err
	}
	if err := registry.Register(tui.New(o.terminalOptions()...)); err != nil {
		return nil, err
	}
	if err := registry.SetDefault(defaultRendererName); err != nil {
		return nil, err
	}
	return registry, nil
}

func (o *Orchestrator) terminalOptions() []tui.Option {
	return append([]tui.Option{tui.WithGuard(o.guard)}, o.tuiOptions...)
}

// Config returns the configuration o was built from.
func (o *Orchestrator) Config() config.Config { return o.cfg }

// Guard returns the effective guard configuration.
func (o *Orchestrator) Guard() guard.Config { return o.guard }

// Service returns the estimator.
func (o *Orchestrator) Service() *estimate.Service { return o.service }

// Registry returns the renderers by name: "vanilla" and "tui".
func (o *Orchestrator) Registry() *render.Registry { return o.registry }

// Prompter returns a terminal prompter guarded like the web form.
func (o *Orchestrator) Prompter() *tui.Prompter {
	return tui.NewPrompter(o.terminalOptions()...)
}

// Store opens the history database once.
func (o *Orchestrator) Store(ctx context.Context) (*store.Store, error) {
	o.storeOnce.Do(func() {
		o.store, o.storeErr = store.Open(ctx, store.Config{Path: o.cfg.Database, Clock: o.clock})
	})
	return o.store, o.storeErr
}

// Estimate values raw and records it. A failed history write is logged and
// the result is still returned.
func (o *Orchestrator) Estimate(ctx context.Context, raw string) (*estimate.Result, error) {
	res, err := o.service.Estimate(ctx, raw)
	if err != nil {
		return nil, err
	}
	st, err := o.Store(ctx)
	if err == nil {
		_, err = st.Save(ctx, res)
	}
	if err != nil {
		o.logger.WithError(err).WithField("domain", res.Domain).Warn("Failed to save history.")
	}
	return res, nil
}

// History lists recorded estimations.
func (o *Orchestrator) History(ctx context.Context, q store.Query) ([]store.Record, error) {
	st, err := o.Store(ctx)
	if err != nil {
		return nil, err
	}
	return st.History(ctx, q)
}

// Render renders page with the named renderer; an empty name selects
// "vanilla".
func (o *Orchestrator) Render(ctx context.Context, rendererName string, page render.Page, data map[string]any) ([]byte, error) {
	r, err := o.registry.Get(rendererName)
	if err != nil {
		return nil, err
	}
	return r.Render(ctx, page, data, render.RenderOptions{Locale: o.guard.Locale})
}

// Server builds the HTTP server on top of the estimator and the store.
func (o *Orchestrator) Server(ctx context.Context) (*server.Server, error) {
	st, err := o.Store(ctx)
	if err != nil {
		return nil, err
	}
	html, err := o.registry.Get(defaultRendererName)
	if err != nil {
		return nil, err
	}
	return server.New(ctx, o.service, st,
		server.WithAddr(o.cfg.Addr),
		server.WithGuard(o.guard),
		server.WithTranslator(guard.Messages),
		server.WithRenderer(html),
		server.WithLogger(o.logger),
		server.WithRegistry(o.metrics),
		server.WithClock(o.clock),
		server.WithVersion(o.version),
	)
}

// Close releases the store when it was opened.
func (o *Orchestrator) Close() error {
	if o.store == nil {
		return nil
	}
	return o.store.Close()
}
