package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/domain"
	"github.com/goliatone/go-formguard/pkg/estimate"
	"github.com/goliatone/go-formguard/pkg/render"
	"github.com/goliatone/go-formguard/pkg/renderers/tui"
	"github.com/goliatone/go-formguard/pkg/store"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database = filepath.Join(t.TempDir(), "history.db")
	return cfg
}

func newOrchestrator(t *testing.T, cfg config.Config, opts ...Option) *Orchestrator {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	opts = append([]Option{WithLogger(logger), WithClock(clock), WithSignalSource(nil)}, opts...)
	o, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(func() { o.Close() })
	return o
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Addr = ""
	if _, err := New(cfg); !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected config error, got %v", err)
	}

	cfg = testConfig(t)
	cfg.Rules = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected rules error")
	}
}

func TestNew_RegistersRenderers(t *testing.T) {
	o := newOrchestrator(t, testConfig(t))
	if diff := cmp.Diff([]string{"tui", "vanilla"}, o.Registry().List()); diff != "" {
		t.Fatalf("renderers mismatch (-want +got):\n%s", diff)
	}
	r, err := o.Registry().Get("")
	if err != nil || r.Name() != "vanilla" {
		t.Fatalf("expected vanilla default, got %v %v", r, err)
	}
	if o.Guard().Locale != "zh-CN" || o.Guard().InputID != "domain" {
		t.Fatalf("unexpected guard %+v", o.Guard())
	}
}

func TestEstimate_RecordsHistory(t *testing.T) {
	o := newOrchestrator(t, testConfig(t))
	ctx := context.Background()

	res, err := o.Estimate(ctx, "shop.com")
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if res.Price != 2292 {
		t.Fatalf("unexpected price %v", res.Price)
	}

	records, err := o.History(ctx, store.Query{})
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 1 || records[0].EstimationID != res.ID {
		t.Fatalf("unexpected records %+v", records)
	}

	if _, err := o.Estimate(ctx, "  "); !errors.Is(err, domain.ErrEmpty) {
		t.Fatalf("expected empty domain error, got %v", err)
	}
}

func TestRender_ByName(t *testing.T) {
	cfg := testConfig(t)
	cfg.Theme.Tokens = map[string]string{"color-primary": "#123456"}
	cfg.Notice = "<em>beta</em>"
	o := newOrchestrator(t, cfg, WithTerminalOptions(tui.WithOutputFormat(tui.OutputFormatJSON)))
	ctx := context.Background()

	html, err := o.Render(ctx, "", render.PageIndex, nil)
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	for _, want := range []string{"#123456", "<em>beta</em>", `id="domain"`} {
		if !strings.Contains(string(html), want) {
			t.Fatalf("expected %q in page\n%s", want, html)
		}
	}

	out, err := o.Render(ctx, "tui", render.PageHistory, map[string]any{"records": []store.Record{}})
	if err != nil {
		t.Fatalf("render tui: %v", err)
	}
	if strings.TrimSpace(string(out)) != "[]" {
		t.Fatalf("expected json output, got %s", out)
	}

	if _, err := o.Render(ctx, "pdf", render.PageIndex, nil); err == nil {
		t.Fatalf("expected unknown renderer error")
	}
}

func TestServer_UsesStore(t *testing.T) {
	o := newOrchestrator(t, testConfig(t))
	srv, err := o.Server(context.Background())
	if err != nil {
		t.Fatalf("server: %v", err)
	}
	if srv.Handler() == nil {
		t.Fatalf("expected handler")
	}
	if _, err := os.Stat(o.Config().Database); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
}

func TestSignalSource(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rules, err := estimate.DefaultRules()
	if err != nil {
		t.Fatalf("rules: %v", err)
	}

	cfg := config.Default()
	source, err := SignalSource(cfg, rules, clock)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if _, ok := source.(*estimate.CachedSource); !ok {
		t.Fatalf("expected cached source, got %T", source)
	}

	cfg.Signals.CacheTTL = 0
	source, err = SignalSource(cfg, rules, clock)
	if err != nil {
		t.Fatalf("source: %v", err)
	}
	if _, ok := source.(*estimate.MultiSource); !ok {
		t.Fatalf("expected uncached source, got %T", source)
	}

	cfg.DNS.Enabled = true
	cfg.DNS.ResolvConf = filepath.Join(t.TempDir(), "missing.conf")
	if _, err := SignalSource(cfg, rules, clock); err == nil {
		t.Fatalf("expected resolver error")
	}

	cfg.DNS.Server = "127.0.0.1:53"
	if _, err := SignalSource(cfg, rules, clock); err != nil {
		t.Fatalf("explicit server should not read resolv.conf: %v", err)
	}
}

func TestManifest_OverridesTokens(t *testing.T) {
	base := Manifest(config.Theme{})
	custom := Manifest(config.Theme{Tokens: map[string]string{"radius": "0"}})
	if custom.Tokens["radius"] != "0" {
		t.Fatalf("expected override, got %q", custom.Tokens["radius"])
	}
	if base.Tokens["radius"] == "0" {
		t.Fatalf("override must not leak into the default manifest")
	}
	if custom.Tokens["color-primary"] != base.Tokens["color-primary"] {
		t.Fatalf("expected untouched tokens to survive")
	}
}
