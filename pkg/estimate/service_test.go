package estimate

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/goliatone/go-formguard/pkg/domain"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 0.011
}

func fixedSource(s Signals) SignalSource {
	return SourceFunc(func(context.Context, domain.Info) (Signals, error) {
		return s, nil
	})
}

func TestEstimate_StaticAndKeywordRules(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	svc, err := NewService(
		WithSignalSource(nil),
		WithClock(clock),
		WithIDGenerator(func() string { return "id-1" }),
	)
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	res, err := svc.Estimate(context.Background(), "https://www.Shop.com/path")
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}

	if res.ID != "id-1" || res.Domain != "Shop.com" || !res.EstimatedAt.Equal(clock.Now()) {
		t.Fatalf("unexpected envelope %+v", res)
	}
	// 25 * 9.55 (com) * 4 (length 4) * 1.5 (alpha) * 1.6 (shop keyword)
	if !approx(res.Price, 2292) {
		t.Fatalf("unexpected price %v", res.Price)
	}
	// -0.5 + 0.5 + 0.6 + 0.2 + 0.3
	if !approx(res.Grade, 1.1) {
		t.Fatalf("unexpected grade %v", res.Grade)
	}

	var names []string
	for _, attr := range res.BaseAttributes {
		names = append(names, attr.Value)
	}
	if diff := cmp.Diff([]string{"com", "4", "alpha"}, names); diff != "" {
		t.Fatalf("base attributes mismatch (-want +got):\n%s", diff)
	}
	if len(res.OtherAttributes) != 1 || res.OtherAttributes[0].Value != "shop" {
		t.Fatalf("expected keyword fallback, got %+v", res.OtherAttributes)
	}
}

func TestEstimate_SignalFactors(t *testing.T) {
	svc, err := NewService(WithSignalSource(fixedSource(Signals{
		Rank:         5_000,
		SearchVolume: 500,
		Related:      map[string]bool{"net": true, "cn": false},
		Listings:     2_000,
	})))
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	res, err := svc.Estimate(context.Background(), "shop.com")
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}

	type factor struct {
		Name  string
		Price float64
		Grade float64
	}
	var got []factor
	for _, attr := range res.OtherAttributes {
		got = append(got, factor{attr.Name, attr.PriceFactor, attr.GradeFactor})
	}
	want := []factor{
		{"excellent rank", 2.5, 0.8},
		{"search volume", 1.0, 0},
		{"cn related domain unregistered", 0.65, -0.2},
		{"net related domain registered", 0.86, -0.1},
		{"many marketplace listings", 1.5, 0.3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("signal attributes mismatch (-want +got):\n%s", diff)
	}
	if res.OtherAttributes[2].Description != "shop.cn unregistered" {
		t.Fatalf("unexpected related description %q", res.OtherAttributes[2].Description)
	}
	if res.OtherAttributes[0].Description != "rank 5,000" {
		t.Fatalf("unexpected rank description %q", res.OtherAttributes[0].Description)
	}

	// 1432.5 static, then 2.5 * 1.0 * 0.65 * 0.86 * 1.5
	if !approx(res.Price, 3002.88) {
		t.Fatalf("unexpected price %v", res.Price)
	}
	if !approx(res.Grade, 1.6) {
		t.Fatalf("unexpected grade %v", res.Grade)
	}
	if _, err := uuid.Parse(res.ID); err != nil {
		t.Fatalf("expected uuid id, got %q", res.ID)
	}
}

func TestSignalTiers(t *testing.T) {
	cases := []struct {
		name    string
		signals Signals
		want    string
	}{
		{"rank good", Signals{Rank: 50_000}, "good rank"},
		{"rank fair", Signals{Rank: 500_000}, "fair rank"},
		{"rank plain", Signals{Rank: 5_000_000}, "rank"},
		{"search huge", Signals{SearchVolume: 20_000}, "huge search volume"},
		{"search very high", Signals{SearchVolume: 6_000}, "very high search volume"},
		{"search high", Signals{SearchVolume: 1_001}, "high search volume"},
		{"forum many", Signals{ForumPosts: 10_001}, "very active forums"},
		{"forum some", Signals{ForumPosts: 1}, "forum mentions"},
		{"listings some", Signals{Listings: 1_000}, "marketplace listings"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			attrs := signalAttributes(tc.signals, "stem")
			if len(attrs) != 1 || attrs[0].Name != tc.want {
				t.Fatalf("expected %q, got %+v", tc.want, attrs)
			}
		})
	}

	if attrs := signalAttributes(Signals{Registrar: "x"}, "stem"); len(attrs) != 0 {
		t.Fatalf("expected no factor from registrar alone, got %+v", attrs)
	}
}

func TestEstimate_ParseErrors(t *testing.T) {
	svc, err := NewService(WithSignalSource(nil))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if _, err := svc.Estimate(context.Background(), "   "); !errors.Is(err, domain.ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	if _, err := svc.Estimate(context.Background(), "localhost"); !errors.Is(err, domain.ErrSingleLabel) {
		t.Fatalf("expected ErrSingleLabel, got %v", err)
	}
}

func TestEstimate_SignalFailureIsLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	svc, err := NewService(
		WithLogger(logger),
		WithSignalSource(SourceFunc(func(context.Context, domain.Info) (Signals, error) {
			return Signals{}, errors.New("unreachable")
		})),
	)
	if err != nil {
		t.Fatalf("service: %v", err)
	}

	res, err := svc.Estimate(context.Background(), "myapp.io")
	if err != nil {
		t.Fatalf("expected estimation to continue, got %v", err)
	}
	if len(res.OtherAttributes) != 1 || res.OtherAttributes[0].Value != "app" {
		t.Fatalf("expected keyword fallback, got %+v", res.OtherAttributes)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel || entry.Data["domain"] != "myapp.io" {
		t.Fatalf("expected a warning about signals, got %+v", entry)
	}
}

func TestEstimate_CancelledContext(t *testing.T) {
	svc, err := NewService(WithSignalSource(SourceFunc(func(ctx context.Context, _ domain.Info) (Signals, error) {
		return Signals{}, ctx.Err()
	})))
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.Estimate(ctx, "example.com"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewService_DefaultSource(t *testing.T) {
	svc, err := NewService()
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	if _, ok := svc.source.(*CachedSource); !ok {
		t.Fatalf("expected cached heuristic source, got %T", svc.source)
	}
	res, err := svc.Estimate(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if res.Price <= 0 || len(res.OtherAttributes) == 0 {
		t.Fatalf("expected heuristic signals to contribute, got %+v", res)
	}
}
