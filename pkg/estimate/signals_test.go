package estimate

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/miekg/dns"

	"github.com/goliatone/go-formguard/pkg/domain"
)

func mustParse(t *testing.T, raw string) domain.Info {
	t.Helper()
	info, err := domain.Parse(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return info
}

func TestStem(t *testing.T) {
	cases := map[string]string{
		"example.com":      "example",
		"shop.example.com": "example",
		"example.co.uk":    "example",
		"Example.COM":      "example",
	}
	for raw, want := range cases {
		if got := Stem(mustParse(t, raw)); got != want {
			t.Fatalf("Stem(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestHeuristicSource_Deterministic(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 6, 15, 4, 5, 0, time.UTC))
	src := HeuristicSource{Clock: clock}
	info := mustParse(t, "cloudshop.com")

	first, err := src.Signals(context.Background(), info)
	if err != nil {
		t.Fatalf("signals: %v", err)
	}
	second, _ := src.Signals(context.Background(), info)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("expected stable signals (-first +second):\n%s", diff)
	}

	if first.Rank < 100 || first.SearchVolume < 100 {
		t.Fatalf("expected floors applied, got %+v", first)
	}
	if first.ForumPosts < 1000 || first.Listings < 100 {
		t.Fatalf("unexpected social figures %+v", first)
	}
	today := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	if !first.RegisteredAt.Before(today) || !first.ExpiresAt.After(today) {
		t.Fatalf("unexpected dates registered=%s expires=%s", first.RegisteredAt, first.ExpiresAt)
	}
	if first.Registrar == "" {
		t.Fatalf("expected a registrar")
	}
}

func TestHeuristicSource_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (HeuristicSource{}).Signals(ctx, mustParse(t, "example.com")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMultiSource(t *testing.T) {
	info := mustParse(t, "example.com")
	boom := errors.New("boom")

	ok := SourceFunc(func(context.Context, domain.Info) (Signals, error) {
		return Signals{Rank: 10, Related: map[string]bool{"net": true}}, nil
	})
	later := SourceFunc(func(context.Context, domain.Info) (Signals, error) {
		return Signals{Rank: 20, Related: map[string]bool{"cn": false}}, nil
	})
	failing := SourceFunc(func(context.Context, domain.Info) (Signals, error) {
		return Signals{}, boom
	})

	got, err := Combine(ok, failing, later, nil).Signals(context.Background(), info)
	if err != nil {
		t.Fatalf("expected partial failure tolerated, got %v", err)
	}
	want := Signals{Rank: 20, Related: map[string]bool{"net": true, "cn": false}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("merged signals mismatch (-want +got):\n%s", diff)
	}

	_, err = Combine(failing, failing).Signals(context.Background(), info)
	if !errors.Is(err, ErrNoSignals) || !errors.Is(err, boom) {
		t.Fatalf("expected ErrNoSignals wrapping the cause, got %v", err)
	}

	got, err = Combine().Signals(context.Background(), info)
	if err != nil || !got.Empty() {
		t.Fatalf("expected empty signals from no sources, got %+v, %v", got, err)
	}
}

func TestCachedSource(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var calls atomic.Int32
	var fail atomic.Bool
	src := SourceFunc(func(context.Context, domain.Info) (Signals, error) {
		calls.Add(1)
		if fail.Load() {
			return Signals{}, errors.New("down")
		}
		return Signals{Rank: int(calls.Load())}, nil
	})
	cache := NewCachedSource(src, time.Hour, clock)
	info := mustParse(t, "example.com")
	ctx := context.Background()

	first, _ := cache.Signals(ctx, info)
	second, _ := cache.Signals(ctx, mustParse(t, "EXAMPLE.com"))
	if calls.Load() != 1 || first.Rank != second.Rank {
		t.Fatalf("expected cached answer, calls=%d first=%d second=%d", calls.Load(), first.Rank, second.Rank)
	}

	clock.Advance(time.Hour)
	third, _ := cache.Signals(ctx, info)
	if calls.Load() != 2 || third.Rank != 2 {
		t.Fatalf("expected refresh after ttl, calls=%d rank=%d", calls.Load(), third.Rank)
	}

	fail.Store(true)
	if _, err := cache.Signals(ctx, mustParse(t, "other.com")); err == nil {
		t.Fatalf("expected error from failing source")
	}
	if _, err := cache.Signals(ctx, mustParse(t, "other.com")); err == nil {
		t.Fatalf("expected failures not to be cached")
	}
	if cache.Len() != 1 {
		t.Fatalf("expected one cached domain, got %d", cache.Len())
	}
}

func TestCachedSource_Defaults(t *testing.T) {
	cache := NewCachedSource(SourceFunc(func(context.Context, domain.Info) (Signals, error) {
		return Signals{}, nil
	}), 0, nil)
	if cache.ttl != DefaultCacheTTL || cache.clock == nil {
		t.Fatalf("expected defaults, got ttl=%s", cache.ttl)
	}
}

// startDNS serves NS answers for the names in zones and NXDOMAIN for
// everything else.
func startDNS(t *testing.T, zones map[string]int) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	server := &dns.Server{
		PacketConn: pc,
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			q := r.Question[0]
			rcode, ok := zones[strings.TrimSuffix(strings.ToLower(q.Name), ".")]
			if !ok {
				rcode = dns.RcodeNameError
			}
			m := new(dns.Msg)
			m.SetRcode(r, rcode)
			if rcode == dns.RcodeSuccess {
				m.Answer = append(m.Answer, &dns.NS{
					Hdr: dns.RR_Header{Name: q.Name, Rrtype: dns.TypeNS, Class: dns.ClassINET, Ttl: 60},
					Ns:  "ns1.example.net.",
				})
			}
			_ = w.WriteMsg(m)
		}),
	}
	started := make(chan struct{})
	server.NotifyStartedFunc = func() { close(started) }
	go func() { _ = server.ActivateAndServe() }()
	<-started
	t.Cleanup(func() { _ = server.Shutdown() })

	return pc.LocalAddr().String()
}

func TestDNSProber(t *testing.T) {
	addr := startDNS(t, map[string]int{
		"example.net": dns.RcodeSuccess,
		"example.org": dns.RcodeServerFailure,
	})
	prober := NewDNSProber(addr, time.Second, "com", "net", "cn", "org")

	got, err := prober.Signals(context.Background(), mustParse(t, "shop.example.com"))
	if err != nil {
		t.Fatalf("signals: %v", err)
	}
	want := map[string]bool{"net": true, "cn": false}
	if diff := cmp.Diff(want, got.Related); diff != "" {
		t.Fatalf("related mismatch (-want +got):\n%s", diff)
	}

	if _, err := prober.Registered(context.Background(), "example.org"); !errors.Is(err, ErrProbe) {
		t.Fatalf("expected ErrProbe for SERVFAIL, got %v", err)
	}
}

func TestDNSProber_AllFailed(t *testing.T) {
	addr := startDNS(t, map[string]int{"example.net": dns.RcodeRefused})
	prober := NewDNSProber(addr, time.Second, "net")

	if _, err := prober.Signals(context.Background(), mustParse(t, "example.com")); !errors.Is(err, ErrProbe) {
		t.Fatalf("expected ErrProbe when every probe fails, got %v", err)
	}

	got, err := NewDNSProber(addr, time.Second, "com").Signals(context.Background(), mustParse(t, "example.com"))
	if err != nil || !got.Empty() {
		t.Fatalf("expected own tld skipped, got %+v, %v", got, err)
	}
}

func TestSystemResolver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resolv.conf")
	if err := os.WriteFile(path, []byte("nameserver 192.0.2.53\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := SystemResolver(path)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	if got != "192.0.2.53:53" {
		t.Fatalf("unexpected resolver %q", got)
	}
}
