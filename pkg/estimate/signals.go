package estimate

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/miekg/dns"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formguard/pkg/domain"
)

// DefaultCacheTTL is how long CachedSource keeps signals for a domain.
const DefaultCacheTTL = 24 * time.Hour

// DefaultDNSTimeout bounds a single related-domain query.
const DefaultDNSTimeout = 2 * time.Second

var (
	// ErrNoSignals is returned by MultiSource when every source failed.
	ErrNoSignals = errors.New("estimate: no signal source succeeded")
	// ErrProbe is returned when a DNS answer neither confirms nor denies
	// that a name exists.
	ErrProbe = errors.New("estimate: inconclusive dns answer")
)

// SignalSource observes external figures for a domain.
type SignalSource interface {
	Signals(ctx context.Context, info domain.Info) (Signals, error)
}

// SourceFunc adapts a function to SignalSource.
type SourceFunc func(ctx context.Context, info domain.Info) (Signals, error)

// Signals implements SignalSource.
func (f SourceFunc) Signals(ctx context.Context, info domain.Info) (Signals, error) {
	return f(ctx, info)
}

// Stem returns the registrable label of a domain: "example" for both
// "shop.example.com" and "example.co.uk".
func Stem(info domain.Info) string {
	rest := strings.ToLower(info.Label)
	name := strings.ToLower(info.Name)
	if suffix := info.PublicSuffix; suffix != "" && strings.HasSuffix(name, "."+suffix) {
		rest = strings.TrimSuffix(name, "."+suffix)
	}
	if idx := strings.LastIndex(rest, "."); idx >= 0 {
		rest = rest[idx+1:]
	}
	return rest
}

// MultiSource queries several sources concurrently and merges what they
// observe. Later sources win on overlapping fields.
type MultiSource struct {
	sources []SignalSource
}

// Combine builds a MultiSource. Nil sources are skipped.
func Combine(sources ...SignalSource) *MultiSource {
	m := &MultiSource{}
	for _, src := range sources {
		if src != nil {
			m.sources = append(m.sources, src)
		}
	}
	return m
}

// Signals implements SignalSource. Partial failures are tolerated; an error
// is returned only when every source failed.
func (m *MultiSource) Signals(ctx context.Context, info domain.Info) (Signals, error) {
	if len(m.sources) == 0 {
		return Signals{}, nil
	}

	results := make([]Signals, len(m.sources))
	errs := make([]error, len(m.sources))

	var g errgroup.Group
	for i, src := range m.sources {
		g.Go(func() error {
			results[i], errs[i] = src.Signals(ctx, info)
			return nil
		})
	}
	_ = g.Wait()

	var (
		merged Signals
		failed int
	)
	for i := range m.sources {
		if errs[i] != nil {
			failed++
			continue
		}
		merged = merged.Merge(results[i])
	}
	if failed == len(m.sources) {
		return Signals{}, fmt.Errorf("%w: %w", ErrNoSignals, errors.Join(errs...))
	}
	return merged, nil
}

var (
	commonWords = []string{"news", "shop", "blog", "tech", "game", "app", "web", "cloud"}
	registrars  = []string{"GoDaddy", "Namecheap", "Alibaba Cloud", "Tencent Cloud", "NameSilo"}
)

// HeuristicSource derives plausible figures from the shape of the name.
// The figures are stable for a given name: the variation comes from an FNV
// hash instead of a random source.
type HeuristicSource struct {
	Clock clockwork.Clock
}

// Signals implements SignalSource.
func (h HeuristicSource) Signals(ctx context.Context, info domain.Info) (Signals, error) {
	if err := ctx.Err(); err != nil {
		return Signals{}, err
	}
	clock := h.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	name := strings.ToLower(info.Name)
	stem := Stem(info)
	sum := hashName(name)

	rank := 1_000_000
	if len(name) < 10 {
		rank /= 12 - len(name)
	}
	if containsAny(name, commonWords) {
		rank /= 2
	}
	rank += int(sum%10_000) - 5_000
	if rank < 100 {
		rank = 100 + int(sum%900)
	}

	volume := 1_000
	if len(stem) < 6 {
		volume *= 7 - len(stem)
	}
	if containsAny(stem, commonWords) {
		volume *= 3
	}
	volume += int((sum>>8)%1_000) - 500
	if volume < 100 {
		volume = 100 + int(sum%900)
	}

	years := int((sum >> 4) % 10)
	today := day(clock.Now())

	return Signals{
		Rank:         rank,
		SearchVolume: volume,
		ForumPosts:   1_000 + len(stem)*500 + int((sum>>12)%10_000),
		Listings:     100 + len(stem)*50 + int((sum>>16)%1_000),
		Registrar:    registrars[int(sum%uint32(len(registrars)))],
		RegisteredAt: today.AddDate(-(1 + years), 0, 0),
		ExpiresAt:    today.AddDate(1+years%3, 0, 0),
	}, nil
}

func hashName(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DNSProber reports whether the stem of a domain is registered under other
// TLDs by asking a resolver for NS records. NXDOMAIN means unregistered.
type DNSProber struct {
	// Server is the resolver address, host:port.
	Server string
	// TLDs are the related TLDs to probe. The domain's own TLD is skipped.
	TLDs []string
	// Timeout bounds each query. Defaults to DefaultDNSTimeout.
	Timeout time.Duration

	client *dns.Client
	once   sync.Once
}

// NewDNSProber returns a prober asking server about tlds.
func NewDNSProber(server string, timeout time.Duration, tlds ...string) *DNSProber {
	return &DNSProber{Server: server, TLDs: tlds, Timeout: timeout}
}

// SystemResolver returns the first nameserver configured in resolvConf,
// usually /etc/resolv.conf.
func SystemResolver(resolvConf string) (string, error) {
	cfg, err := dns.ClientConfigFromFile(resolvConf)
	if err != nil {
		return "", fmt.Errorf("estimate: read %s: %w", resolvConf, err)
	}
	if len(cfg.Servers) == 0 {
		return "", fmt.Errorf("estimate: no nameserver in %s", resolvConf)
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port), nil
}

// Signals implements SignalSource.
func (p *DNSProber) Signals(ctx context.Context, info domain.Info) (Signals, error) {
	stem := Stem(info)
	if stem == "" {
		return Signals{}, nil
	}

	var (
		mu      sync.Mutex
		related = make(map[string]bool, len(p.TLDs))
		g       errgroup.Group
	)
	for _, tld := range p.TLDs {
		if tld == "" || tld == info.TLD {
			continue
		}
		g.Go(func() error {
			registered, err := p.Registered(ctx, stem+"."+tld)
			if err != nil {
				return err
			}
			mu.Lock()
			related[tld] = registered
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	if err != nil && len(related) == 0 {
		return Signals{}, err
	}
	if len(related) == 0 {
		return Signals{}, nil
	}
	return Signals{Related: related}, nil
}

// Registered reports whether name exists in the DNS.
func (p *DNSProber) Registered(ctx context.Context, name string) (bool, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(name), dns.TypeNS)
	msg.RecursionDesired = true

	in, _, err := p.dnsClient().ExchangeContext(ctx, msg, p.Server)
	if err != nil {
		return false, fmt.Errorf("estimate: query %s: %w", name, err)
	}
	switch in.Rcode {
	case dns.RcodeSuccess:
		return true, nil
	case dns.RcodeNameError:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s answered %s", ErrProbe, name, dns.RcodeToString[in.Rcode])
	}
}

func (p *DNSProber) dnsClient() *dns.Client {
	p.once.Do(func() {
		timeout := p.Timeout
		if timeout <= 0 {
			timeout = DefaultDNSTimeout
		}
		p.client = &dns.Client{Net: "udp", Timeout: timeout}
	})
	return p.client
}

// CachedSource remembers successful observations per domain for a TTL.
// Failures are not cached.
type CachedSource struct {
	source SignalSource
	ttl    time.Duration
	clock  clockwork.Clock

	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	signals Signals
	expires time.Time
}

// NewCachedSource wraps source. A non-positive ttl selects DefaultCacheTTL
// and a nil clock the real clock.
func NewCachedSource(source SignalSource, ttl time.Duration, clock clockwork.Clock) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedSource{
		source:  source,
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cacheEntry),
	}
}

// Signals implements SignalSource.
func (c *CachedSource) Signals(ctx context.Context, info domain.Info) (Signals, error) {
	key := strings.ToLower(info.Name)
	now := c.clock.Now()

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && now.Before(entry.expires) {
		return entry.signals, nil
	}

	signals, err := c.source.Signals(ctx, info)
	if err != nil {
		return Signals{}, err
	}

	c.mu.Lock()
	c.purgeLocked(now)
	c.entries[key] = cacheEntry{signals: signals, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return signals, nil
}

// Len returns the number of cached domains, expired ones included until the
// next write.
func (c *CachedSource) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *CachedSource) purgeLocked(now time.Time) {
	for key, entry := range c.entries {
		if !now.Before(entry.expires) {
			delete(c.entries, key)
		}
	}
}
