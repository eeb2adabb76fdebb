package orchestrator

import (
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/estimate"
)

// SignalSource builds the sources cfg enables: the heuristic source always,
// the DNS prober when dns.enabled is set, cached for signals.cache_ttl.
func SignalSource(cfg config.Config, rules *estimate.Rules, clock clockwork.Clock) (estimate.SignalSource, error) {
	sources := []estimate.SignalSource{estimate.HeuristicSource{Clock: clock}}

	if cfg.DNS.Enabled {
		server := cfg.DNS.Server
		if server == "" {
			var err error
			if server, err = estimate.SystemResolver(cfg.DNS.ResolvConf); err != nil {
				return nil, fmt.Errorf("orchestrator: dns: %w", err)
			}
		}
		var tlds []string
		if rules != nil {
			tlds = rules.RelatedTLDs
		}
		sources = append(sources, estimate.NewDNSProber(server, cfg.DNS.Timeout, tlds...))
	}

	var source estimate.SignalSource = estimate.Combine(sources...)
	if cfg.Signals.CacheTTL > 0 {
		source = estimate.NewCachedSource(source, cfg.Signals.CacheTTL, clock)
	}
	return source, nil
}
