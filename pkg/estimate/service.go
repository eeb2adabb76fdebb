package estimate

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formguard/pkg/domain"
)

// Option configures a Service.
type Option func(*Service)

// WithRules replaces the built-in rule set.
func WithRules(rules *Rules) Option {
	return func(s *Service) {
		if rules != nil {
			s.rules = rules
		}
	}
}

// WithSignalSource sets where signals come from. Passing nil disables
// signals so only static and keyword rules apply.
func WithSignalSource(source SignalSource) Option {
	return func(s *Service) {
		s.source = source
		s.sourceSet = true
	}
}

// WithClock sets the clock used for estimation timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the logger signal failures are reported to.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIDGenerator overrides how result IDs are minted.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// Service estimates domains.
type Service struct {
	rules     *Rules
	source    SignalSource
	sourceSet bool
	clock     clockwork.Clock
	logger    logrus.FieldLogger
	newID     func() string
}

// NewService builds a Service. Without options it uses the built-in rules,
// a cached HeuristicSource and the real clock.
func NewService(opts ...Option) (*Service, error) {
	s := &Service{
		clock:  clockwork.NewRealClock(),
		logger: logrus.StandardLogger(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.rules == nil {
		rules, err := DefaultRules()
		if err != nil {
			return nil, err
		}
		s.rules = rules
	}
	if !s.sourceSet {
		s.source = NewCachedSource(HeuristicSource{Clock: s.clock}, DefaultCacheTTL, s.clock)
	}
	return s, nil
}

// Rules returns the active rule set.
func (s *Service) Rules() *Rules {
	return s.rules
}

// Estimate values raw. Parse errors are returned wrapped; signal failures
// are logged and the estimation continues without them.
func (s *Service) Estimate(ctx context.Context, raw string) (*Result, error) {
	info, err := domain.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("estimate: parse %q: %w", raw, err)
	}

	var signals Signals
	if s.source != nil {
		signals, err = s.source.Signals(ctx, info)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			s.logger.WithError(err).WithField("domain", info.Name).Warn("Failed to collect signals.")
			signals = Signals{}
		}
	}

	base := s.baseAttributes(info)
	other := signalAttributes(signals, Stem(info))
	if len(other) == 0 {
		other = s.keywordAttributes(info)
	}

	price, grade := s.rules.Base.Price, s.rules.Base.Grade
	for _, list := range [][]Attribute{base, other} {
		for _, attr := range list {
			price *= attr.PriceFactor
			grade += attr.GradeFactor
		}
	}

	return &Result{
		ID:              s.newID(),
		Domain:          info.Name,
		Price:           round(price, 2),
		Grade:           round(grade, 2),
		BaseAttributes:  base,
		OtherAttributes: other,
		Info:            info,
		Signals:         signals,
		EstimatedAt:     s.clock.Now(),
	}, nil
}

func (s *Service) baseAttributes(info domain.Info) []Attribute {
	var attrs []Attribute
	if f, ok := s.rules.TLD[info.TLD]; ok {
		attrs = append(attrs, f.attribute(info.TLD, "."+info.TLD+" suffix"))
	}
	if f, ok := s.rules.Length[info.Length]; ok {
		attrs = append(attrs, f.attribute(strconv.Itoa(info.Length), fmt.Sprintf("%d characters long", info.Length)))
	}
	if f, ok := s.rules.Structure[info.Structure]; ok {
		attrs = append(attrs, f.attribute(string(info.Structure), string(info.Structure)+" structure"))
	}
	return attrs
}

func (s *Service) keywordAttributes(info domain.Info) []Attribute {
	name := strings.ToLower(info.Name)
	var attrs []Attribute
	for _, kw := range s.rules.Keywords {
		if strings.Contains(name, kw.Match) {
			attrs = append(attrs, kw.attribute(kw.Match, kw.Name))
		}
	}
	return attrs
}

func (f Factor) attribute(value, description string) Attribute {
	name := f.Name
	if name == "" {
		name = description
	}
	return Attribute{
		Name:        name,
		Value:       value,
		Description: description,
		PriceFactor: f.Price,
		GradeFactor: f.Grade,
	}
}

type tier struct {
	bound int
	Factor
}

var (
	// rank: lower is better, matched with value < bound.
	rankTiers = []tier{
		{10_000, Factor{"excellent rank", 2.5, 0.8}},
		{100_000, Factor{"good rank", 1.8, 0.5}},
		{1_000_000, Factor{"fair rank", 1.2, 0.2}},
	}
	rankDefault = Factor{"rank", 1.0, 0}

	// search, forum and listing tiers match with value > bound.
	searchTiers = []tier{
		{10_000, Factor{"huge search volume", 3.0, 0.9}},
		{5_000, Factor{"very high search volume", 2.2, 0.7}},
		{1_000, Factor{"high search volume", 1.8, 0.6}},
	}
	searchDefault = Factor{"search volume", 1.0, 0}

	forumTiers = []tier{
		{10_000, Factor{"very active forums", 2.25, 0.6}},
		{0, Factor{"forum mentions", 1.5, 0.3}},
	}
	listingTiers = []tier{
		{1_000, Factor{"many marketplace listings", 1.5, 0.3}},
		{0, Factor{"marketplace listings", 1.18, 0.1}},
	}

	relatedRegistered   = Factor{"%s related domain registered", 0.86, -0.1}
	relatedUnregistered = Factor{"%s related domain unregistered", 0.65, -0.2}
)

func below(value int, tiers []tier, fallback Factor) Factor {
	for _, t := range tiers {
		if value < t.bound {
			return t.Factor
		}
	}
	return fallback
}

func above(value int, tiers []tier, fallback Factor) (Factor, bool) {
	for _, t := range tiers {
		if value > t.bound {
			return t.Factor, true
		}
	}
	return fallback, fallback.Price != 0
}

func signalAttributes(s Signals, stem string) []Attribute {
	var attrs []Attribute

	if s.Rank > 0 {
		f := below(s.Rank, rankTiers, rankDefault)
		attrs = append(attrs, f.attribute(strconv.Itoa(s.Rank), "rank "+humanize.Comma(int64(s.Rank))))
	}
	if s.SearchVolume > 0 {
		f, _ := above(s.SearchVolume, searchTiers, searchDefault)
		attrs = append(attrs, f.attribute(strconv.Itoa(s.SearchVolume), "search volume "+humanize.Comma(int64(s.SearchVolume))))
	}

	tlds := make([]string, 0, len(s.Related))
	for tld := range s.Related {
		tlds = append(tlds, tld)
	}
	sort.Strings(tlds)
	for _, tld := range tlds {
		f, status := relatedUnregistered, "unregistered"
		if s.Related[tld] {
			f, status = relatedRegistered, "registered"
		}
		f.Name = fmt.Sprintf(f.Name, tld)
		attrs = append(attrs, f.attribute(status, fmt.Sprintf("%s.%s %s", stem, tld, status)))
	}

	if f, ok := above(s.ForumPosts, forumTiers, Factor{}); ok {
		attrs = append(attrs, f.attribute(strconv.Itoa(s.ForumPosts), "forum posts "+humanize.Comma(int64(s.ForumPosts))))
	}
	if f, ok := above(s.Listings, listingTiers, Factor{}); ok {
		attrs = append(attrs, f.attribute(strconv.Itoa(s.Listings), "marketplace listings "+humanize.Comma(int64(s.Listings))))
	}
	return attrs
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
