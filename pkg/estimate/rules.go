package estimate

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formguard/pkg/domain"
)

//go:embed rules/default.yaml
var defaultRules []byte

// ErrInvalidRules is returned when a rule set fails validation.
var ErrInvalidRules = errors.New("estimate: invalid rules")

// Factor is one valuation rule.
type Factor struct {
	Name  string  `yaml:"name" json:"name"`
	Price float64 `yaml:"price" json:"price"`
	Grade float64 `yaml:"grade" json:"grade"`
}

// Keyword applies its factor when Match occurs in the domain name.
type Keyword struct {
	Match  string `yaml:"match" json:"match"`
	Factor `yaml:",inline"`
}

// Base holds the starting point every estimation is scaled from.
type Base struct {
	Price float64 `yaml:"price" json:"price"`
	Grade float64 `yaml:"grade" json:"grade"`
}

// Rules is the static valuation rule set.
type Rules struct {
	Base        Base                        `yaml:"base" json:"base"`
	TLD         map[string]Factor           `yaml:"tld" json:"tld"`
	Length      map[int]Factor              `yaml:"length" json:"length"`
	Structure   map[domain.Structure]Factor `yaml:"structure" json:"structure"`
	Keywords    []Keyword                   `yaml:"keywords" json:"keywords"`
	RelatedTLDs []string                    `yaml:"related_tlds" json:"relatedTlds"`
}

// DefaultRules returns a fresh copy of the built-in rule set.
func DefaultRules() (*Rules, error) {
	return ParseRules(defaultRules)
}

// LoadRules reads a rule set from a YAML file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("estimate: read rules %s: %w", path, err)
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a YAML rule set. Unknown fields are
// rejected.
func ParseRules(data []byte) (*Rules, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var rules Rules
	if err := dec.Decode(&rules); err != nil {
		return nil, fmt.Errorf("estimate: decode rules: %w", err)
	}
	rules.normalize()
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

// Validate reports the first rule that cannot produce a positive price.
func (r *Rules) Validate() error {
	if r.Base.Price <= 0 {
		return fmt.Errorf("%w: base price must be positive", ErrInvalidRules)
	}
	for tld, f := range r.TLD {
		if f.Price <= 0 {
			return fmt.Errorf("%w: tld %q price must be positive", ErrInvalidRules, tld)
		}
	}
	for length, f := range r.Length {
		if length <= 0 {
			return fmt.Errorf("%w: length %d must be positive", ErrInvalidRules, length)
		}
		if f.Price <= 0 {
			return fmt.Errorf("%w: length %d price must be positive", ErrInvalidRules, length)
		}
	}
	for structure, f := range r.Structure {
		if f.Price <= 0 {
			return fmt.Errorf("%w: structure %q price must be positive", ErrInvalidRules, structure)
		}
	}
	for i, kw := range r.Keywords {
		if kw.Match == "" {
			return fmt.Errorf("%w: keyword %d has no match", ErrInvalidRules, i)
		}
		if kw.Price <= 0 {
			return fmt.Errorf("%w: keyword %q price must be positive", ErrInvalidRules, kw.Match)
		}
	}
	return nil
}

func (r *Rules) normalize() {
	if len(r.TLD) > 0 {
		tlds := make(map[string]Factor, len(r.TLD))
		for tld, f := range r.TLD {
			tlds[strings.ToLower(strings.TrimPrefix(tld, "."))] = f
		}
		r.TLD = tlds
	}
	for i := range r.Keywords {
		r.Keywords[i].Match = strings.ToLower(r.Keywords[i].Match)
	}
	for i := range r.RelatedTLDs {
		r.RelatedTLDs[i] = strings.ToLower(strings.TrimPrefix(r.RelatedTLDs[i], "."))
	}
}
