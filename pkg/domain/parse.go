package domain

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Structure classifies the label part of a domain.
type Structure string

const (
	StructureNumeric      Structure = "numeric"
	StructureAlpha        Structure = "alpha"
	StructureAlphanumeric Structure = "alphanumeric"
	StructureHyphenated   Structure = "hyphenated"
	StructureOther        Structure = "other"
)

var (
	// ErrEmpty is returned by Parse when nothing is left after stripping.
	ErrEmpty = errors.New("domain: empty input")
	// ErrSingleLabel is returned by Parse when the input has no TLD.
	ErrSingleLabel = errors.New("domain: missing top-level domain")
)

// Info is the estimator's view of a domain name.
type Info struct {
	// Name is the cleaned host, e.g. "shop.example.com".
	Name string `json:"name"`
	// Label is everything before the last dot, e.g. "shop.example".
	Label string `json:"label"`
	// TLD is the last label, e.g. "com".
	TLD string `json:"tld"`
	// PublicSuffix is the registry suffix, e.g. "co.uk" for "example.co.uk".
	PublicSuffix string `json:"publicSuffix"`
	// Length is the byte length of Label.
	Length    int       `json:"length"`
	Structure Structure `json:"structure"`
}

// Parse strips scheme, "www." and any path from raw and splits what remains.
// Parse is more lenient than Pattern; callers that need the guard's verdict
// use IsValid.
func Parse(raw string) (Info, error) {
	name := Normalize(raw)
	name = strings.TrimPrefix(name, "http://")
	name = strings.TrimPrefix(name, "https://")
	name = strings.TrimPrefix(name, "www.")
	if idx := strings.IndexAny(name, "/?#"); idx != -1 {
		name = name[:idx]
	}
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return Info{}, ErrEmpty
	}

	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return Info{}, fmt.Errorf("%w: %s", ErrSingleLabel, name)
	}

	label := name[:idx]
	tld := name[idx+1:]
	suffix, _ := publicsuffix.PublicSuffix(strings.ToLower(name))

	return Info{
		Name:         name,
		Label:        label,
		TLD:          strings.ToLower(tld),
		PublicSuffix: suffix,
		Length:       len(label),
		Structure:    StructureOf(label),
	}, nil
}

// StructureOf classifies a label. Checks run from the most to the least
// specific class.
func StructureOf(label string) Structure {
	if label == "" {
		return StructureOther
	}
	digits, letters, hyphen, other := 0, 0, false, false
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= '0' && c <= '9':
			digits++
		case isAlpha(c):
			letters++
		case c == '-':
			hyphen = true
		default:
			other = true
		}
	}

	switch {
	case !hyphen && !other && letters == 0:
		return StructureNumeric
	case !hyphen && !other && digits == 0:
		return StructureAlpha
	case !hyphen && !other:
		return StructureAlphanumeric
	case hyphen:
		return StructureHyphenated
	default:
		return StructureOther
	}
}
