package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Pattern is the expression every guard evaluates. It is exported verbatim to
// the browser script, so it must stay within the subset shared by RE2 and
// ECMAScript.
const Pattern = `^[a-zA-Z0-9][a-zA-Z0-9-]{0,61}[a-zA-Z0-9](?:\.[a-zA-Z]{2,})+$`

// MaxLabelLength is the longest first label the pattern admits.
const MaxLabelLength = 63

var patternRegexp = regexp.MustCompile(Pattern)

// ErrInvalid is returned by Check for any input the pattern rejects.
var ErrInvalid = errors.New("domain: invalid domain")

// Reason names the first rule an input broke.
type Reason string

const (
	ReasonEmpty         Reason = "empty"
	ReasonBadCharacter  Reason = "bad-character"
	ReasonSingleLabel   Reason = "single-label"
	ReasonHyphenEdge    Reason = "hyphen-edge"
	ReasonLabelTooLong  Reason = "label-too-long"
	ReasonLabelTooShort Reason = "label-too-short"
	ReasonBadTLD        Reason = "bad-tld"
)

// InvalidError reports why an input was rejected. It matches ErrInvalid with
// errors.Is.
type InvalidError struct {
	Input  string
	Reason Reason
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("domain: invalid domain %q: %s", e.Input, e.Reason)
}

func (e *InvalidError) Is(target error) bool {
	return target == ErrInvalid
}

// Normalize trims surrounding whitespace, the only transformation applied
// before matching.
func Normalize(s string) string {
	return strings.TrimSpace(s)
}

// IsValid reports whether the trimmed input matches Pattern.
func IsValid(s string) bool {
	return patternRegexp.MatchString(Normalize(s))
}

// Check returns nil exactly when IsValid does. Otherwise the error is an
// *InvalidError carrying a best-effort reason.
func Check(s string) error {
	normalized := Normalize(s)
	if patternRegexp.MatchString(normalized) {
		return nil
	}
	return &InvalidError{Input: normalized, Reason: classify(normalized)}
}

// ReasonOf extracts the rejection reason from an error returned by Check.
func ReasonOf(err error) (Reason, bool) {
	var invalid *InvalidError
	if errors.As(err, &invalid) {
		return invalid.Reason, true
	}
	return "", false
}

func classify(s string) Reason {
	if s == "" {
		return ReasonEmpty
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !isAlnum(c) && c != '-' && c != '.' {
			return ReasonBadCharacter
		}
	}

	first, _, found := strings.Cut(s, ".")
	if !found {
		return ReasonSingleLabel
	}
	if strings.HasPrefix(first, "-") || strings.HasSuffix(first, "-") {
		return ReasonHyphenEdge
	}
	if len(first) > MaxLabelLength {
		return ReasonLabelTooLong
	}
	if len(first) < 2 {
		return ReasonLabelTooShort
	}
	return ReasonBadTLD
}

func isAlnum(c byte) bool {
	return isAlpha(c) || (c >= '0' && c <= '9')
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
