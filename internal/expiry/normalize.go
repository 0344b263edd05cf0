package expiry

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Normalizer canonicalizes raw OCR text for pattern matching: upper-case,
// digit/letter confusion correction, then anything outside
// A-Z 0-9 / - : . and ASCII whitespace becomes a space.
type Normalizer struct {
	confusions map[rune]rune
}

// NewNormalizer builds a Normalizer over a private copy of confusions.
func NewNormalizer(confusions map[rune]rune) *Normalizer {
	m := make(map[rune]rune, len(confusions))
	for k, v := range confusions {
		m[k] = v
	}
	return &Normalizer{confusions: m}
}

// Normalize never fails; empty input yields empty output.
func (n *Normalizer) Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	// A Caser keeps state between calls, so each call gets its own.
	upper := cases.Upper(language.Und).String(raw)
	return strings.Map(func(r rune) rune {
		if to, ok := n.confusions[r]; ok {
			r = to
		}
		if !allowed(r) {
			return ' '
		}
		return r
	}, upper)
}

func allowed(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '/', r == '-', r == ':', r == '.':
		return true
	}
	return isASCIISpace(r)
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func fieldsASCII(s string) []string {
	return strings.FieldsFunc(s, isASCIISpace)
}
