package expiry

import (
	"errors"
	"fmt"
	"strings"
)

// Hypothesis is one candidate date grammar, expressed as a Go time layout.
// Tokens reach the hypothesis with separators collapsed to "/" and title-cased.
type Hypothesis struct {
	Name   string `json:"name" yaml:"name"`
	Layout string `json:"layout" yaml:"layout"`
}

// Config holds the vocabulary and policy used by a Pipeline.
// A Config is copied when a Pipeline is built; later changes have no effect.
type Config struct {
	MfgKeywords    []string
	ExpKeywords    []string
	Confusions     map[rune]rune
	Hypotheses     []Hypothesis
	NearExpiryDays int
}

// DefaultNearExpiryDays is the inclusive near-expiry window.
const DefaultNearExpiryDays = 7

// DefaultConfig returns the stock label vocabulary. Every call returns fresh
// slices and maps.
func DefaultConfig() Config {
	return Config{
		MfgKeywords: []string{"MFG", "MFD", "PKD", "MANUFACTURED"},
		ExpKeywords: []string{"EXP", "EXPIRES", "USE BY", "BEST BEFORE"},
		Confusions: map[rune]rune{
			'O': '0',
			'I': '1',
			'L': '1',
		},
		Hypotheses: []Hypothesis{
			{Name: "day/month/yyyy", Layout: "2/1/2006"},
			{Name: "day/month/yy", Layout: "2/1/06"},
			{Name: "day/mon/yyyy", Layout: "2/Jan/2006"},
			{Name: "day/mon/yy", Layout: "2/Jan/06"},
		},
		NearExpiryDays: DefaultNearExpiryDays,
	}
}

// Validate reports whether the configuration can build a Pipeline.
func (c Config) Validate() error {
	if len(c.MfgKeywords) == 0 {
		return errors.New("at least one manufacturing keyword is required")
	}
	if len(c.ExpKeywords) == 0 {
		return errors.New("at least one expiry keyword is required")
	}
	for _, kw := range append(append([]string{}, c.MfgKeywords...), c.ExpKeywords...) {
		if !strings.ContainsFunc(kw, isASCIIAlnum) {
			return fmt.Errorf("keyword %q is blank", kw)
		}
	}
	if len(c.Hypotheses) == 0 {
		return errors.New("at least one format hypothesis is required")
	}
	for i, h := range c.Hypotheses {
		if h.Layout == "" {
			return fmt.Errorf("hypothesis %d (%s) has no layout", i, h.Name)
		}
	}
	if c.NearExpiryDays < 0 {
		return fmt.Errorf("near expiry window must be non-negative, got %d", c.NearExpiryDays)
	}
	for from, to := range c.Confusions {
		if !allowed(to) {
			return fmt.Errorf("confusion %q -> %q maps outside the allowed character set", from, to)
		}
		if _, chained := c.Confusions[to]; chained {
			return fmt.Errorf("confusion %q -> %q is chained; targets may not be sources", from, to)
		}
	}
	return nil
}

func (c Config) clone() Config {
	out := Config{
		MfgKeywords:    append([]string(nil), c.MfgKeywords...),
		ExpKeywords:    append([]string(nil), c.ExpKeywords...),
		Hypotheses:     append([]Hypothesis(nil), c.Hypotheses...),
		Confusions:     make(map[rune]rune, len(c.Confusions)),
		NearExpiryDays: c.NearExpiryDays,
	}
	for k, v := range c.Confusions {
		out.Confusions[k] = v
	}
	return out
}

func isASCIIAlnum(r rune) bool {
	return r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9'
}
