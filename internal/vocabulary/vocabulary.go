// Package vocabulary loads label keyword and date-format overrides from YAML.
package vocabulary

import (
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/zombor/expiry-tracker/internal/expiry"
)

// File is the on-disk shape of a vocabulary file. Any section left out keeps
// its default.
type File struct {
	MfgKeywords    []string            `yaml:"mfg_keywords"`
	ExpKeywords    []string            `yaml:"exp_keywords"`
	Confusions     map[string]string   `yaml:"confusions"`
	Hypotheses     []expiry.Hypothesis `yaml:"hypotheses"`
	NearExpiryDays *int                `yaml:"near_expiry_days"`
}

// Load reads path and merges it over expiry.DefaultConfig. An empty path
// returns the defaults.
func Load(path string) (expiry.Config, error) {
	if path == "" {
		return expiry.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return expiry.Config{}, fmt.Errorf("reading vocabulary: %w", err)
	}
	return Parse(data)
}

// Parse merges YAML data over expiry.DefaultConfig and validates the result.
func Parse(data []byte) (expiry.Config, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return expiry.Config{}, fmt.Errorf("parsing vocabulary YAML: %w", err)
	}

	cfg := expiry.DefaultConfig()
	if len(f.MfgKeywords) > 0 {
		cfg.MfgKeywords = f.MfgKeywords
	}
	if len(f.ExpKeywords) > 0 {
		cfg.ExpKeywords = f.ExpKeywords
	}
	if f.Confusions != nil {
		confusions, err := runeMap(f.Confusions)
		if err != nil {
			return expiry.Config{}, err
		}
		cfg.Confusions = confusions
	}
	if len(f.Hypotheses) > 0 {
		cfg.Hypotheses = f.Hypotheses
	}
	if f.NearExpiryDays != nil {
		cfg.NearExpiryDays = *f.NearExpiryDays
	}

	if err := cfg.Validate(); err != nil {
		return expiry.Config{}, fmt.Errorf("invalid vocabulary: %w", err)
	}
	return cfg, nil
}

func runeMap(in map[string]string) (map[rune]rune, error) {
	out := make(map[rune]rune, len(in))
	for from, to := range in {
		if utf8.RuneCountInString(from) != 1 || utf8.RuneCountInString(to) != 1 {
			return nil, fmt.Errorf("confusion %q -> %q must map a single character to a single character", from, to)
		}
		f, _ := utf8.DecodeRuneInString(from)
		t, _ := utf8.DecodeRuneInString(to)
		out[f] = t
	}
	return out, nil
}
