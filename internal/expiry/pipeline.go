// Package expiry turns noisy label OCR text into manufacturing and expiry
// dates and classifies freshness.
//
// Everything here is pure: no I/O, no clocks, no shared mutable state. The
// caller supplies today's date, which keeps classification deterministic.
package expiry

import "fmt"

// Analysis is the full result of running raw OCR text through a Pipeline.
type Analysis struct {
	Normalized string `json:"normalized_text"`
	RawDates
	Dates
	Classification
}

// Pipeline binds a validated Config to its three components.
type Pipeline struct {
	normalizer *Normalizer
	extractor  *Extractor
	classifier *Classifier
}

// New validates cfg and builds a Pipeline. The Pipeline is safe for
// concurrent use.
func New(cfg Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid expiry config: %w", err)
	}
	cfg = cfg.clone()
	normalizer := NewNormalizer(cfg.Confusions)
	return &Pipeline{
		normalizer: normalizer,
		extractor:  NewExtractor(cfg.MfgKeywords, cfg.ExpKeywords, cfg.Hypotheses, normalizer),
		classifier: NewClassifier(cfg.NearExpiryDays),
	}, nil
}

// MustNew is like New but panics on an invalid Config.
func MustNew(cfg Config) *Pipeline {
	p, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pipeline) Normalize(raw string) string { return p.normalizer.Normalize(raw) }

// ExtractAndParseDates expects text that has already been normalized.
func (p *Pipeline) ExtractAndParseDates(text string) Dates {
	return p.extractor.ExtractAndParseDates(text)
}

func (p *Pipeline) Extract(text string) RawDates { return p.extractor.Extract(text) }

func (p *Pipeline) Parse(raw string) (Date, bool) { return p.extractor.Parse(raw) }

func (p *Pipeline) Classify(exp *Date, today Date) (Classification, error) {
	return p.classifier.Classify(exp, today)
}

// NearExpiryDays returns the configured near-expiry window.
func (p *Pipeline) NearExpiryDays() int { return p.classifier.Window() }

// Analyze runs raw text through normalize, extract, parse and classify.
func (p *Pipeline) Analyze(raw string, today Date) (Analysis, error) {
	normalized := p.Normalize(raw)
	rawDates := p.extractor.Extract(normalized)
	dates := Dates{
		Mfg: p.extractor.parseOptional(rawDates.Mfg),
		Exp: p.extractor.parseOptional(rawDates.Exp),
	}
	c, err := p.Classify(dates.Exp, today)
	if err != nil {
		return Analysis{}, err
	}
	return Analysis{
		Normalized:     normalized,
		RawDates:       rawDates,
		Dates:          dates,
		Classification: c,
	}, nil
}
