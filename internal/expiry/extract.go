package expiry

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RawDates holds the date-shaped substrings found after each keyword class.
// An empty field means no keyword+token pair was found; a captured token
// always contains digits, so "" is never a real token.
type RawDates struct {
	Mfg string `json:"mfg_raw,omitempty"`
	Exp string `json:"exp_raw,omitempty"`
}

// Dates are the parsed manufacturing and expiry dates; nil means absent.
type Dates struct {
	Mfg *Date `json:"mfg"`
	Exp *Date `json:"exp"`
}

const (
	tokenSep   = `[\s/\-._]*`
	tokenDigit = `\d{1,2}`
	tokenYear  = `\d{2,4}`
)

var (
	separatorRun = regexp.MustCompile(`[.\-\s]+`)
	slashRun     = regexp.MustCompile(`/+`)
)

var monthAbbrevs = []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// Extractor locates keyword-anchored date tokens in normalized text and
// parses them against an ordered list of format hypotheses.
type Extractor struct {
	mfg         *regexp.Regexp
	exp         *regexp.Regexp
	hypotheses  []Hypothesis
	monthRepair map[string]string
}

// NewExtractor compiles the keyword patterns. Keywords are passed through
// normalizer so that they match the text they will be searched in.
func NewExtractor(mfgKeywords, expKeywords []string, hypotheses []Hypothesis, normalizer *Normalizer) *Extractor {
	repair := make(map[string]string)
	for _, m := range monthAbbrevs {
		if corrupted := normalizer.Normalize(m); corrupted != m {
			repair[corrupted] = m
		}
	}
	month := monthPattern(repair)
	return &Extractor{
		mfg:         keywordPattern(mfgKeywords, month, normalizer),
		exp:         keywordPattern(expKeywords, month, normalizer),
		hypotheses:  append([]Hypothesis(nil), hypotheses...),
		monthRepair: repair,
	}
}

func monthPattern(repair map[string]string) string {
	alts := make([]string, 0, len(repair)+2)
	for _, m := range monthAbbrevs {
		for corrupted, orig := range repair {
			if orig == m {
				alts = append(alts, regexp.QuoteMeta(corrupted))
			}
		}
	}
	alts = append(alts, `[A-Z]{3,}`, tokenDigit)
	return `(?:` + strings.Join(alts, "|") + `)`
}

func keywordPattern(keywords []string, month string, normalizer *Normalizer) *regexp.Regexp {
	alts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		words := fieldsASCII(normalizer.Normalize(kw))
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		alts = append(alts, strings.Join(words, `\s*`))
	}
	return regexp.MustCompile(`(?:` + strings.Join(alts, "|") + `)\D*(` +
		tokenDigit + tokenSep + month + tokenSep + tokenYear + `)`)
}

// Extract returns the first date token after a manufacturing keyword and the
// first after an expiry keyword. Later occurrences are ignored.
func (e *Extractor) Extract(text string) RawDates {
	return RawDates{
		Mfg: firstToken(e.mfg, text),
		Exp: firstToken(e.exp, text),
	}
}

func firstToken(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// Parse tries each hypothesis in order and returns the first full match.
// An empty or unparsable token yields false.
func (e *Extractor) Parse(raw string) (Date, bool) {
	token := e.canonicalToken(raw)
	if token == "" {
		return Date{}, false
	}
	for _, h := range e.hypotheses {
		t, err := time.Parse(h.Layout, token)
		if err != nil {
			continue
		}
		return DateOf(t), true
	}
	return Date{}, false
}

func (e *Extractor) canonicalToken(raw string) string {
	token := strings.TrimSpace(raw)
	if token == "" {
		return ""
	}
	token = separatorRun.ReplaceAllString(token, "/")
	token = slashRun.ReplaceAllString(token, "/")
	parts := strings.Split(token, "/")
	if len(parts) == 3 {
		if orig, ok := e.monthRepair[strings.ToUpper(parts[1])]; ok {
			parts[1] = orig
			token = strings.Join(parts, "/")
		}
	}
	return cases.Title(language.Und).String(token)
}

// ExtractAndParseDates runs Extract then Parse on both tokens.
func (e *Extractor) ExtractAndParseDates(text string) Dates {
	raw := e.Extract(text)
	return Dates{
		Mfg: e.parseOptional(raw.Mfg),
		Exp: e.parseOptional(raw.Exp),
	}
}

func (e *Extractor) parseOptional(raw string) *Date {
	d, ok := e.Parse(raw)
	if !ok {
		return nil
	}
	return &d
}
