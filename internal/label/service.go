package label

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/expiry-tracker/internal/expiry"
	"github.com/zombor/expiry-tracker/internal/export"
	"github.com/zombor/expiry-tracker/internal/scanning"
)

var (
	// ErrEmptyText is returned when there is no text to analyze.
	ErrEmptyText = errors.New("text is empty")
	// ErrNoScanner is returned by Scan when the service has no OCR scanner.
	ErrNoScanner = errors.New("no OCR scanner configured")
	// ErrProductNameRequired is returned by ManualEntry for a blank name.
	ErrProductNameRequired = errors.New("product name is required")
)

// DefaultReminderDays are the days-left values on which a reminder is due.
var DefaultReminderDays = []int{3, 2, 1, 0}

// DefaultScanTimeout bounds a single OCR call.
const DefaultScanTimeout = 60 * time.Second

// IDGenerator generates unique IDs for scans and entries
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// uuidGenerator generates random (v4) UUIDs
type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Config tunes a Service. Zero fields take their defaults.
type Config struct {
	ScanTimeout  time.Duration
	ReminderDays []int
}

// Service runs label text through the expiry pipeline. It stores nothing;
// results go back to the caller.
type Service struct {
	scanner      scanning.Scanner
	pipeline     *expiry.Pipeline
	idGenerator  IDGenerator
	timeSource   TimeSource
	scanTimeout  time.Duration
	reminderDays map[int]bool
}

// NewService creates a new Service with UUID IDs and the wall clock.
// scanner may be nil when only text analysis is needed.
func NewService(scanner scanning.Scanner, pipeline *expiry.Pipeline, cfg Config) *Service {
	return NewServiceWithDeps(scanner, pipeline, cfg, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(scanner scanning.Scanner, pipeline *expiry.Pipeline, cfg Config, idGen IDGenerator, timeSrc TimeSource) *Service {
	if cfg.ScanTimeout <= 0 {
		cfg.ScanTimeout = DefaultScanTimeout
	}
	if cfg.ReminderDays == nil {
		cfg.ReminderDays = DefaultReminderDays
	}
	reminders := make(map[int]bool, len(cfg.ReminderDays))
	for _, d := range cfg.ReminderDays {
		reminders[d] = true
	}
	return &Service{
		scanner:      scanner,
		pipeline:     pipeline,
		idGenerator:  idGen,
		timeSource:   timeSrc,
		scanTimeout:  cfg.ScanTimeout,
		reminderDays: reminders,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Remove special characters, keep only alphanumeric, spaces, hyphens, and underscores
	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	// Truncate to reasonable length (50 chars for base, plus extension)
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "label"
	}

	return base + ext
}

// Today returns the current calendar day in the local zone.
func (s *Service) Today() expiry.Date {
	return expiry.DateOf(s.timeSource.Now())
}

// NearExpiryDays returns the near-expiry window every classification uses.
func (s *Service) NearExpiryDays() int {
	return s.pipeline.NearExpiryDays()
}

// Normalize cleans raw OCR text for pattern matching
func (s *Service) Normalize(raw string) string {
	return s.pipeline.Normalize(raw)
}

// ExtractDates finds and parses the dates in already-normalized text
func (s *Service) ExtractDates(normalized string) expiry.Dates {
	return s.pipeline.ExtractAndParseDates(normalized)
}

// Classify derives the status of exp. A nil today means the current day.
func (s *Service) Classify(exp *expiry.Date, today *expiry.Date) (expiry.Classification, expiry.Date, error) {
	day := s.Today()
	if today != nil {
		day = *today
	}
	c, err := s.pipeline.Classify(exp, day)
	if err != nil {
		return expiry.Classification{}, day, fmt.Errorf("classifying: %w", err)
	}
	return c, day, nil
}

// Scan reads a label image with the OCR scanner and analyzes the text
func (s *Service) Scan(ctx context.Context, filename string, data []byte, contentType string) (*ScanResult, error) {
	if s.scanner == nil {
		return nil, ErrNoScanner
	}

	ctx, cancel := context.WithTimeout(ctx, s.scanTimeout)
	defer cancel()

	text, err := s.scanner.ReadText(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to read label",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("reading label: %w", err)
	}

	result, err := s.analyze(text)
	if err != nil {
		return nil, err
	}
	result.Filename = sanitizeFilename(filename)
	result.ContentType = contentType

	slog.Info("Scanned label",
		"id", result.ID,
		"filename", result.Filename,
		"exp", dateString(result.ExpDate),
		"status", result.Status,
	)
	return result, nil
}

// AnalyzeText runs text that was already produced by an OCR service through the pipeline
func (s *Service) AnalyzeText(raw string) (*ScanResult, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyText
	}
	return s.analyze(raw)
}

func (s *Service) analyze(raw string) (*ScanResult, error) {
	now := s.timeSource.Now()
	today := expiry.DateOf(now)

	a, err := s.pipeline.Analyze(raw, today)
	if err != nil {
		return nil, fmt.Errorf("analyzing text: %w", err)
	}

	return &ScanResult{
		ID:             s.idGenerator.Generate(),
		Text:           raw,
		NormalizedText: a.Normalized,
		MfgRaw:         a.RawDates.Mfg,
		ExpRaw:         a.RawDates.Exp,
		MfgDate:        a.Dates.Mfg,
		ExpDate:        a.Dates.Exp,
		Status:         a.Status,
		DaysLeft:       a.DaysLeft,
		ReminderDue:    s.reminderDue(a.Classification),
		Today:          today,
		ScannedAt:      now,
	}, nil
}

// ManualEntry builds an entry from user-typed ISO dates. A missing or
// unreadable expiry date gives UNKNOWN rather than an error; an unreadable
// manufacturing date is dropped.
func (s *Service) ManualEntry(productName, mfgDate, expDate string) (*ProductStatus, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		return nil, ErrProductNameRequired
	}

	entry := Product{
		ID:          s.idGenerator.Generate(),
		ProductName: productName,
		MfgDate:     parseOptionalISO(mfgDate),
		ExpDate:     parseOptionalISO(expDate),
	}
	if entry.ExpDate == nil && strings.TrimSpace(expDate) != "" {
		slog.Warn("Ignoring unreadable expiry date", "product", productName, "exp_date", expDate)
	}

	status, err := s.status(entry, s.Today())
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// Dashboard recomputes status, days left and reminder flags for entries
// against today. Entries keep their order.
func (s *Service) Dashboard(entries []Product) ([]ProductStatus, error) {
	today := s.Today()
	out := make([]ProductStatus, 0, len(entries))
	for _, e := range entries {
		st, err := s.status(e, today)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Report renders the dashboard for entries as an XLSX workbook
func (s *Service) Report(entries []Product) ([]byte, error) {
	statuses, err := s.Dashboard(entries)
	if err != nil {
		return nil, err
	}
	rows := make([]export.Row, 0, len(statuses))
	for _, st := range statuses {
		rows = append(rows, export.Row{
			Product:     st.ProductName,
			MfgDate:     dateString(st.MfgDate),
			ExpDate:     dateString(st.ExpDate),
			Status:      string(st.Status),
			DaysLeft:    st.DaysLeft,
			ReminderDue: st.ReminderDue,
		})
	}
	data, err := export.WriteXLSX(rows)
	if err != nil {
		return nil, fmt.Errorf("writing report: %w", err)
	}
	return data, nil
}

func (s *Service) status(e Product, today expiry.Date) (ProductStatus, error) {
	c, err := s.pipeline.Classify(e.ExpDate, today)
	if err != nil {
		return ProductStatus{}, fmt.Errorf("classifying %q: %w", e.ProductName, err)
	}
	return ProductStatus{
		Product:     e,
		Status:      c.Status,
		DaysLeft:    c.DaysLeft,
		ReminderDue: s.reminderDue(c),
	}, nil
}

func (s *Service) reminderDue(c expiry.Classification) bool {
	return c.DaysLeft != nil && s.reminderDays[*c.DaysLeft]
}

func parseOptionalISO(s string) *expiry.Date {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := expiry.ParseISODate(s)
	if err != nil {
		return nil
	}
	return &d
}

func dateString(d *expiry.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
