// Package tesseract reads label text with a local Tesseract install through
// gosseract. It needs libtesseract and cgo at build time.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/zombor/expiry-tracker/internal/scanning"
)

// Scanner implements scanning.Scanner with a fresh Tesseract client per call;
// gosseract clients are not safe for concurrent use.
type Scanner struct {
	clientFactory func() *gosseract.Client
	languages     []string
}

var _ scanning.Scanner = (*Scanner)(nil)

// New constructs a Tesseract-backed scanner. languages defaults to "eng".
func New(languages ...string) *Scanner {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &Scanner{clientFactory: gosseract.NewClient, languages: languages}
}

// ReadText runs OCR on the label image. Tesseract itself cannot be
// interrupted, so ctx is only checked before the work starts.
func (s *Scanner) ReadText(ctx context.Context, imageData []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	pngData, err := scanning.ToPNG(imageData, contentType)
	if err != nil {
		return "", err
	}

	c := s.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(s.languages...); err != nil {
		return "", fmt.Errorf("set languages: %w", err)
	}
	// Treat the label as a single uniform block of text
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetImageFromBytes(pngData); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Close is a no-op; clients are released after each call.
func (s *Scanner) Close() error { return nil }
