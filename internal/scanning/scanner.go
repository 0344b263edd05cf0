package scanning

import (
	"context"
	"errors"
)

// ErrNoText is returned when the OCR service answers without any text.
var ErrNoText = errors.New("no text recognized")

// Scanner turns a label image into raw OCR text. Implementations treat the
// OCR engine as an opaque text producer; they do not interpret dates.
type Scanner interface {
	// ReadText returns the text found in a label image or PDF. The caller's
	// context bounds the call.
	ReadText(ctx context.Context, imageData []byte, contentType string) (string, error)
	// Close releases resources held by the scanner
	Close() error
}
