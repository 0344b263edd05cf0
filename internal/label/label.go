package label

import (
	"time"

	"github.com/zombor/expiry-tracker/internal/expiry"
)

// ScanResult is the outcome of reading one label. It is handed back to the
// caller, which owns any storage of it.
type ScanResult struct {
	ID             string        `json:"id"`
	Filename       string        `json:"filename,omitempty"`
	ContentType    string        `json:"content_type,omitempty"`
	Text           string        `json:"text"` // raw OCR text
	NormalizedText string        `json:"normalized_text"`
	MfgRaw         string        `json:"mfg_raw,omitempty"`
	ExpRaw         string        `json:"exp_raw,omitempty"`
	MfgDate        *expiry.Date  `json:"mfg_date"`
	ExpDate        *expiry.Date  `json:"exp_date"`
	Status         expiry.Status `json:"status"`
	DaysLeft       *int          `json:"days_left"`
	ReminderDue    bool          `json:"reminder_due"`
	Today          expiry.Date   `json:"today"`
	ScannedAt      time.Time     `json:"scanned_at"`
}

// Product is a product the caller is tracking, as held in the caller's storage.
type Product struct {
	ID          string       `json:"id,omitempty"`
	ProductName string       `json:"product_name"`
	MfgDate     *expiry.Date `json:"mfg_date"`
	ExpDate     *expiry.Date `json:"exp_date"`
}

// ProductStatus is a Product with its status recomputed for today.
type ProductStatus struct {
	Product
	Status      expiry.Status `json:"status"`
	DaysLeft    *int          `json:"days_left"`
	ReminderDue bool          `json:"reminder_due"`
}
