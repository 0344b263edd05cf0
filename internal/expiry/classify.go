package expiry

import "errors"

// Status is the freshness of a product relative to a given day.
type Status string

const (
	StatusExpired    Status = "EXPIRED"
	StatusNearExpiry Status = "NEAR_EXPIRY"
	StatusValid      Status = "VALID"
	StatusUnknown    Status = "UNKNOWN"
)

// ErrInvalidToday is returned when the reference day is unset. It is a
// caller bug and is never folded into StatusUnknown.
var ErrInvalidToday = errors.New("today must be a valid calendar date")

// Classification is the derived status of an expiry date. DaysLeft is nil
// exactly when Status is StatusUnknown.
type Classification struct {
	Status   Status `json:"status"`
	DaysLeft *int   `json:"days_left"`
}

// Classifier derives Classification values under a single near-expiry window.
type Classifier struct {
	window int
}

// NewClassifier returns a Classifier whose NEAR_EXPIRY band is
// 0 <= days_left <= nearExpiryDays.
func NewClassifier(nearExpiryDays int) *Classifier {
	return &Classifier{window: nearExpiryDays}
}

// Window returns the inclusive near-expiry window in days.
func (c *Classifier) Window() int { return c.window }

// Classify computes the status of exp as seen on today.
func (c *Classifier) Classify(exp *Date, today Date) (Classification, error) {
	if today.IsZero() {
		return Classification{}, ErrInvalidToday
	}
	if exp == nil || exp.IsZero() {
		return Classification{Status: StatusUnknown}, nil
	}
	days := today.DaysUntil(*exp)
	return Classification{Status: c.status(days), DaysLeft: &days}, nil
}

func (c *Classifier) status(daysLeft int) Status {
	switch {
	case daysLeft < 0:
		return StatusExpired
	case daysLeft <= c.window:
		return StatusNearExpiry
	default:
		return StatusValid
	}
}
