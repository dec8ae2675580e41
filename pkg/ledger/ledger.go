package ledger

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrValidation marks a rejected write: the input failed validation and
// the store was left unchanged. Check with errors.Is.
var ErrValidation = errors.New("validation failed")

// ErrCorruptSnapshot marks bytes that are not a well-formed snapshot
// export. Callers are expected to fall back to a fresh store.
var ErrCorruptSnapshot = errors.New("corrupt snapshot")

type Mood string

const (
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
)

// Expense is a single recorded purchase.
type Expense struct {
	// ID is store-assigned and unique per store instance.
	ID          int64
	Amount      decimal.Decimal
	Category    string
	Description string
	// Date is the calendar date of the purchase (UTC midnight).
	Date      time.Time
	Tags      []string
	Mood      Mood
	Recurring bool
	CreatedAt time.Time
}

// Budget is a monthly spending limit for one category. There is at most
// one budget per category.
type Budget struct {
	Category  string
	Amount    decimal.Decimal
	UpdatedAt time.Time
}
