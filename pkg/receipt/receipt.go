package receipt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/finote/finote/pkg/ledger"
	"github.com/shopspring/decimal"
)

// Candidate is an expense record proposed by the receipt text-extraction
// pipeline. The pipeline itself runs elsewhere; this is the shape it
// hands over, parsed leniently (amount arrives as whatever the extractor
// produced) and validated here before it reaches the ledger.
type Candidate struct {
	Amount      json.Number `json:"amount"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	Tags        []string    `json:"tags"`
	Mood        string      `json:"mood"`
	Recurring   bool        `json:"recurring"`
}

// Expense converts the candidate into a ledger expense. A non-numeric
// amount or unparseable date fails with a validation error.
func (c Candidate) Expense() (ledger.Expense, error) {
	amount, err := decimal.NewFromString(c.Amount.String())
	if err != nil {
		return ledger.Expense{}, fmt.Errorf("%w: amount %q is not numeric", ledger.ErrValidation, c.Amount.String())
	}
	date, err := time.Parse("2006-01-02", c.Date)
	if err != nil {
		return ledger.Expense{}, fmt.Errorf("%w: date %q is not a calendar date", ledger.ErrValidation, c.Date)
	}
	return ledger.Expense{
		Amount:      amount,
		Category:    c.Category,
		Description: c.Description,
		Date:        date,
		Tags:        c.Tags,
		Mood:        ledger.Mood(c.Mood),
		Recurring:   c.Recurring,
	}, nil
}
