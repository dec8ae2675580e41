package ledger

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/finote/finote/internal/utils"
	"github.com/shopspring/decimal"
)

// row pairs an expense with its insertion sequence number. The sequence
// breaks ordering ties between expenses on the same date and must survive
// the snapshot round trip.
type row struct {
	expense Expense
	seq     uint64
}

// Store is the authoritative in-memory table set for one session. It is
// safe for concurrent use; all reads return copies.
type Store struct {
	mu      sync.Mutex
	rows    []row
	budgets map[string]Budget
	nextID  int64
	nextSeq uint64
	clock   utils.Clock
}

// NewStore creates an empty store.
func NewStore(clock utils.Clock) *Store {
	return &Store{
		budgets: make(map[string]Budget),
		nextID:  1,
		nextSeq: 1,
		clock:   clock,
	}
}

// AddExpense validates and inserts an expense. The date is a calendar
// day: any time of day is dropped (UTC midnight) so it survives the
// snapshot round trip unchanged. An absent (zero) ID is assigned from
// the store's monotonic counter; an explicit ID is kept, so a
// delete+insert update preserves identity. Returns the stored expense,
// or an error wrapping ErrValidation when the input is malformed, in
// which case the store is unchanged.
func (s *Store) AddExpense(e Expense) (Expense, error) {
	if e.Amount.IsNegative() {
		return Expense{}, fmt.Errorf("%w: amount must be non-negative, got %s", ErrValidation, e.Amount)
	}
	if strings.TrimSpace(e.Category) == "" {
		return Expense{}, fmt.Errorf("%w: category is required", ErrValidation)
	}
	if strings.TrimSpace(e.Description) == "" {
		return Expense{}, fmt.Errorf("%w: description is required", ErrValidation)
	}
	if e.Date.IsZero() {
		return Expense{}, fmt.Errorf("%w: date is required", ErrValidation)
	}

	e.Date = e.Date.UTC().Truncate(24 * time.Hour)
	e.Tags = normalizeTags(e.Tags)
	switch e.Mood {
	case MoodHappy, MoodNeutral, MoodSad:
	default:
		e.Mood = MoodNeutral
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == 0 {
		e.ID = s.nextID
		s.nextID++
	} else if e.ID >= s.nextID {
		s.nextID = e.ID + 1
	}

	s.rows = append(s.rows, row{expense: copyExpense(e), seq: s.nextSeq})
	s.nextSeq++
	return e, nil
}

// AllExpenses returns all expenses ordered by date descending, ties
// broken by insertion order newest first. Tags is never nil.
func (s *Store) AllExpenses() []Expense {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]row, len(s.rows))
	copy(rows, s.rows)
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].expense.Date.Equal(rows[j].expense.Date) {
			return rows[i].expense.Date.After(rows[j].expense.Date)
		}
		return rows[i].seq > rows[j].seq
	})

	expenses := make([]Expense, 0, len(rows))
	for _, r := range rows {
		expenses = append(expenses, copyExpense(r.expense))
	}
	return expenses
}

// ExpenseCount returns the number of stored expenses.
func (s *Store) ExpenseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// DeleteExpense removes the expense with the given id. Absent ids are a
// no-op, not an error.
func (s *Store) DeleteExpense(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.rows {
		if r.expense.ID == id {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return
		}
	}
}

// SetBudget upserts the budget for a category, touching its update
// timestamp. A category has at most one budget row.
func (s *Store) SetBudget(category string, amount decimal.Decimal) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("%w: category is required", ErrValidation)
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: amount must be non-negative, got %s", ErrValidation, amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.budgets[category] = Budget{
		Category:  category,
		Amount:    amount,
		UpdatedAt: s.clock.Now(),
	}
	return nil
}

// AllBudgets returns a category -> amount mapping. Categories with no
// budget are absent, never implicitly zero.
func (s *Store) AllBudgets() map[string]decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()

	budgets := make(map[string]decimal.Decimal, len(s.budgets))
	for category, b := range s.budgets {
		budgets[category] = b.Amount
	}
	return budgets
}

func normalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			normalized = append(normalized, tag)
		}
	}
	return normalized
}

func copyExpense(e Expense) Expense {
	tags := make([]string, len(e.Tags))
	copy(tags, e.Tags)
	e.Tags = tags
	return e
}
