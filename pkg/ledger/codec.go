package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finote/finote/internal/utils"
	"github.com/shopspring/decimal"
)

// snapshotMagic identifies version 1 of the snapshot format. Bytes that
// do not start with it are not ours and are rejected as corrupt.
var snapshotMagic = []byte("FNSNAP1\n")

const dateLayout = "2006-01-02"

type snapshotExpense struct {
	ID          int64           `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Tags        []string        `json:"tags"`
	Mood        string          `json:"mood"`
	Recurring   bool            `json:"recurring"`
	CreatedAt   time.Time       `json:"createdAt"`
	Seq         uint64          `json:"seq"`
}

type snapshotBudget struct {
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type snapshotEnvelope struct {
	Expenses []snapshotExpense `json:"expenses"`
	Budgets  []snapshotBudget  `json:"budgets"`
	NextID   int64             `json:"nextId"`
}

// Export serializes the full store to a portable byte snapshot. A later
// Import of those bytes restores an observably identical store.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	env := snapshotEnvelope{
		Expenses: make([]snapshotExpense, 0, len(s.rows)),
		Budgets:  make([]snapshotBudget, 0, len(s.budgets)),
		NextID:   s.nextID,
	}
	for _, r := range s.rows {
		env.Expenses = append(env.Expenses, snapshotExpense{
			ID:          r.expense.ID,
			Amount:      r.expense.Amount,
			Category:    r.expense.Category,
			Description: r.expense.Description,
			Date:        r.expense.Date.Format(dateLayout),
			Tags:        r.expense.Tags,
			Mood:        string(r.expense.Mood),
			Recurring:   r.expense.Recurring,
			CreatedAt:   r.expense.CreatedAt,
			Seq:         r.seq,
		})
	}
	for _, b := range s.budgets {
		env.Budgets = append(env.Budgets, snapshotBudget{
			Category:  b.Category,
			Amount:    b.Amount,
			UpdatedAt: b.UpdatedAt,
		})
	}

	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return append(append([]byte{}, snapshotMagic...), body...), nil
}

// Import rebuilds a store from a snapshot produced by Export. Any byte
// sequence that is not a well-formed export fails with an error wrapping
// ErrCorruptSnapshot; callers should fall back to a fresh store.
func Import(data []byte, clock utils.Clock) (*Store, error) {
	if !bytes.HasPrefix(data, snapshotMagic) {
		return nil, fmt.Errorf("%w: unrecognized header", ErrCorruptSnapshot)
	}

	var env snapshotEnvelope
	if err := json.Unmarshal(bytes.TrimPrefix(data, snapshotMagic), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}

	s := NewStore(clock)
	for _, se := range env.Expenses {
		if se.ID <= 0 {
			return nil, fmt.Errorf("%w: expense id %d", ErrCorruptSnapshot, se.ID)
		}
		date, err := time.Parse(dateLayout, se.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: expense %d date %q", ErrCorruptSnapshot, se.ID, se.Date)
		}
		// Same write-boundary rule as AddExpense: an unknown mood
		// becomes neutral rather than entering the store verbatim.
		mood := Mood(se.Mood)
		switch mood {
		case MoodHappy, MoodNeutral, MoodSad:
		default:
			mood = MoodNeutral
		}
		e := Expense{
			ID:          se.ID,
			Amount:      se.Amount,
			Category:    se.Category,
			Description: se.Description,
			Date:        date,
			Tags:        normalizeTags(se.Tags),
			Mood:        mood,
			Recurring:   se.Recurring,
			CreatedAt:   se.CreatedAt,
		}
		if e.Amount.IsNegative() || e.Category == "" || e.Description == "" {
			return nil, fmt.Errorf("%w: expense %d fails validation", ErrCorruptSnapshot, se.ID)
		}
		s.rows = append(s.rows, row{expense: e, seq: se.Seq})
		if se.Seq >= s.nextSeq {
			s.nextSeq = se.Seq + 1
		}
		if se.ID >= s.nextID {
			s.nextID = se.ID + 1
		}
	}
	for _, sb := range env.Budgets {
		if sb.Category == "" || sb.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: budget %q fails validation", ErrCorruptSnapshot, sb.Category)
		}
		s.budgets[sb.Category] = Budget{
			Category:  sb.Category,
			Amount:    sb.Amount,
			UpdatedAt: sb.UpdatedAt,
		}
	}
	if env.NextID > s.nextID {
		s.nextID = env.NextID
	}
	return s, nil
}
