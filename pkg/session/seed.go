package session

import (
	"fmt"
	"time"

	"github.com/finote/finote/internal/utils"
	"github.com/finote/finote/pkg/ledger"
	"github.com/finote/finote/pkg/profile"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// defaultCategories are the categories every fresh store gets a budget
// for, at defaultBudgetAmount each.
var defaultCategories = []string{
	"Food & Dining",
	"Transportation",
	"Shopping",
	"Entertainment",
	"Bills & Utilities",
	"Healthcare",
	"Education",
	"Others",
}

var defaultBudgetAmount = decimal.NewFromInt(500)

// seedStore populates a fresh store with the starter expenses and the
// default per-category budgets a first-time user sees.
func seedStore(store *ledger.Store, clock utils.Clock) error {
	today := clock.Now().UTC().Truncate(24 * time.Hour)
	samples := []ledger.Expense{
		{
			Amount:      decimal.NewFromFloat(45.50),
			Category:    "Food & Dining",
			Description: "Lunch at cafe",
			Date:        today,
			Tags:        []string{"lunch"},
			Mood:        ledger.MoodHappy,
		},
		{
			Amount:      decimal.NewFromInt(120),
			Category:    "Shopping",
			Description: "New shoes",
			Date:        today.AddDate(0, 0, -1),
			Tags:        []string{"clothing"},
			Mood:        ledger.MoodNeutral,
		},
		{
			Amount:      decimal.NewFromInt(30),
			Category:    "Transportation",
			Description: "Uber ride",
			Date:        today.AddDate(0, 0, -2),
			Tags:        []string{"commute"},
			Mood:        ledger.MoodNeutral,
		},
	}
	for _, e := range samples {
		if _, err := store.AddExpense(e); err != nil {
			return fmt.Errorf("seeding expense %q: %w", e.Description, err)
		}
	}
	for _, category := range defaultCategories {
		if err := store.SetBudget(category, defaultBudgetAmount); err != nil {
			return fmt.Errorf("seeding budget %q: %w", category, err)
		}
	}
	return nil
}

// seedProfile returns the default profile with the starter subscriptions.
func seedProfile(clock utils.Clock) profile.Profile {
	p := profile.Default()
	today := clock.Now()
	p.Subscriptions = []profile.Subscription{
		{
			ID:             uuid.NewString(),
			Name:           "Netflix",
			Amount:         decimal.NewFromFloat(15.99),
			Frequency:      "monthly",
			NextBilling:    today.AddDate(0, 0, 7).Format("2006-01-02"),
			CancelReminder: true,
		},
		{
			ID:             uuid.NewString(),
			Name:           "Spotify",
			Amount:         decimal.NewFromFloat(9.99),
			Frequency:      "monthly",
			NextBilling:    today.AddDate(0, 0, 14).Format("2006-01-02"),
			CancelReminder: false,
		},
	}
	return p
}
