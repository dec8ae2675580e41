package session

import (
	"context"
	"testing"
	"time"

	"github.com/finote/finote/internal/event_bus"
	"github.com/finote/finote/internal/utils"
	"github.com/finote/finote/pkg/ledger"
	"github.com/finote/finote/pkg/vault"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser = "user-1"

var ctx = context.Background()

var testClock = &utils.MockClock{FixedNow: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)}

func newTestSession(v *vault.StubVault) *Session {
	return NewSession(v, testClock, event_bus.NewEventBus())
}

// seedEmptySnapshot stores a valid snapshot of an empty ledger, so a
// login skips the starter data and badge counting starts from zero.
func seedEmptySnapshot(t *testing.T, v *vault.StubVault) {
	t.Helper()
	data, err := ledger.NewStore(testClock).Export()
	require.NoError(t, err)
	v.SeedSnapshot(testUser, data)
}

func addOne(t *testing.T, s *Session, date string) ledger.Expense {
	t.Helper()
	day, err := time.Parse("2006-01-02", date)
	require.NoError(t, err)
	stored, err := s.AddExpense(ctx, ledger.Expense{
		Amount:      decimal.NewFromInt(10),
		Category:    "Food & Dining",
		Description: "Coffee",
		Date:        day,
	})
	require.NoError(t, err)
	return stored
}

func TestSession_Login(t *testing.T) {
	t.Run("should seed a fresh session with starter data", func(t *testing.T) {
		v := vault.NewStubVault()
		s := newTestSession(v)

		require.NoError(t, s.Login(ctx, testUser))
		assert.Equal(t, StateReady, s.State())

		expenses, err := s.Expenses()
		require.NoError(t, err)
		assert.Len(t, expenses, 3)

		budgets, err := s.Budgets()
		require.NoError(t, err)
		require.Len(t, budgets, 8)
		for category, amount := range budgets {
			assert.True(t, decimal.NewFromInt(500).Equal(amount), "budget %s", category)
		}

		p, err := s.Profile()
		require.NoError(t, err)
		assert.Len(t, p.Subscriptions, 2)
		assert.Equal(t, 0, p.Streak)
		assert.Empty(t, p.Badges)

		// Seeds are persisted immediately so the next login finds them.
		assert.NotEmpty(t, v.Snapshot(testUser))
		assert.NotEmpty(t, v.Profile(testUser))
	})

	t.Run("should recover from a corrupt snapshot by reseeding", func(t *testing.T) {
		v := vault.NewStubVault()
		v.SeedSnapshot(testUser, []byte("definitely not a snapshot"))
		s := newTestSession(v)

		require.NoError(t, s.Login(ctx, testUser))

		assert.Equal(t, StateReady, s.State())
		expenses, err := s.Expenses()
		require.NoError(t, err)
		assert.Len(t, expenses, 3)
	})

	t.Run("should restore state persisted by a previous session", func(t *testing.T) {
		v := vault.NewStubVault()
		first := newTestSession(v)
		require.NoError(t, first.Login(ctx, testUser))
		stored := addOne(t, first, "2024-03-01")
		require.NoError(t, first.UpdateBudgets(ctx, map[string]decimal.Decimal{"Food & Dining": decimal.NewFromInt(250)}))
		first.Logout(ctx)

		second := newTestSession(v)
		require.NoError(t, second.Login(ctx, testUser))

		expenses, err := second.Expenses()
		require.NoError(t, err)
		assert.Len(t, expenses, 4)
		found := false
		for _, e := range expenses {
			if e.ID == stored.ID {
				found = true
				assert.Equal(t, "Coffee", e.Description)
			}
		}
		assert.True(t, found)

		budgets, err := second.Budgets()
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(250).Equal(budgets["Food & Dining"]))
	})

	t.Run("should stay logged out when durable storage is unavailable", func(t *testing.T) {
		v := vault.NewStubVault()
		v.FailLoads = true
		s := newTestSession(v)

		err := s.Login(ctx, testUser)

		assert.ErrorIs(t, err, ErrInitialization)
		assert.Equal(t, StateLoggedOut, s.State())
	})

	t.Run("should stay logged out when the seed cannot be persisted", func(t *testing.T) {
		v := vault.NewStubVault()
		v.FailSaves = true
		s := newTestSession(v)

		err := s.Login(ctx, testUser)

		assert.ErrorIs(t, err, ErrInitialization)
		assert.Equal(t, StateLoggedOut, s.State())
	})

	t.Run("should reject a second login on an active session", func(t *testing.T) {
		v := vault.NewStubVault()
		s := newTestSession(v)
		require.NoError(t, s.Login(ctx, testUser))

		err := s.Login(ctx, "someone-else")

		assert.ErrorIs(t, err, ErrActiveSession)
	})
}

func TestSession_Gamification(t *testing.T) {
	t.Run("should award First 10 exactly on the tenth add", func(t *testing.T) {
		v := vault.NewStubVault()
		seedEmptySnapshot(t, v)
		s := newTestSession(v)
		require.NoError(t, s.Login(ctx, testUser))

		for i := 0; i < 9; i++ {
			addOne(t, s, "2024-03-01")
		}
		p, err := s.Profile()
		require.NoError(t, err)
		assert.NotContains(t, p.Badges, BadgeFirst10)

		addOne(t, s, "2024-03-01")
		p, err = s.Profile()
		require.NoError(t, err)
		assert.Contains(t, p.Badges, BadgeFirst10)

		addOne(t, s, "2024-03-01")
		p, err = s.Profile()
		require.NoError(t, err)
		count := 0
		for _, b := range p.Badges {
			if b == BadgeFirst10 {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("should award Week Warrior when the streak reaches 7 and keep it", func(t *testing.T) {
		v := vault.NewStubVault()
		seedEmptySnapshot(t, v)
		s := newTestSession(v)
		require.NoError(t, s.Login(ctx, testUser))

		for i := 0; i < 6; i++ {
			addOne(t, s, "2024-03-01")
		}
		p, err := s.Profile()
		require.NoError(t, err)
		assert.Equal(t, 6, p.Streak)
		assert.NotContains(t, p.Badges, BadgeWeekWarrior)

		addOne(t, s, "2024-03-01")
		p, err = s.Profile()
		require.NoError(t, err)
		assert.Equal(t, 7, p.Streak)
		assert.Contains(t, p.Badges, BadgeWeekWarrior)

		for i := 0; i < 5; i++ {
			addOne(t, s, "2024-03-02")
		}
		p, err = s.Profile()
		require.NoError(t, err)
		assert.Contains(t, p.Badges, BadgeWeekWarrior)
	})

	t.Run("should not advance the streak on a rejected add", func(t *testing.T) {
		v := vault.NewStubVault()
		seedEmptySnapshot(t, v)
		s := newTestSession(v)
		require.NoError(t, s.Login(ctx, testUser))
		addOne(t, s, "2024-03-01")

		_, err := s.AddExpense(ctx, ledger.Expense{Amount: decimal.NewFromInt(-1), Category: "Food", Description: "x", Date: testClock.Now()})
		assert.ErrorIs(t, err, ledger.ErrValidation)

		p, err := s.Profile()
		require.NoError(t, err)
		assert.Equal(t, 1, p.Streak)
		expenses, err := s.Expenses()
		require.NoError(t, err)
		assert.Len(t, expenses, 1)
	})
}

func TestSession_Mutations(t *testing.T) {
	t.Run("should preserve the id across an update", func(t *testing.T) {
		v := vault.NewStubVault()
		s := newTestSession(v)
		require.NoError(t, s.Login(ctx, testUser))
		stored := addOne(t, s, "2024-03-01")

		updated, err := s.UpdateExpense(ctx, stored.ID, ledger.Expense{
			Amount:      decimal.NewFromInt(42),
			Category:    "Shopping",
			Description: "Corrected",
			Date:        stored.Date,
		})
		require.NoError(t, err)

		assert.Equal(t, stored.ID, updated.ID)
		expenses, err := s.Expenses()
		require.NoError(t, err)
		assert.Len(t, expenses, 4)
	})

	t.Run("should leave the store unchanged when an update is rejected", func(t *testing.T) {
		v := vault.NewStubVault()
		s := newTestSession(v)
		require.NoError(t, s.Login(ctx, testUser))
		stored := addOne(t, s, "2024-03-01")

		_, err := s.UpdateExpense(ctx, stored.ID, ledger.Expense{
			Amount:      decimal.NewFromInt(-1),
			Category:    "Shopping",
			Description: "Broken",
			Date:        stored.Date,
		})
		assert.ErrorIs(t, err, ledger.ErrValidation)

		expenses, err := s.Expenses()
		require.NoError(t, err)
		found := false
		for _, e := range expenses {
			if e.ID == stored.ID {
				found = true
				assert.Equal(t, "Coffee", e.Description)
			}
		}
		assert.True(t, found)
	})

	t.Run("should tolerate deleting an absent id twice", func(t *testing.T) {
		v := vault.NewStubVault()
		s := newTestSession(v)
		require.NoError(t, s.Login(ctx, testUser))
		stored := addOne(t, s, "2024-03-01")

		require.NoError(t, s.DeleteExpense(ctx, stored.ID))
		require.NoError(t, s.DeleteExpense(ctx, stored.ID))

		expenses, err := s.Expenses()
		require.NoError(t, err)
		assert.Len(t, expenses, 3)
	})

	t.Run("should reject operations outside Ready", func(t *testing.T) {
		s := newTestSession(vault.NewStubVault())

		_, err := s.Expenses()
		assert.ErrorIs(t, err, ErrNotReady)
		_, err = s.AddExpense(ctx, ledger.Expense{})
		assert.ErrorIs(t, err, ErrNotReady)
		err = s.UpdateBudgets(ctx, nil)
		assert.ErrorIs(t, err, ErrNotReady)
	})
}

func TestSession_SaveFailures(t *testing.T) {
	t.Run("should keep the mutation in memory and mark the session dirty", func(t *testing.T) {
		v := vault.NewStubVault()
		s := newTestSession(v)
		require.NoError(t, s.Login(ctx, testUser))

		v.FailSaves = true
		stored := addOne(t, s, "2024-03-01")

		assert.True(t, s.Dirty())
		expenses, err := s.Expenses()
		require.NoError(t, err)
		assert.Len(t, expenses, 4)

		// Durable state is still the pre-failure snapshot.
		restored, err := ledger.Import(v.Snapshot(testUser), testClock)
		require.NoError(t, err)
		assert.Equal(t, 3, restored.ExpenseCount())

		// The next successful save carries the latest full state.
		v.FailSaves = false
		addOne(t, s, "2024-03-02")

		assert.False(t, s.Dirty())
		restored, err = ledger.Import(v.Snapshot(testUser), testClock)
		require.NoError(t, err)
		assert.Equal(t, 5, restored.ExpenseCount())
		found := false
		for _, e := range restored.AllExpenses() {
			if e.ID == stored.ID {
				found = true
			}
		}
		assert.True(t, found, "the mutation that failed to save must be in the recovered snapshot")
	})

	t.Run("should publish persistence health events", func(t *testing.T) {
		v := vault.NewStubVault()
		bus := event_bus.NewEventBus()
		var got []event_bus.EventType
		bus.Subscribe(event_bus.SessionSaveFailed, func(e event_bus.Event) error {
			got = append(got, e.Type)
			return nil
		})
		bus.Subscribe(event_bus.SessionSaveRecovered, func(e event_bus.Event) error {
			got = append(got, e.Type)
			return nil
		})

		s := NewSession(v, testClock, bus)
		require.NoError(t, s.Login(ctx, testUser))

		v.FailSaves = true
		addOne(t, s, "2024-03-01")
		addOne(t, s, "2024-03-01")
		v.FailSaves = false
		addOne(t, s, "2024-03-02")

		// One failed event for the whole degraded stretch, one recovery.
		assert.Equal(t, []event_bus.EventType{event_bus.SessionSaveFailed, event_bus.SessionSaveRecovered}, got)
	})
}

func TestSession_Logout(t *testing.T) {
	t.Run("should flush the latest state before discarding", func(t *testing.T) {
		v := vault.NewStubVault()
		s := newTestSession(v)
		require.NoError(t, s.Login(ctx, testUser))
		addOne(t, s, "2024-03-01")

		s.Logout(ctx)

		assert.Equal(t, StateLoggedOut, s.State())
		restored, err := ledger.Import(v.Snapshot(testUser), testClock)
		require.NoError(t, err)
		assert.Equal(t, 4, restored.ExpenseCount())
	})

	t.Run("should log out even when the final flush fails", func(t *testing.T) {
		v := vault.NewStubVault()
		s := newTestSession(v)
		require.NoError(t, s.Login(ctx, testUser))
		v.FailSaves = true
		addOne(t, s, "2024-03-01")

		s.Logout(ctx)

		assert.Equal(t, StateLoggedOut, s.State())
		_, err := s.Expenses()
		assert.ErrorIs(t, err, ErrNotReady)
	})

	t.Run("should be a no-op when already logged out", func(t *testing.T) {
		s := newTestSession(vault.NewStubVault())

		s.Logout(ctx)

		assert.Equal(t, StateLoggedOut, s.State())
	})
}

func TestManager(t *testing.T) {
	t.Run("should keep sessions apart per user", func(t *testing.T) {
		v := vault.NewStubVault()
		m := NewManager(v, testClock, event_bus.NewEventBus())

		alice, err := m.Login(ctx, "alice")
		require.NoError(t, err)
		bob, err := m.Login(ctx, "bob")
		require.NoError(t, err)

		_, err = alice.AddExpense(ctx, ledger.Expense{
			Amount: decimal.NewFromInt(5), Category: "Food", Description: "Tea", Date: testClock.Now(),
		})
		require.NoError(t, err)

		aliceExpenses, err := alice.Expenses()
		require.NoError(t, err)
		bobExpenses, err := bob.Expenses()
		require.NoError(t, err)
		assert.Len(t, aliceExpenses, 4)
		assert.Len(t, bobExpenses, 3)
	})

	t.Run("should reject a duplicate login", func(t *testing.T) {
		m := NewManager(vault.NewStubVault(), testClock, event_bus.NewEventBus())

		_, err := m.Login(ctx, "alice")
		require.NoError(t, err)
		_, err = m.Login(ctx, "alice")
		assert.ErrorIs(t, err, ErrActiveSession)
	})

	t.Run("should allow a fresh login after logout", func(t *testing.T) {
		m := NewManager(vault.NewStubVault(), testClock, event_bus.NewEventBus())

		_, err := m.Login(ctx, "alice")
		require.NoError(t, err)
		m.Logout(ctx, "alice")

		_, err = m.Login(ctx, "alice")
		assert.NoError(t, err)
	})

	t.Run("should report dirty users", func(t *testing.T) {
		v := vault.NewStubVault()
		m := NewManager(v, testClock, event_bus.NewEventBus())

		s, err := m.Login(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, m.DirtyUsers())

		v.FailSaves = true
		_, err = s.AddExpense(ctx, ledger.Expense{
			Amount: decimal.NewFromInt(5), Category: "Food", Description: "Tea", Date: testClock.Now(),
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"alice"}, m.DirtyUsers())
	})
}
