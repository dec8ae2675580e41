package ledger

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	t.Run("should restore an observably identical store", func(t *testing.T) {
		store := NewStore(testClock)
		for _, date := range []string{"2024-01-01", "2024-01-03", "2024-01-02", "2024-01-03"} {
			_, err := store.AddExpense(testExpense(date))
			require.NoError(t, err)
		}
		require.NoError(t, store.SetBudget("Food & Dining", decimal.NewFromInt(500)))
		require.NoError(t, store.SetBudget("Shopping", decimal.NewFromFloat(123.45)))

		data, err := store.Export()
		require.NoError(t, err)

		restored, err := Import(data, testClock)
		require.NoError(t, err)

		want := store.AllExpenses()
		got := restored.AllExpenses()
		require.Len(t, got, len(want))
		for i := range want {
			assert.Equal(t, want[i].ID, got[i].ID)
			assert.True(t, want[i].Amount.Equal(got[i].Amount))
			assert.Equal(t, want[i].Category, got[i].Category)
			assert.Equal(t, want[i].Description, got[i].Description)
			assert.True(t, want[i].Date.Equal(got[i].Date))
			assert.Equal(t, want[i].Tags, got[i].Tags)
			assert.Equal(t, want[i].Mood, got[i].Mood)
			assert.Equal(t, want[i].Recurring, got[i].Recurring)
		}

		wantBudgets := store.AllBudgets()
		gotBudgets := restored.AllBudgets()
		require.Len(t, gotBudgets, len(wantBudgets))
		for category, amount := range wantBudgets {
			assert.True(t, amount.Equal(gotBudgets[category]), "budget %s", category)
		}
	})

	t.Run("should round trip entries recorded with a time of day", func(t *testing.T) {
		store := NewStore(testClock)
		noon := testExpense("2024-01-01")
		noon.Date = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		noon.Description = "noon entry"
		_, err := store.AddExpense(noon)
		require.NoError(t, err)
		midnight := testExpense("2024-01-01")
		midnight.Description = "midnight entry"
		_, err = store.AddExpense(midnight)
		require.NoError(t, err)

		data, err := store.Export()
		require.NoError(t, err)
		restored, err := Import(data, testClock)
		require.NoError(t, err)

		want := store.AllExpenses()
		got := restored.AllExpenses()
		require.Len(t, got, 2)
		// Same day, so insertion order decides; the order must not flip
		// across the round trip.
		assert.Equal(t, "midnight entry", got[0].Description)
		for i := range want {
			assert.Equal(t, want[i].Description, got[i].Description)
			assert.True(t, want[i].Date.Equal(got[i].Date))
		}
	})

	t.Run("should normalize an unknown mood on import", func(t *testing.T) {
		store := NewStore(testClock)
		_, err := store.AddExpense(testExpense("2024-01-01"))
		require.NoError(t, err)

		data, err := store.Export()
		require.NoError(t, err)
		tampered := bytes.Replace(data, []byte(`"mood":"neutral"`), []byte(`"mood":"ecstatic"`), 1)
		require.NotEqual(t, data, tampered)

		restored, err := Import(tampered, testClock)
		require.NoError(t, err)
		assert.Equal(t, MoodNeutral, restored.AllExpenses()[0].Mood)
	})

	t.Run("should preserve id assignment across the round trip", func(t *testing.T) {
		store := NewStore(testClock)
		for i := 0; i < 3; i++ {
			_, err := store.AddExpense(testExpense("2024-01-01"))
			require.NoError(t, err)
		}
		store.DeleteExpense(2)

		data, err := store.Export()
		require.NoError(t, err)
		restored, err := Import(data, testClock)
		require.NoError(t, err)

		// A deleted id is never reused, even after a restart.
		next, err := restored.AddExpense(testExpense("2024-01-02"))
		require.NoError(t, err)
		assert.Equal(t, int64(4), next.ID)
	})

	t.Run("should round trip an empty store", func(t *testing.T) {
		store := NewStore(testClock)

		data, err := store.Export()
		require.NoError(t, err)
		restored, err := Import(data, testClock)
		require.NoError(t, err)

		assert.Empty(t, restored.AllExpenses())
		assert.Empty(t, restored.AllBudgets())
	})
}

func TestImport_CorruptInput(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty input", []byte{}},
		{"foreign bytes", []byte("not a snapshot at all")},
		{"magic with invalid body", []byte("FNSNAP1\n{broken json")},
		{"magic with wrong body shape", []byte("FNSNAP1\n{\"expenses\": 42}")},
		{"unsupported version", []byte("FNSNAP9\n{}")},
		{"invalid expense id", []byte("FNSNAP1\n{\"expenses\":[{\"id\":0,\"amount\":\"1\",\"category\":\"a\",\"description\":\"b\",\"date\":\"2024-01-01\"}]}")},
		{"invalid expense date", []byte("FNSNAP1\n{\"expenses\":[{\"id\":1,\"amount\":\"1\",\"category\":\"a\",\"description\":\"b\",\"date\":\"yesterday\"}]}")},
		{"negative budget", []byte("FNSNAP1\n{\"budgets\":[{\"category\":\"Food\",\"amount\":\"-3\"}]}")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import(tt.data, testClock)
			assert.ErrorIs(t, err, ErrCorruptSnapshot)
		})
	}
}
