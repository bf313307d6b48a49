package storage_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

var day0 = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

// eachStore runs fn against every embedded backend.
func eachStore(t *testing.T, fn func(t *testing.T, s storage.Store)) {
	t.Helper()
	backends := []struct {
		name string
		open func(t *testing.T) storage.Store
	}{
		{name: "memory", open: func(*testing.T) storage.Store { return memory.New() }},
		{name: "sqlite", open: func(t *testing.T) storage.Store {
			repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
			require.NoError(t, err)
			return repo
		}},
	}
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, s)
		})
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTx(id, owner string, dir core.Direction, cat, amount string, date time.Time) core.Transaction {
	tx := core.Transaction{
		ID:             id,
		OwnerID:        owner,
		Direction:      dir,
		Amount:         dec(amount),
		BaseCurrency:   "USD",
		TargetCurrency: "USD",
		ExchangeRate:   decimal.NewFromInt(1),
		Category:       cat,
		PaymentMethod:  core.Cash,
		Date:           date,
		CreatedAt:      date,
	}
	if dir == core.Expense {
		tx.ExpenseType = core.Essential
	}
	return tx
}

func ids(txs []core.Transaction) []string {
	out := make([]string, 0, len(txs))
	for _, tx := range txs {
		out = append(out, tx.ID)
	}
	return out
}

func TestStore_Plans(t *testing.T) {
	eachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()

		_, err := s.GetPlan(ctx, "alice")
		assert.ErrorIs(t, err, core.ErrPlanNotFound)

		plan := core.BudgetPlan{
			OwnerID:     "alice",
			TotalIncome: dec("3000"),
			Categories: []core.ExpenseCategory{
				{Name: "Housing", ExpenseType: core.Essential, BudgetAmount: dec("1200")},
				{Name: "Groceries", ExpenseType: core.Essential, BudgetAmount: dec("400")},
			},
			CreatedAt: day0,
			UpdatedAt: day0,
		}
		created, err := s.CreatePlan(ctx, plan)
		require.NoError(t, err)
		assert.Equal(t, int64(1), created.Version)
		assert.True(t, dec("3000").Equal(created.RemainingBudget))

		_, err = s.CreatePlan(ctx, plan)
		assert.ErrorIs(t, err, core.ErrPlanExists)

		got, err := s.GetPlan(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, got.Categories, 2)
		assert.Equal(t, "Housing", got.Categories[0].Name, "category order is kept")
		assert.True(t, dec("1200").Equal(got.Categories[0].RemainingAmount))
		assert.True(t, day0.Equal(got.CreatedAt))

		got.Categories[1].SpentAmount = dec("150.25")
		saved, err := s.SavePlan(ctx, got)
		require.NoError(t, err)
		assert.Equal(t, int64(2), saved.Version)
		assert.True(t, dec("150.25").Equal(saved.TotalSpent))
		assert.True(t, dec("249.75").Equal(saved.Categories[1].RemainingAmount))

		_, err = s.SavePlan(ctx, got)
		assert.ErrorIs(t, err, core.ErrStaleWrite, "saving an old version loses")

		reread, err := s.GetPlan(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(2), reread.Version)
		assert.True(t, dec("2849.75").Equal(reread.RemainingBudget))

		_, err = s.SavePlan(ctx, core.BudgetPlan{OwnerID: "bob", Version: 1})
		assert.ErrorIs(t, err, core.ErrPlanNotFound)
	})
}

func TestStore_TransactionRoundTrip(t *testing.T) {
	eachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()

		end := day0.AddDate(0, 6, 0)
		next := day0.AddDate(0, 1, 0)
		tx := newTx("t1", "alice", core.Expense, "Housing", "1200.50", day0)
		tx.TargetCurrency = "EUR"
		tx.ExchangeRate = dec("0.9")
		tx.Description = "Rent"
		tx.Tags = []string{"home", "fixed"}
		tx.Recurring = true
		tx.Pattern = core.Monthly
		tx.RecurrenceEnd = &end
		tx.NextDueDate = &next
		tx.Expanded = true
		require.NoError(t, s.CreateTransaction(ctx, tx))

		got, err := s.GetTransaction(ctx, "t1")
		require.NoError(t, err)
		assert.True(t, tx.Amount.Equal(got.Amount))
		assert.True(t, tx.ExchangeRate.Equal(got.ExchangeRate))
		assert.Equal(t, core.Expense, got.Direction)
		assert.Equal(t, core.Essential, got.ExpenseType)
		assert.Equal(t, core.Monthly, got.Pattern)
		assert.Equal(t, []string{"home", "fixed"}, got.Tags)
		assert.True(t, got.Recurring)
		assert.True(t, got.Expanded)
		require.NotNil(t, got.RecurrenceEnd)
		assert.True(t, end.Equal(*got.RecurrenceEnd))
		require.NotNil(t, got.NextDueDate)
		assert.True(t, next.Equal(*got.NextDueDate))
		assert.True(t, day0.Equal(got.Date))

		got.Amount = dec("1300")
		got.Tags = nil
		got.NextDueDate = nil
		require.NoError(t, s.UpdateTransaction(ctx, got))

		updated, err := s.GetTransaction(ctx, "t1")
		require.NoError(t, err)
		assert.True(t, dec("1300").Equal(updated.Amount))
		assert.Nil(t, updated.Tags)
		assert.Nil(t, updated.NextDueDate)

		require.NoError(t, s.DeleteTransaction(ctx, "t1"))
		_, err = s.GetTransaction(ctx, "t1")
		assert.ErrorIs(t, err, core.ErrTransactionNotFound)
		assert.ErrorIs(t, s.DeleteTransaction(ctx, "t1"), core.ErrTransactionNotFound)
		assert.ErrorIs(t, s.UpdateTransaction(ctx, got), core.ErrTransactionNotFound)
	})
}

func seedLedger(t *testing.T, s storage.Store) {
	t.Helper()
	ctx := context.Background()

	a := newTx("a", "alice", core.Expense, "Groceries", "10.50", day0)
	a.Tags = []string{"food"}
	b := newTx("b", "alice", core.Expense, "Travel", "200", day0.AddDate(0, 0, 1))
	b.Tags = []string{"trip", "fun"}
	b.ExchangeRate = dec("0.5")
	c := newTx("c", "alice", core.Income, "Salary", "3000", day0.AddDate(0, 0, 2))
	parent := newTx("p", "alice", core.Expense, "Housing", "800", day0)
	parent.Recurring, parent.Pattern, parent.Expanded = true, core.Monthly, true
	parent.CreatedAt = day0.Add(time.Minute)
	pending := newTx("p2", "alice", core.Expense, "Housing", "800", day0.AddDate(0, 1, 0))
	pending.Recurring, pending.Pattern, pending.ParentID = true, core.Monthly, "p"
	other := newTx("o", "bob", core.Expense, "Groceries", "99", day0)
	other.CreatedAt = day0.Add(2 * time.Minute)

	for _, tx := range []core.Transaction{a, b, c, parent, pending, other} {
		require.NoError(t, s.CreateTransaction(ctx, tx))
	}
}

func TestStore_ListTransactions(t *testing.T) {
	from := day0.AddDate(0, 0, 1)
	to := day0.AddDate(0, 0, 2)

	tests := []struct {
		name   string
		filter storage.TransactionFilter
		want   []string
	}{
		{
			name:   "owner newest first",
			filter: storage.TransactionFilter{OwnerID: "alice"},
			want:   []string{"p2", "c", "b", "p", "a"},
		},
		{
			name:   "ascending",
			filter: storage.TransactionFilter{OwnerID: "alice", Ascending: true},
			want:   []string{"a", "p", "b", "c", "p2"},
		},
		{
			name:   "income only",
			filter: storage.TransactionFilter{OwnerID: "alice", Direction: core.Income},
			want:   []string{"c"},
		},
		{
			name:   "category across owners",
			filter: storage.TransactionFilter{Category: "Groceries", Ascending: true},
			want:   []string{"a", "o"},
		},
		{
			name:   "any tag",
			filter: storage.TransactionFilter{OwnerID: "alice", Tags: []string{"fun", "food"}, Ascending: true},
			want:   []string{"a", "b"},
		},
		{
			name:   "date range is inclusive",
			filter: storage.TransactionFilter{OwnerID: "alice", From: &from, To: &to, Ascending: true},
			want:   []string{"b", "c"},
		},
		{
			name:   "copies of a parent",
			filter: storage.TransactionFilter{ParentID: "p"},
			want:   []string{"p2"},
		},
		{
			name:   "pending expansion",
			filter: storage.TransactionFilter{PendingExpansion: true},
			want:   []string{"p2"},
		},
		{
			name:   "recurring only",
			filter: storage.TransactionFilter{RecurringOnly: true, Ascending: true},
			want:   []string{"p", "p2"},
		},
		{
			name:   "settled excludes pending copies",
			filter: storage.TransactionFilter{OwnerID: "alice", Direction: core.Expense, Settled: true, Ascending: true},
			want:   []string{"a", "p", "b"},
		},
	}

	eachStore(t, func(t *testing.T, s storage.Store) {
		seedLedger(t, s)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := s.ListTransactions(context.Background(), tt.filter)
				require.NoError(t, err)
				assert.Equal(t, tt.want, ids(got))
			})
		}
	})
}

func TestStore_Sums(t *testing.T) {
	eachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()
		seedLedger(t, s)

		f := storage.TransactionFilter{OwnerID: "alice", Settled: true}
		byDir, err := s.SumByDirection(ctx, f)
		require.NoError(t, err)
		assert.True(t, dec("3000").Equal(byDir[core.Income]), "income %s", byDir[core.Income])
		assert.True(t, dec("910.5").Equal(byDir[core.Expense]), "converted expenses %s", byDir[core.Expense])

		f.Direction = core.Expense
		totals, err := s.SumByCategory(ctx, f)
		require.NoError(t, err)
		require.Len(t, totals, 3)
		assert.Equal(t, "Housing", totals[0].Category)
		assert.Equal(t, "Travel", totals[1].Category)
		assert.True(t, dec("100").Equal(totals[1].Total))
		assert.Equal(t, "Groceries", totals[2].Category)

		empty, err := s.SumByDirection(ctx, storage.TransactionFilter{OwnerID: "nobody"})
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func TestStore_Notifications(t *testing.T) {
	eachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()

		budget := core.Notification{
			ID:         "n1",
			OwnerID:    "alice",
			Category:   "Groceries",
			Message:    "Budget exceeded",
			Type:       core.NotifyBudgetExceeded,
			Limit:      dec("100"),
			TotalSpent: dec("120"),
			Threshold:  dec("100"),
			CreatedAt:  day0,
		}
		recurring := core.Notification{
			ID:      "n2",
			OwnerID: "alice",
			Message: "Rent due soon",
			Type:    core.NotifyRecurring,
			Recurring: &core.RecurringDetails{
				TransactionID: "t1",
				TaskName:      "Rent",
				Amount:        dec("800"),
				NextDueDate:   day0.AddDate(0, 0, 3),
			},
			CreatedAt: day0.Add(time.Hour),
		}
		sameTime := recurring
		sameTime.ID = "n3"
		sameTime.Recurring = nil
		sameTime.Type = core.NotifyGoal

		for _, n := range []core.Notification{budget, recurring, sameTime} {
			require.NoError(t, s.CreateNotification(ctx, n))
		}
		require.NoError(t, s.CreateNotification(ctx, core.Notification{ID: "n4", OwnerID: "bob", Message: "x", Type: core.NotifyGoal, CreatedAt: day0}))

		got, err := s.ListNotifications(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "n3", got[0].ID, "newest insert wins timestamp ties")
		assert.Equal(t, "n2", got[1].ID)
		assert.Equal(t, "n1", got[2].ID)

		require.NotNil(t, got[1].Recurring)
		assert.Equal(t, "Rent", got[1].Recurring.TaskName)
		assert.True(t, dec("800").Equal(got[1].Recurring.Amount))
		assert.True(t, day0.AddDate(0, 0, 3).Equal(got[1].Recurring.NextDueDate))
		assert.Nil(t, got[0].Recurring)
		assert.True(t, dec("120").Equal(got[2].TotalSpent))

		none, err := s.ListNotifications(ctx, "carol")
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestStore_Goals(t *testing.T) {
	eachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()

		goals := []core.Goal{
			{ID: "g2", OwnerID: "alice", Name: "Car", TargetAmount: dec("5000"), Deadline: day0.AddDate(1, 0, 0)},
			{ID: "g1", OwnerID: "alice", Name: "Trip", TargetAmount: dec("1500"), CurrentAmount: dec("300"), Deadline: day0.AddDate(0, 2, 0)},
			{ID: "g3", OwnerID: "bob", Name: "Laptop", TargetAmount: dec("2000"), Deadline: day0.AddDate(0, 1, 0)},
		}
		for _, g := range goals {
			g.CreatedAt, g.UpdatedAt = day0, day0
			require.NoError(t, s.CreateGoal(ctx, g))
		}

		alices, err := s.ListGoals(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, alices, 2)
		assert.Equal(t, "g1", alices[0].ID, "earliest deadline first")

		all, err := s.ListGoals(ctx, "")
		require.NoError(t, err)
		assert.Len(t, all, 3)

		g, err := s.GetGoal(ctx, "g1")
		require.NoError(t, err)
		assert.True(t, dec("300").Equal(g.CurrentAmount))

		g.CurrentAmount = dec("1500")
		require.NoError(t, s.UpdateGoal(ctx, g))
		g, err = s.GetGoal(ctx, "g1")
		require.NoError(t, err)
		assert.True(t, dec("1500").Equal(g.CurrentAmount))

		require.NoError(t, s.DeleteGoal(ctx, "g1"))
		_, err = s.GetGoal(ctx, "g1")
		assert.ErrorIs(t, err, core.ErrGoalNotFound)
		assert.ErrorIs(t, s.DeleteGoal(ctx, "g1"), core.ErrGoalNotFound)
		assert.ErrorIs(t, s.UpdateGoal(ctx, g), core.ErrGoalNotFound)
	})
}

func TestStore_Settings(t *testing.T) {
	eachStore(t, func(t *testing.T, s storage.Store) {
		ctx := context.Background()

		_, err := s.GetSettings(ctx)
		assert.ErrorIs(t, err, core.ErrSettingsNotFound)

		st := core.DefaultSettings()
		st.UpdatedAt = day0
		require.NoError(t, s.CreateSettings(ctx, st))
		assert.ErrorIs(t, s.CreateSettings(ctx, st), core.ErrSettingsExist)

		got, err := s.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, st.Categories, got.Categories)
		assert.True(t, st.Limits.TransactionLimit.Equal(got.Limits.TransactionLimit))

		got.Categories = []string{"Groceries"}
		got.Limits.MonthlyLimit = dec("750")
		require.NoError(t, s.SaveSettings(ctx, got))

		reread, err := s.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Groceries"}, reread.Categories)
		assert.True(t, dec("750").Equal(reread.Limits.MonthlyLimit))
	})
}
