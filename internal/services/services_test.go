package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/log"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage/memory"
)

var (
	alice = core.Actor{UserID: "alice", Role: core.RoleUser}
	bob   = core.Actor{UserID: "bob", Role: core.RoleUser}
	admin = core.Actor{UserID: "root", Role: core.RoleAdmin}

	day0 = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	store    *memory.Store
	exporter *sheetsmem.Exporter
	svc      *Services
	now      time.Time
}

func newFixture(t *testing.T, opts ...func(*Deps)) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.New(),
		exporter: sheetsmem.New(),
		now:      day0.Add(12 * time.Hour),
	}
	deps := Deps{
		Store:    f.store,
		Exporter: f.exporter,
		Now:      func() time.Time { return f.now },
		Logger:   log.New(log.Config{Level: slog.LevelError, Output: io.Discard}),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.svc = New(deps)
	return f
}

func (f *fixture) createPlan(t *testing.T, actor core.Actor, income int64, cats ...core.ExpenseCategory) core.BudgetPlan {
	t.Helper()
	plan, err := f.svc.Budget.CreatePlan(context.Background(), actor, PlanInput{
		TotalIncome: decimal.NewFromInt(income),
		Categories:  cats,
	})
	require.NoError(t, err)
	return plan
}

func (f *fixture) notifications(t *testing.T, owner string, typ core.NotificationType) []core.Notification {
	t.Helper()
	all, err := f.store.ListNotifications(context.Background(), owner)
	require.NoError(t, err)
	var out []core.Notification
	for _, n := range all {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func category(name string, amount int64) core.ExpenseCategory {
	return core.ExpenseCategory{Name: name, ExpenseType: core.Essential, BudgetAmount: decimal.NewFromInt(amount)}
}

func expense(cat, amount string, date time.Time) core.Transaction {
	return core.Transaction{
		Direction:     core.Expense,
		Amount:        decimal.RequireFromString(amount),
		BaseCurrency:  "USD",
		Category:      cat,
		ExpenseType:   core.Essential,
		PaymentMethod: core.Cash,
		Date:          date,
	}
}

func income(cat, amount string, date time.Time) core.Transaction {
	return core.Transaction{
		Direction:     core.Income,
		Amount:        decimal.RequireFromString(amount),
		BaseCurrency:  "USD",
		Category:      cat,
		PaymentMethod: core.BankTransfer,
		Date:          date,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestBudgetService_CreatePlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	plan := f.createPlan(t, alice, 3000, category("Groceries", 400), category("Housing", 1200))
	assert.Equal(t, "alice", plan.OwnerID)
	assert.Equal(t, int64(1), plan.Version)
	assert.True(t, dec("1600").Equal(plan.Categories[0].RemainingAmount.Add(plan.Categories[1].RemainingAmount)))
	assert.True(t, dec("3000").Equal(plan.RemainingBudget))

	_, err := f.svc.Budget.CreatePlan(ctx, alice, PlanInput{TotalIncome: decimal.NewFromInt(1)})
	assert.True(t, core.IsKind(err, core.KindConflict), "got %v", err)

	_, err = f.svc.Budget.CreatePlan(ctx, bob, PlanInput{OwnerID: "alice"})
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.svc.Budget.CreatePlan(ctx, bob, PlanInput{Categories: []core.ExpenseCategory{category("", 10)}})
	assert.True(t, core.IsKind(err, core.KindValidation), "got %v", err)
}

func TestBudgetService_GetPlanAccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createPlan(t, alice, 1000, category("Groceries", 100))

	_, err := f.svc.Budget.GetPlan(ctx, bob, "alice")
	assert.ErrorIs(t, err, core.ErrForbidden)

	plan, err := f.svc.Budget.GetPlan(ctx, admin, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", plan.OwnerID)

	_, err = f.svc.Budget.GetPlan(ctx, bob, "")
	assert.ErrorIs(t, err, core.ErrPlanNotFound)

	_, err = f.svc.Budget.GetPlan(ctx, core.Actor{}, "alice")
	assert.ErrorIs(t, err, core.ErrForbidden)
}

func TestBudgetService_AddExpenseThresholds(t *testing.T) {
	tests := []struct {
		name       string
		amount     string
		wantCount  int
		wantThresh string
		wantOver   string
	}{
		{name: "below warning", amount: "79", wantCount: 0},
		{name: "warning at 85 percent", amount: "85", wantCount: 1, wantThresh: "80", wantOver: "0"},
		{name: "exactly at budget", amount: "100", wantCount: 1, wantThresh: "100", wantOver: "0"},
		{name: "over budget", amount: "120", wantCount: 1, wantThresh: "100", wantOver: "20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			f.createPlan(t, alice, 1000, category("Groceries", 100))

			plan, err := f.svc.Budget.AddExpense(ctx, alice, "", "Groceries", dec(tt.amount))
			require.NoError(t, err)
			assert.True(t, dec(tt.amount).Equal(plan.Categories[0].SpentAmount))
			assert.Equal(t, int64(2), plan.Version)

			ns := f.notifications(t, "alice", core.NotifyBudgetExceeded)
			require.Len(t, ns, tt.wantCount)
			if tt.wantCount == 0 {
				return
			}
			n := ns[0]
			assert.Equal(t, "Groceries", n.Category)
			assert.True(t, dec(tt.wantThresh).Equal(n.Threshold), "threshold %s", n.Threshold)
			assert.True(t, dec(tt.wantOver).Equal(n.Overage()), "overage %s", n.Overage())
			assert.True(t, dec("100").Equal(n.Limit))
		})
	}
}

func TestBudgetService_AddExpenseNoDedupe(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createPlan(t, alice, 1000, category("Groceries", 100))

	for range 2 {
		_, err := f.svc.Budget.AddExpense(ctx, alice, "", "Groceries", dec("45"))
		require.NoError(t, err)
	}
	// 45 then 90: only the second write crosses 80.
	assert.Len(t, f.notifications(t, "alice", core.NotifyBudgetExceeded), 1)

	_, err := f.svc.Budget.AddExpense(ctx, alice, "", "Groceries", dec("1"))
	require.NoError(t, err)
	assert.Len(t, f.notifications(t, "alice", core.NotifyBudgetExceeded), 2)
}

func TestBudgetService_AddExpenseErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Budget.AddExpense(ctx, alice, "", "Groceries", dec("10"))
	assert.ErrorIs(t, err, core.ErrPlanNotFound)

	f.createPlan(t, alice, 1000, category("Groceries", 100))

	_, err = f.svc.Budget.AddExpense(ctx, alice, "", "Travel", dec("10"))
	assert.ErrorIs(t, err, core.ErrCategoryNotFound)

	_, err = f.svc.Budget.AddExpense(ctx, alice, "", "Groceries", dec("0"))
	assert.True(t, core.IsKind(err, core.KindValidation))

	plan, err := f.svc.Budget.GetPlan(ctx, alice, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), plan.Version, "failed writes must not touch the plan")
}

func TestBudgetService_AddIncome(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createPlan(t, alice, 1000, category("Groceries", 100))

	plan, err := f.svc.Budget.AddIncome(ctx, alice, "", dec("250.50"))
	require.NoError(t, err)
	assert.True(t, dec("1250.50").Equal(plan.TotalIncome))
	assert.True(t, dec("1250.50").Equal(plan.RemainingBudget))
}

func TestBudgetService_ConfigurePlan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	incomeAmt := dec("2000")
	plan, err := f.svc.Budget.ConfigurePlan(ctx, alice, "", budget.Changes{
		TotalIncome: &incomeAmt,
		Categories:  []core.ExpenseCategory{category("Groceries", 300)},
	})
	require.NoError(t, err, "configure creates the plan lazily")
	assert.Equal(t, int64(1), plan.Version)

	_, err = f.svc.Budget.AddExpense(ctx, alice, "", "Groceries", dec("50"))
	require.NoError(t, err)

	plan, err = f.svc.Budget.ConfigurePlan(ctx, alice, "", budget.Changes{
		Categories: []core.ExpenseCategory{category("Groceries", 500), category("Travel", 100)},
	})
	require.NoError(t, err)
	require.Len(t, plan.Categories, 2)
	assert.True(t, dec("50").Equal(plan.Categories[0].SpentAmount), "spent amounts survive reconfiguration")
	assert.True(t, dec("450").Equal(plan.Categories[0].RemainingAmount))
	assert.True(t, dec("2000").Equal(plan.TotalIncome))
}

// racingStore commits a competing plan write between every read and save.
type racingStore struct {
	*memory.Store
}

func (r racingStore) GetPlan(ctx context.Context, ownerID string) (core.BudgetPlan, error) {
	p, err := r.Store.GetPlan(ctx, ownerID)
	if err != nil {
		return p, err
	}
	if _, err := r.Store.SavePlan(ctx, p); err != nil {
		return core.BudgetPlan{}, err
	}
	return p, nil
}

func TestBudgetService_StaleWrite(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createPlan(t, alice, 1000, category("Groceries", 100))

	racing := New(Deps{
		Store:  racingStore{f.store},
		Now:    func() time.Time { return f.now },
		Logger: log.New(log.Config{Output: io.Discard}),
	})

	_, err := racing.Budget.AddExpense(ctx, alice, "", "Groceries", dec("10"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrStaleWrite)
	assert.Equal(t, core.KindConflict, core.KindOf(err))

	_, err = racing.Ledger.AddTransaction(ctx, alice, expense("Groceries", "10", day0))
	assert.ErrorIs(t, err, core.ErrStaleWrite)

	txs, err := f.store.ListTransactions(ctx, storageAll("alice"))
	require.NoError(t, err)
	assert.Empty(t, txs, "entry is rolled back when the plan save loses")

	plan, err := f.store.GetPlan(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, plan.TotalSpent.IsZero())
}
