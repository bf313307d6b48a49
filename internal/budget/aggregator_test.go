package budget

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestPlan(t *testing.T) core.BudgetPlan {
	t.Helper()
	plan, err := NewPlan("u1", d("2000"), []core.ExpenseCategory{
		{Name: "Groceries", ExpenseType: core.Essential, BudgetAmount: d("100")},
		{Name: "Travel", ExpenseType: core.NonEssential, BudgetAmount: d("0")},
	}, time.Now())
	require.NoError(t, err)
	return plan
}

func requireInvariants(t *testing.T, p core.BudgetPlan) {
	t.Helper()
	sum := decimal.Zero
	for _, c := range p.Categories {
		sum = sum.Add(c.SpentAmount)
		assert.True(t, c.RemainingAmount.Equal(c.BudgetAmount.Sub(c.SpentAmount)),
			"category %s remaining %s != %s - %s", c.Name, c.RemainingAmount, c.BudgetAmount, c.SpentAmount)
	}
	assert.True(t, p.TotalSpent.Equal(sum), "totalSpent %s != sum %s", p.TotalSpent, sum)
	assert.True(t, p.RemainingBudget.Equal(p.TotalIncome.Sub(p.TotalSpent)),
		"remaining %s != %s - %s", p.RemainingBudget, p.TotalIncome, p.TotalSpent)
}

func expenseTx(category string, amount string) core.Transaction {
	return core.Transaction{
		ID:           "tx-" + category,
		OwnerID:      "u1",
		Direction:    core.Expense,
		Amount:       d(amount),
		ExchangeRate: d("1"),
		Category:     category,
		ExpenseType:  core.NonEssential,
	}
}

func TestNewPlan(t *testing.T) {
	plan := newTestPlan(t)
	assert.True(t, plan.RemainingBudget.Equal(d("2000")))
	assert.True(t, plan.TotalSpent.IsZero())
	requireInvariants(t, plan)

	_, err := NewPlan("u1", d("10"), []core.ExpenseCategory{{Name: "X", ExpenseType: "Bogus"}}, time.Now())
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))
}

func TestInvariantsHoldAcrossOperations(t *testing.T) {
	policy := DefaultPolicy()
	plan := newTestPlan(t)

	var err error
	plan, err = RecordIncome(plan, d("500"))
	require.NoError(t, err)
	requireInvariants(t, plan)

	plan, _, err = RecordExpense(plan, "Groceries", d("30.25"), policy)
	require.NoError(t, err)
	requireInvariants(t, plan)

	plan, _ = ApplyTransaction(plan, expenseTx("Dining Out", "12.5"), policy)
	requireInvariants(t, plan)

	income := core.Transaction{Direction: core.Income, Amount: d("100"), ExchangeRate: d("1.1"), Category: "Salary"}
	plan, _ = ApplyTransaction(plan, income, policy)
	requireInvariants(t, plan)

	plan = RevertTransaction(plan, expenseTx("Dining Out", "12.5"))
	requireInvariants(t, plan)

	assert.True(t, plan.TotalIncome.Equal(d("2610")))
	assert.True(t, plan.TotalSpent.Equal(d("30.25")))
}

func TestRecordExpenseUnknownCategory(t *testing.T) {
	plan := newTestPlan(t)
	_, _, err := RecordExpense(plan, "Shopping", d("10"), DefaultPolicy())
	require.ErrorIs(t, err, core.ErrCategoryNotFound)
}

func TestApplyTransactionCreatesCategoryOnTheFly(t *testing.T) {
	plan := newTestPlan(t)
	next, events := ApplyTransaction(plan, expenseTx("Shopping", "40"), DefaultPolicy())

	i := next.CategoryIndex("Shopping")
	require.GreaterOrEqual(t, i, 0)
	c := next.Categories[i]
	assert.True(t, c.BudgetAmount.IsZero())
	assert.True(t, c.SpentAmount.Equal(d("40")))
	assert.True(t, c.RemainingAmount.Equal(d("-40")))
	assert.True(t, next.TotalSpent.Equal(d("40")), "new category must be counted once")
	assert.Empty(t, events, "zero budget never alerts")
	assert.Equal(t, -1, plan.CategoryIndex("Shopping"), "input plan must not be mutated")
	requireInvariants(t, next)
}

func TestApplyTransactionUsesConvertedAmount(t *testing.T) {
	plan := newTestPlan(t)
	tx := expenseTx("Groceries", "10")
	tx.ExchangeRate = d("2")
	next, _ := ApplyTransaction(plan, tx, DefaultPolicy())
	assert.True(t, next.Categories[0].SpentAmount.Equal(d("20")))
}

func TestDirectThresholds(t *testing.T) {
	policy := DefaultPolicy()

	tests := []struct {
		name     string
		spend    []string
		wantKind core.EventKind
	}{
		{name: "below warning", spend: []string{"79"}},
		{name: "at warning", spend: []string{"80"}, wantKind: core.EventBudgetWarning},
		{name: "85 in two steps", spend: []string{"50", "35"}, wantKind: core.EventBudgetWarning},
		{name: "exactly budget", spend: []string{"100"}, wantKind: core.EventBudgetExceeded},
		{name: "over budget", spend: []string{"120"}, wantKind: core.EventBudgetExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := newTestPlan(t)
			var last []core.Event
			for _, amt := range tt.spend {
				var err error
				plan, last, err = RecordExpense(plan, "Groceries", d(amt), policy)
				require.NoError(t, err)
			}
			if tt.wantKind == "" {
				assert.Empty(t, last)
				return
			}
			require.Len(t, last, 1)
			assert.Equal(t, tt.wantKind, last[0].Kind)
			assert.Equal(t, "Groceries", last[0].Category)
			assert.Equal(t, "u1", last[0].OwnerID)
		})
	}
}

func TestOverageContext(t *testing.T) {
	plan := newTestPlan(t)
	_, events, err := RecordExpense(plan, "Groceries", d("120"), DefaultPolicy())
	require.NoError(t, err)
	require.Len(t, events, 1)
	ev := events[0]
	assert.True(t, ev.Spent.Sub(ev.Limit).Equal(d("20")))
	assert.True(t, ev.Threshold.Equal(d("100")))
}

func TestLedgerThresholdIsSeparate(t *testing.T) {
	policy := DefaultPolicy()
	plan := newTestPlan(t)

	_, events := ApplyTransaction(plan, expenseTx("Groceries", "85"), policy)
	assert.Empty(t, events, "ledger path warns at 90 percent")

	_, events = ApplyTransaction(plan, expenseTx("Groceries", "95"), policy)
	require.Len(t, events, 1)
	assert.Equal(t, core.EventBudgetWarning, events[0].Kind)
	assert.Equal(t, "tx-Groceries", events[0].TransactionID)

	policy.LedgerWarnPercent = d("80")
	_, events = ApplyTransaction(plan, expenseTx("Groceries", "85"), policy)
	require.Len(t, events, 1)
}

func TestRepeatedCrossingsEmitEveryTime(t *testing.T) {
	policy := DefaultPolicy()
	plan := newTestPlan(t)
	plan, first, err := RecordExpense(plan, "Groceries", d("110"), policy)
	require.NoError(t, err)
	_, second, err := RecordExpense(plan, "Groceries", d("1"), policy)
	require.NoError(t, err)
	assert.Len(t, first, 1)
	assert.Len(t, second, 1)
}

func TestConfigure(t *testing.T) {
	plan := newTestPlan(t)
	plan, _, err := RecordExpense(plan, "Groceries", d("40"), DefaultPolicy())
	require.NoError(t, err)

	income := d("3000")
	next, err := Configure(plan, Changes{
		TotalIncome: &income,
		Categories: []core.ExpenseCategory{
			{Name: "Groceries", ExpenseType: core.Essential, BudgetAmount: d("250")},
			{Name: "Housing", ExpenseType: core.Essential, BudgetAmount: d("900")},
		},
	})
	require.NoError(t, err)
	requireInvariants(t, next)

	g := next.Categories[next.CategoryIndex("Groceries")]
	assert.True(t, g.SpentAmount.Equal(d("40")), "spent amount survives budget changes")
	assert.True(t, g.RemainingAmount.Equal(d("210")))
	assert.GreaterOrEqual(t, next.CategoryIndex("Housing"), 0)
	assert.True(t, next.RemainingBudget.Equal(d("2960")))

	_, err = Configure(plan, Changes{Categories: []core.ExpenseCategory{{Name: "Bad", ExpenseType: core.Essential, BudgetAmount: d("-1")}}})
	require.Error(t, err)
}

func TestMonthlyLimitCrossed(t *testing.T) {
	limit := d("1000")
	assert.True(t, MonthlyLimitCrossed(d("990"), d("20"), limit))
	assert.False(t, MonthlyLimitCrossed(d("900"), d("20"), limit))
	assert.False(t, MonthlyLimitCrossed(d("1010"), d("20"), limit), "already above the limit")
	assert.False(t, MonthlyLimitCrossed(d("0"), d("20"), decimal.Zero))
}
