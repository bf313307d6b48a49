// Package budget holds the pure state transitions of a budget plan.
//
// Every function takes a plan by value and returns a recomputed copy together
// with the events the change produced. Nothing here performs I/O; persisting
// the plan and dispatching the events is the caller's job, in that order.
package budget

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Policy holds the warning thresholds, in percent of a category budget, for
// the two ways spending reaches a plan.
type Policy struct {
	// DirectWarnPercent applies to RecordExpense.
	DirectWarnPercent decimal.Decimal
	// LedgerWarnPercent applies to ApplyTransaction.
	LedgerWarnPercent decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		DirectWarnPercent: decimal.NewFromInt(80),
		LedgerWarnPercent: decimal.NewFromInt(90),
	}
}

var hundred = decimal.NewFromInt(100)

// NewPlan builds a fresh plan with nothing spent.
func NewPlan(ownerID string, totalIncome decimal.Decimal, categories []core.ExpenseCategory, now time.Time) (core.BudgetPlan, error) {
	plan := core.BudgetPlan{
		OwnerID:     strings.TrimSpace(ownerID),
		TotalIncome: totalIncome,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, c := range categories {
		plan.Categories = append(plan.Categories, core.ExpenseCategory{
			Name:         strings.TrimSpace(c.Name),
			ExpenseType:  c.ExpenseType,
			BudgetAmount: c.BudgetAmount,
		})
	}
	if err := plan.Validate(); err != nil {
		return core.BudgetPlan{}, err
	}
	plan.Recompute()
	return plan, nil
}

// RecordExpense adds amount to an existing category.
func RecordExpense(plan core.BudgetPlan, category string, amount decimal.Decimal, policy Policy) (core.BudgetPlan, []core.Event, error) {
	if !amount.IsPositive() {
		return plan, nil, core.Validationf("amount must be greater than zero")
	}
	next := plan.Clone()
	i := next.CategoryIndex(category)
	if i < 0 {
		return plan, nil, core.ErrCategoryNotFound
	}
	next.Categories[i].SpentAmount = next.Categories[i].SpentAmount.Add(amount)
	next.Recompute()

	var events []core.Event
	if ev, ok := evaluateThreshold(next.OwnerID, next.Categories[i], policy.DirectWarnPercent); ok {
		events = append(events, ev)
	}
	return next, events, nil
}

// RecordIncome adds amount to the plan's total income.
func RecordIncome(plan core.BudgetPlan, amount decimal.Decimal) (core.BudgetPlan, error) {
	if !amount.IsPositive() {
		return plan, core.Validationf("amount must be greater than zero")
	}
	next := plan.Clone()
	next.TotalIncome = next.TotalIncome.Add(amount)
	next.Recompute()
	return next, nil
}

// ApplyTransaction folds a ledger entry into the plan. Expenses against a
// category the plan does not know create that category with a zero budget.
func ApplyTransaction(plan core.BudgetPlan, tx core.Transaction, policy Policy) (core.BudgetPlan, []core.Event) {
	amount := tx.ConvertedAmount()
	next := plan.Clone()

	if tx.Direction == core.Income {
		next.TotalIncome = next.TotalIncome.Add(amount)
		next.Recompute()
		return next, nil
	}

	i := next.CategoryIndex(tx.Category)
	if i < 0 {
		next.Categories = append(next.Categories, core.ExpenseCategory{
			Name:        tx.Category,
			ExpenseType: tx.ExpenseType,
		})
		i = len(next.Categories) - 1
	}
	next.Categories[i].SpentAmount = next.Categories[i].SpentAmount.Add(amount)
	next.Recompute()

	var events []core.Event
	if ev, ok := evaluateThreshold(next.OwnerID, next.Categories[i], policy.LedgerWarnPercent); ok {
		ev.TransactionID = tx.ID
		events = append(events, ev)
	}
	return next, events
}

// RevertTransaction removes a previously applied entry from the plan. It is
// used for corrections and never emits events.
func RevertTransaction(plan core.BudgetPlan, tx core.Transaction) core.BudgetPlan {
	amount := tx.ConvertedAmount()
	next := plan.Clone()

	if tx.Direction == core.Income {
		next.TotalIncome = next.TotalIncome.Sub(amount)
	} else if i := next.CategoryIndex(tx.Category); i >= 0 {
		next.Categories[i].SpentAmount = next.Categories[i].SpentAmount.Sub(amount)
	}
	next.Recompute()
	return next
}

// Changes describes a settings update of a plan. Nil fields are left alone.
type Changes struct {
	TotalIncome *decimal.Decimal
	Categories  []core.ExpenseCategory
}

// Configure sets total income and upserts category budgets, keeping the
// amounts already spent.
func Configure(plan core.BudgetPlan, ch Changes) (core.BudgetPlan, error) {
	next := plan.Clone()
	if ch.TotalIncome != nil {
		next.TotalIncome = *ch.TotalIncome
	}
	for _, c := range ch.Categories {
		c.Name = strings.TrimSpace(c.Name)
		if err := c.Validate(); err != nil {
			return plan, err
		}
		if i := next.CategoryIndex(c.Name); i >= 0 {
			next.Categories[i].BudgetAmount = c.BudgetAmount
			next.Categories[i].ExpenseType = c.ExpenseType
			continue
		}
		next.Categories = append(next.Categories, core.ExpenseCategory{
			Name:         c.Name,
			ExpenseType:  c.ExpenseType,
			BudgetAmount: c.BudgetAmount,
		})
	}
	if err := next.Validate(); err != nil {
		return plan, err
	}
	next.Recompute()
	return next, nil
}
