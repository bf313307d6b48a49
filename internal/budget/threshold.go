package budget

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// evaluateThreshold classifies a category's usage after a write. Categories
// without a positive budget never alert.
func evaluateThreshold(ownerID string, c core.ExpenseCategory, warnPercent decimal.Decimal) (core.Event, bool) {
	if !c.BudgetAmount.IsPositive() {
		return core.Event{}, false
	}
	usage := core.Percent(c.SpentAmount, c.BudgetAmount)

	ev := core.Event{
		OwnerID:      ownerID,
		Category:     c.Name,
		UsagePercent: usage,
		Limit:        c.BudgetAmount,
		Spent:        c.SpentAmount,
	}
	switch {
	case usage.GreaterThanOrEqual(hundred):
		ev.Kind = core.EventBudgetExceeded
		ev.Threshold = hundred
	case usage.GreaterThanOrEqual(warnPercent):
		ev.Kind = core.EventBudgetWarning
		ev.Threshold = warnPercent
	default:
		return core.Event{}, false
	}
	return ev, true
}

// MonthlyLimitCrossed reports whether adding amount to spentBefore moves
// monthly spending from within limit to above it.
func MonthlyLimitCrossed(spentBefore, amount, limit decimal.Decimal) bool {
	if !limit.IsPositive() {
		return false
	}
	after := spentBefore.Add(amount)
	return spentBefore.LessThanOrEqual(limit) && after.GreaterThan(limit)
}
