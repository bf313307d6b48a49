package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type NotificationType string

const (
	NotifyBudgetExceeded NotificationType = "budget_exceeded"
	NotifyGoal           NotificationType = "goal"
	NotifyRecurring      NotificationType = "recurring"
	NotifyMonthlyLimit   NotificationType = "monthly_limit"
)

// RecurringDetails describes the ledger entry a recurring notification is about.
type RecurringDetails struct {
	TransactionID string
	TaskName      string
	Amount        decimal.Decimal
	NextDueDate   time.Time
}

// Notification is an immutable alert record owned by one user.
type Notification struct {
	ID       string
	OwnerID  string
	Category string
	Message  string
	Type     NotificationType

	// Budget context; zero when not applicable.
	Limit                decimal.Decimal
	TotalSpent           decimal.Decimal
	BalanceAfterSpending decimal.Decimal
	Threshold            decimal.Decimal

	TransactionID string
	Recurring     *RecurringDetails

	CreatedAt time.Time
}

// Overage is how far spending went past the limit, or zero.
func (n Notification) Overage() decimal.Decimal {
	over := n.TotalSpent.Sub(n.Limit)
	if over.IsPositive() {
		return over
	}
	return decimal.Zero
}
