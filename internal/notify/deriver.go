// Package notify turns budget events and time-based checks into notification
// records. It holds no state and performs no I/O.
package notify

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	// DefaultWindowDays is how far ahead the sweeps look.
	DefaultWindowDays = 7

	goalCategory      = "Goal Reminder"
	recurringCategory = "Recurring Payment"
	monthlyCategory   = "Monthly Limit"
)

// FromEvent derives the notification for a budget event. ok is false for
// event kinds that do not produce a notification on their own.
func FromEvent(ev core.Event, now time.Time) (core.Notification, bool) {
	n := core.Notification{
		ID:            uuid.NewString(),
		OwnerID:       ev.OwnerID,
		Category:      ev.Category,
		Limit:         ev.Limit,
		TotalSpent:    ev.Spent,
		Threshold:     ev.Threshold,
		TransactionID: ev.TransactionID,
		CreatedAt:     now,
	}
	n.BalanceAfterSpending = ev.Limit.Sub(ev.Spent)

	switch ev.Kind {
	case core.EventBudgetWarning:
		n.Type = core.NotifyBudgetExceeded
		n.Message = fmt.Sprintf("Warning: You have used %s%% of your budget for %s (threshold %s%%).",
			ev.UsagePercent.Round(0).String(), ev.Category, ev.Threshold.String())
	case core.EventBudgetExceeded:
		n.Type = core.NotifyBudgetExceeded
		n.Message = fmt.Sprintf("Alert: You have exceeded your budget for %s by %s.",
			ev.Category, n.Overage().StringFixed(2))
	case core.EventMonthlyLimitExceeded:
		n.Type = core.NotifyMonthlyLimit
		n.Category = monthlyCategory
		n.Message = fmt.Sprintf("Alert: Your spending this month (%s) is above the monthly limit of %s.",
			ev.Spent.StringFixed(2), ev.Limit.StringFixed(2))
	default:
		return core.Notification{}, false
	}
	return n, true
}

// UpcomingRecurring is emitted when a recurring entry projects its next occurrence.
func UpcomingRecurring(tx core.Transaction, due time.Time, now time.Time) core.Notification {
	name := taskName(tx)
	return core.Notification{
		ID:            uuid.NewString(),
		OwnerID:       tx.OwnerID,
		Category:      recurringCategory,
		Type:          core.NotifyRecurring,
		TransactionID: tx.ID,
		Message: fmt.Sprintf("Upcoming recurring %s: %s of %s %s on %s.",
			lowerDirection(tx.Direction), name, tx.Amount.StringFixed(2), tx.BaseCurrency, due.Format(time.DateOnly)),
		Recurring: &core.RecurringDetails{
			TransactionID: tx.ID,
			TaskName:      name,
			Amount:        tx.Amount,
			NextDueDate:   due,
		},
		CreatedAt: now,
	}
}

// DaysUntil returns ceil((t - now) / 24h).
func DaysUntil(now, t time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

// CalendarDaysUntil compares calendar dates only, ignoring the time of day.
func CalendarDaysUntil(now, t time.Time) int {
	return DaysUntil(midnight(now), midnight(t.In(now.Location())))
}

// GoalReminders emits one reminder per goal whose deadline is within window days.
func GoalReminders(goals []core.Goal, now time.Time, window int) []core.Notification {
	var out []core.Notification
	for _, g := range goals {
		days := DaysUntil(now, g.Deadline)
		if days <= 0 || days > window {
			continue
		}
		out = append(out, core.Notification{
			ID:       uuid.NewString(),
			OwnerID:  g.OwnerID,
			Category: goalCategory,
			Type:     core.NotifyGoal,
			Message: fmt.Sprintf("Reminder: Your goal %q is due in %d %s. Progress: %s%%.",
				g.Name, days, plural(days, "day", "days"), g.Progress().Round(2).String()),
			CreatedAt: now,
		})
	}
	return out
}

// RecurringReminders emits one reminder per recurring entry whose next due
// date falls within window days.
func RecurringReminders(txs []core.Transaction, now time.Time, window int) []core.Notification {
	var out []core.Notification
	for _, tx := range txs {
		if !tx.Recurring || tx.NextDueDate == nil {
			continue
		}
		days := CalendarDaysUntil(now, *tx.NextDueDate)
		if days <= 0 || days > window {
			continue
		}
		name := taskName(tx)
		out = append(out, core.Notification{
			ID:            uuid.NewString(),
			OwnerID:       tx.OwnerID,
			Category:      recurringCategory,
			Type:          core.NotifyRecurring,
			TransactionID: tx.ID,
			Message: fmt.Sprintf("Reminder: %s of %s %s is due in %d %s.",
				name, tx.Amount.StringFixed(2), tx.BaseCurrency, days, plural(days, "day", "days")),
			Recurring: &core.RecurringDetails{
				TransactionID: tx.ID,
				TaskName:      name,
				Amount:        tx.Amount,
				NextDueDate:   *tx.NextDueDate,
			},
			CreatedAt: now,
		})
	}
	return out
}

// MonthlyLimitEvent builds the event for a crossed monthly cap.
func MonthlyLimitEvent(ownerID, txID string, spent, limit decimal.Decimal) core.Event {
	return core.Event{
		Kind:          core.EventMonthlyLimitExceeded,
		OwnerID:       ownerID,
		Category:      monthlyCategory,
		Limit:         limit,
		Spent:         spent,
		UsagePercent:  core.Percent(spent, limit),
		TransactionID: txID,
	}
}

func taskName(tx core.Transaction) string {
	if tx.Description != "" {
		return tx.Description
	}
	return tx.Category
}

func lowerDirection(d core.Direction) string {
	if d == core.Income {
		return "income"
	}
	return "expense"
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
