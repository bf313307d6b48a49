package storage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// TransactionFilter narrows a ledger query. Zero values do not filter.
type TransactionFilter struct {
	// OwnerID restricts results to one user; empty means every user.
	OwnerID   string
	Direction core.Direction
	Category  string
	// Tags matches entries carrying any of the listed tags.
	Tags []string
	// From and To bound Date inclusively.
	From *time.Time
	To   *time.Time
	// ParentID selects copies projected from one recurring entry.
	ParentID string
	// PendingExpansion selects recurring entries whose next step has not
	// been evaluated yet.
	PendingExpansion bool
	// Settled excludes scheduled copies that have not come due yet.
	Settled bool
	// RecurringOnly selects entries with the recurring flag.
	RecurringOnly bool
	// Ascending sorts by date oldest-first; the default is newest-first.
	Ascending bool
}

// Ports for persistence adapters.
type (
	PlanStore interface {
		GetPlan(ctx context.Context, ownerID string) (core.BudgetPlan, error)
		CreatePlan(ctx context.Context, plan core.BudgetPlan) (core.BudgetPlan, error)
		// SavePlan persists plan if its Version matches the stored one and
		// returns the plan with the incremented version.
		SavePlan(ctx context.Context, plan core.BudgetPlan) (core.BudgetPlan, error)
	}

	LedgerStore interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) error
		GetTransaction(ctx context.Context, id string) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, id string) error
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
		// SumByDirection groups converted amounts by direction.
		SumByDirection(ctx context.Context, f TransactionFilter) (map[core.Direction]decimal.Decimal, error)
		// SumByCategory groups converted amounts by category, largest first.
		SumByCategory(ctx context.Context, f TransactionFilter) ([]core.CategoryTotal, error)
	}

	NotificationStore interface {
		CreateNotification(ctx context.Context, n core.Notification) error
		// ListNotifications returns an owner's notifications newest-first.
		ListNotifications(ctx context.Context, ownerID string) ([]core.Notification, error)
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) error
		GetGoal(ctx context.Context, id string) (core.Goal, error)
		// ListGoals returns an owner's goals, or every goal when ownerID is empty.
		ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error)
		UpdateGoal(ctx context.Context, g core.Goal) error
		DeleteGoal(ctx context.Context, id string) error
	}

	SettingsStore interface {
		GetSettings(ctx context.Context) (core.Settings, error)
		// CreateSettings fails with core.ErrSettingsExist if settings exist.
		CreateSettings(ctx context.Context, s core.Settings) error
		SaveSettings(ctx context.Context, s core.Settings) error
	}
)

// Store bundles every port a backend provides.
type Store interface {
	PlanStore
	LedgerStore
	NotificationStore
	GoalStore
	SettingsStore
	Close() error
}
