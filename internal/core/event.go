package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventKind string

const (
	EventBudgetWarning        EventKind = "budget.warning"
	EventBudgetExceeded       EventKind = "budget.exceeded"
	EventMonthlyLimitExceeded EventKind = "budget.monthly_limit_exceeded"
	EventRecurrenceScheduled  EventKind = "ledger.recurrence_scheduled"
	EventTransactionRecorded  EventKind = "ledger.transaction_recorded"
)

// Event is the output of a pure state transition. Events are dispatched only
// after the state change that produced them has been persisted.
type Event struct {
	Kind    EventKind `json:"kind"`
	OwnerID string    `json:"owner_id"`

	Category     string          `json:"category,omitempty"`
	Threshold    decimal.Decimal `json:"threshold"`
	UsagePercent decimal.Decimal `json:"usage_percent"`
	Limit        decimal.Decimal `json:"limit"`
	Spent        decimal.Decimal `json:"spent"`

	TransactionID string     `json:"transaction_id,omitempty"`
	DueDate       *time.Time `json:"due_date,omitempty"`

	OccurredAt time.Time `json:"occurred_at"`
}
