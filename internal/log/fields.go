package log

import (
	"time"

	"fintrack/internal/core"
)

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOwnerID       = "owner_id"
	FieldActorID       = "actor_id"
	FieldTransactionID = "transaction_id"
	FieldGoalID        = "goal_id"
	FieldCategory      = "category"
	FieldDirection     = "direction"
	FieldAmount        = "amount"
	FieldEventKind     = "event_kind"
	FieldCount         = "count"
	FieldDuration      = "duration_ms"
	FieldDueDate       = "due_date"
	FieldOperationID   = "operation_id"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentBudget       = "budget"
	ComponentLedger       = "ledger"
	ComponentGoals        = "goals"
	ComponentNotification = "notification"
	ComponentSettings     = "settings"
	ComponentReport       = "report"
	ComponentEvents       = "events"
	ComponentStorage      = "storage"
	ComponentAMQP         = "amqp"
	ComponentWorker       = "worker"
	ComponentSheets       = "sheets"
	ComponentCurrency     = "currency"
	ComponentCLI          = "cli"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpExpand   = "expand"
	OpSweep    = "sweep"
	OpDispatch = "dispatch"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds the error text and its stable kind.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = string(core.KindOf(err))
	}
	return f
}

func (f LogFields) WithOwner(ownerID string) LogFields {
	f[FieldOwnerID] = ownerID
	return f
}

func (f LogFields) WithActor(a core.Actor) LogFields {
	f[FieldActorID] = a.UserID
	return f
}

// WithTransaction adds the identifying fields of a ledger entry.
func (f LogFields) WithTransaction(tx core.Transaction) LogFields {
	f[FieldTransactionID] = tx.ID
	f[FieldOwnerID] = tx.OwnerID
	f[FieldDirection] = string(tx.Direction)
	f[FieldCategory] = tx.Category
	f[FieldAmount] = tx.Amount.String()
	return f
}

func (f LogFields) WithEvent(ev core.Event) LogFields {
	f[FieldEventKind] = string(ev.Kind)
	f[FieldOwnerID] = ev.OwnerID
	if ev.Category != "" {
		f[FieldCategory] = ev.Category
	}
	if ev.TransactionID != "" {
		f[FieldTransactionID] = ev.TransactionID
	}
	return f
}

func (f LogFields) WithDuration(d time.Duration) LogFields {
	f[FieldDuration] = d.Milliseconds()
	return f
}

// ToSlice converts LogFields to slog key/value pairs.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
