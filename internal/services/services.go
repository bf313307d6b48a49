package services

import (
	"context"
	"time"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

const defaultSweepConcurrency = 4

// Dispatcher delivers events produced by a persisted state change.
type Dispatcher interface {
	Dispatch(ctx context.Context, events []core.Event) error
}

// InlineDispatcher handles events synchronously in the calling goroutine.
type InlineDispatcher struct {
	handler *EventHandler
}

func NewInlineDispatcher(h *EventHandler) *InlineDispatcher {
	return &InlineDispatcher{handler: h}
}

// Dispatch handles every event and returns the first failure after trying all.
func (d *InlineDispatcher) Dispatch(ctx context.Context, events []core.Event) error {
	var first error
	for _, ev := range events {
		if err := d.handler.Handle(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Deps are the collaborators shared by every service.
type Deps struct {
	Store storage.Store
	Rates currency.Converter
	// Dispatcher publishes events; nil means inline handling.
	Dispatcher Dispatcher
	// Exporter mirrors recorded entries; nil disables the mirror.
	Exporter sheets.LedgerExporter
	Policy   budget.Policy
	// ReminderWindow is the sweep horizon in days.
	ReminderWindow   int
	SweepConcurrency int
	// SettingsSeed replaces the built-in defaults when settings are absent.
	SettingsSeed *core.Settings
	Now          func() time.Time
	Logger       *log.Logger
}

func (d *Deps) defaults() {
	if d.Rates == nil {
		d.Rates = currency.Static{}
	}
	if d.Policy.DirectWarnPercent.IsZero() && d.Policy.LedgerWarnPercent.IsZero() {
		d.Policy = budget.DefaultPolicy()
	}
	if d.ReminderWindow <= 0 {
		d.ReminderWindow = notify.DefaultWindowDays
	}
	if d.SweepConcurrency <= 0 {
		d.SweepConcurrency = defaultSweepConcurrency
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = log.Default()
	}
}

// Services is the assembled application layer.
type Services struct {
	Budget        *BudgetService
	Ledger        *LedgerService
	Goals         *GoalService
	Notifications *NotificationService
	Settings      *SettingsService
	Reports       *ReportService
	Events        *EventHandler
	Dispatcher    Dispatcher
}

// New wires the services over deps.
func New(deps Deps) *Services {
	deps.defaults()

	settings := NewSettingsService(deps.Store, deps.SettingsSeed, deps.Now, deps.Logger)
	ledger := &LedgerService{
		store:    deps.Store,
		rates:    deps.Rates,
		settings: settings,
		policy:   deps.Policy,
		now:      deps.Now,
		logger:   deps.Logger.WithComponent(log.ComponentLedger),
	}
	events := NewEventHandler(deps.Store, ledger, deps.Exporter, deps.Now, deps.Logger)

	dispatcher := deps.Dispatcher
	if dispatcher == nil {
		dispatcher = NewInlineDispatcher(events)
	}
	ledger.dispatcher = dispatcher

	return &Services{
		Budget:        NewBudgetService(deps.Store, dispatcher, deps.Policy, deps.Now, deps.Logger),
		Ledger:        ledger,
		Goals:         NewGoalService(deps.Store, deps.Now, deps.Logger),
		Notifications: NewNotificationService(deps.Store, deps.ReminderWindow, deps.SweepConcurrency, deps.Now, deps.Logger),
		Settings:      settings,
		Reports:       NewReportService(deps.Store, deps.Logger),
		Events:        events,
		Dispatcher:    dispatcher,
	}
}

// dispatch delivers events after a successful write. Failures are logged and
// never fail the write that produced the events.
func dispatch(ctx context.Context, d Dispatcher, logger *log.Logger, events []core.Event) {
	if len(events) == 0 {
		return
	}
	if d == nil {
		logger.WarnContext(ctx, "Dispatcher not available, dropping events", log.FieldCount, len(events))
		return
	}
	if err := d.Dispatch(ctx, events); err != nil {
		logger.With(log.NewFields().WithOperation(log.OpDispatch).WithError(err).ToSlice()...).
			ErrorContext(ctx, "Failed to dispatch events", log.FieldCount, len(events))
	}
}

// storeErr passes domain errors through and classifies the rest as internal.
func storeErr(op string, err error) error {
	if core.KindOf(err) != core.KindInternal {
		return err
	}
	return core.Internal(op, err)
}
