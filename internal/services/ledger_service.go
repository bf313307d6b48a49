package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/currency"
	"fintrack/internal/log"
	"fintrack/internal/notify"
	"fintrack/internal/storage"
)

var one = decimal.NewFromInt(1)

// LedgerService records income and expense entries and keeps the owner's
// budget plan, monthly cap and recurrence schedule in step with them.
type LedgerService struct {
	store      storage.Store
	rates      currency.Converter
	settings   *SettingsService
	dispatcher Dispatcher
	policy     budget.Policy
	now        func() time.Time
	logger     *log.Logger
}

// TransactionUpdate carries the fields an administrator may correct. Nil
// fields are left unchanged.
type TransactionUpdate struct {
	Amount        *decimal.Decimal
	Category      *string
	ExpenseType   *core.ExpenseType
	PaymentMethod *core.PaymentMethod
	Description   *string
	Date          *time.Time
	Tags          *[]string
}

// AddTransaction validates and records a ledger entry. The entry is applied
// to the owner's plan when one exists, and the resulting events are
// dispatched once everything is persisted.
func (s *LedgerService) AddTransaction(ctx context.Context, actor core.Actor, in core.Transaction) (core.Transaction, error) {
	owner, err := resolveOwner(actor, in.OwnerID)
	if err != nil {
		return core.Transaction{}, err
	}

	tx := in
	tx.Normalize()
	tx.OwnerID = owner
	if tx.TargetCurrency == "" {
		tx.TargetCurrency = tx.BaseCurrency
	}
	tx.ID = uuid.NewString()
	tx.ExchangeRate = decimal.Zero
	tx.ParentID = ""
	tx.NextDueDate = nil
	tx.Expanded = false
	tx.CreatedAt = s.now()
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	settings, err := s.settings.current(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := checkTransactionLimit(tx, settings.Limits); err != nil {
		return core.Transaction{}, err
	}

	tx.ExchangeRate = s.rate(ctx, tx)

	events, err := s.schedule(&tx)
	if err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, storeErr("create transaction", err)
	}

	planEvents, err := s.applyToPlan(ctx, tx)
	if err != nil {
		// Keep ledger and plan consistent: the entry never counted.
		if delErr := s.store.DeleteTransaction(ctx, tx.ID); delErr != nil {
			s.logger.With(log.NewFields().WithTransaction(tx).WithError(delErr).ToSlice()...).
				ErrorContext(ctx, "Failed to roll back transaction after plan update failure")
		}
		return core.Transaction{}, err
	}
	events = append(planEvents, events...)

	if ev, ok := s.monthlyLimit(ctx, tx, settings.Limits.MonthlyLimit); ok {
		events = append(events, ev)
	}
	events = append(events, recordedEvent(tx))

	s.logger.InfoContext(ctx, "Transaction recorded",
		log.FieldTransactionID, tx.ID,
		log.FieldOwnerID, tx.OwnerID,
		log.FieldDirection, string(tx.Direction),
		log.FieldCategory, tx.Category,
		log.FieldAmount, tx.Amount.String())

	dispatch(ctx, s.dispatcher, s.logger, stamp(events, s.now()))
	return tx, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, actor core.Actor, id string) (core.Transaction, error) {
	if err := actor.RequireUser(); err != nil {
		return core.Transaction{}, err
	}
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, storeErr("get transaction", err)
	}
	if !actor.CanAccess(tx.OwnerID) {
		return core.Transaction{}, core.ErrForbidden
	}
	return tx, nil
}

// ListTransactions returns the actor's own entries matching f. Administrators
// may name another owner in f.OwnerID.
func (s *LedgerService) ListTransactions(ctx context.Context, actor core.Actor, f storage.TransactionFilter) ([]core.Transaction, error) {
	owner, err := resolveOwner(actor, f.OwnerID)
	if err != nil {
		return nil, err
	}
	f.OwnerID = owner
	f.Tags = core.NormalizeTags(f.Tags)
	txs, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	return txs, nil
}

func (s *LedgerService) ListAllTransactions(ctx context.Context, actor core.Actor, f storage.TransactionFilter) ([]core.Transaction, error) {
	if err := actor.RequireAdmin(); err != nil {
		return nil, err
	}
	f.Tags = core.NormalizeTags(f.Tags)
	txs, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, storeErr("list transactions", err)
	}
	return txs, nil
}

// UpdateTransaction corrects an entry. The old values are reverted from the
// owner's plan and the new ones applied in the same save.
func (s *LedgerService) UpdateTransaction(ctx context.Context, actor core.Actor, id string, up TransactionUpdate) (core.Transaction, error) {
	if err := actor.RequireAdmin(); err != nil {
		return core.Transaction{}, err
	}
	old, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, storeErr("get transaction", err)
	}

	next := old
	next.Tags = slices.Clone(old.Tags)
	if up.Amount != nil {
		next.Amount = *up.Amount
	}
	if up.Category != nil {
		next.Category = *up.Category
	}
	if up.ExpenseType != nil {
		next.ExpenseType = *up.ExpenseType
	}
	if up.PaymentMethod != nil {
		next.PaymentMethod = *up.PaymentMethod
	}
	if up.Description != nil {
		next.Description = *up.Description
	}
	if up.Date != nil {
		next.Date = *up.Date
		if next.Expanded && !next.Date.Equal(old.Date) {
			due, ok, err := NextOccurrence(next)
			if err != nil {
				return core.Transaction{}, err
			}
			next.NextDueDate = nil
			if ok {
				next.NextDueDate = &due
			}
		}
	}
	if up.Tags != nil {
		next.Tags = *up.Tags
	}
	next.Normalize()
	if err := next.Validate(); err != nil {
		return core.Transaction{}, err
	}

	settings, err := s.settings.current(ctx)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := checkTransactionLimit(next, settings.Limits); err != nil {
		return core.Transaction{}, err
	}

	if err := s.store.UpdateTransaction(ctx, next); err != nil {
		return core.Transaction{}, storeErr("update transaction", err)
	}

	var events []core.Event
	if countsTowardPlan(old) {
		events, err = s.rebalance(ctx, old, &next)
		if err != nil {
			if rbErr := s.store.UpdateTransaction(ctx, old); rbErr != nil {
				s.logger.With(log.NewFields().WithTransaction(old).WithError(rbErr).ToSlice()...).
					ErrorContext(ctx, "Failed to restore transaction after plan update failure")
			}
			return core.Transaction{}, err
		}
	}
	events = append(events, recordedEvent(next))

	s.logger.InfoContext(ctx, "Transaction updated",
		log.FieldTransactionID, next.ID,
		log.FieldOwnerID, next.OwnerID,
		log.FieldActorID, actor.UserID)

	dispatch(ctx, s.dispatcher, s.logger, stamp(events, s.now()))
	return next, nil
}

// DeleteTransaction removes an entry and reverts it from the owner's plan.
func (s *LedgerService) DeleteTransaction(ctx context.Context, actor core.Actor, id string) error {
	if err := actor.RequireAdmin(); err != nil {
		return err
	}
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return storeErr("get transaction", err)
	}
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return storeErr("delete transaction", err)
	}

	if countsTowardPlan(tx) {
		if _, err := s.rebalance(ctx, tx, nil); err != nil {
			if rbErr := s.store.CreateTransaction(ctx, tx); rbErr != nil {
				s.logger.With(log.NewFields().WithTransaction(tx).WithError(rbErr).ToSlice()...).
					ErrorContext(ctx, "Failed to restore transaction after plan update failure")
			}
			return err
		}
	}

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldTransactionID, tx.ID,
		log.FieldOwnerID, tx.OwnerID,
		log.FieldActorID, actor.UserID)
	return nil
}

// ExpandRecurrence creates the single copy announced by a RecurrenceScheduled
// event. Redelivered events find the existing copy and do nothing.
func (s *LedgerService) ExpandRecurrence(ctx context.Context, ev core.Event) error {
	if ev.TransactionID == "" || ev.DueDate == nil {
		return core.Validationf("recurrence event requires a transaction id and a due date")
	}
	due := *ev.DueDate

	parent, err := s.store.GetTransaction(ctx, ev.TransactionID)
	if err != nil {
		return storeErr("get transaction", err)
	}

	siblings, err := s.store.ListTransactions(ctx, storage.TransactionFilter{
		OwnerID:  parent.OwnerID,
		ParentID: parent.ID,
	})
	if err != nil {
		return storeErr("list transactions", err)
	}
	for _, c := range siblings {
		if c.Date.Equal(due) {
			s.logger.DebugContext(ctx, "Recurrence already expanded",
				log.FieldTransactionID, parent.ID,
				log.FieldDueDate, due.Format(time.DateOnly))
			return nil
		}
	}

	now := s.now()
	next := parent
	next.ID = uuid.NewString()
	next.Date = due
	next.ParentID = parent.ID
	next.NextDueDate = nil
	next.Expanded = false
	next.Tags = slices.Clone(parent.Tags)
	next.CreatedAt = now
	if err := s.store.CreateTransaction(ctx, next); err != nil {
		return storeErr("create transaction", err)
	}

	n := notify.UpcomingRecurring(parent, due, now)
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return storeErr("create notification", err)
	}

	s.logger.With(log.NewFields().WithOperation(log.OpExpand).WithTransaction(next).ToSlice()...).
		InfoContext(ctx, "Recurring transaction scheduled",
			"parent_id", parent.ID,
			log.FieldDueDate, due.Format(time.DateOnly))
	return nil
}

// ExpandDueRecurrences settles every scheduled copy whose date has arrived:
// it is applied to the owner's plan, checked against the monthly cap and
// projects its own next occurrence. It returns the number settled.
func (s *LedgerService) ExpandDueRecurrences(ctx context.Context, now time.Time) (int, error) {
	pending, err := s.store.ListTransactions(ctx, storage.TransactionFilter{
		PendingExpansion: true,
		To:               &now,
		Ascending:        true,
	})
	if err != nil {
		return 0, storeErr("list pending transactions", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	settings, err := s.settings.current(ctx)
	if err != nil {
		return 0, err
	}

	var (
		settled int
		errs    []error
	)
	for _, tx := range pending {
		if err := ctx.Err(); err != nil {
			return settled, err
		}
		if err := s.settle(ctx, tx, settings.Limits); err != nil {
			s.logger.With(log.NewFields().WithOperation(log.OpExpand).WithTransaction(tx).WithError(err).ToSlice()...).
				ErrorContext(ctx, "Failed to settle recurring transaction")
			errs = append(errs, fmt.Errorf("settle %s: %w", tx.ID, err))
			continue
		}
		settled++
	}

	s.logger.InfoContext(ctx, "Due recurrences settled",
		log.FieldOperation, log.OpExpand,
		log.FieldCount, settled,
		"failed", len(errs))
	return settled, errors.Join(errs...)
}

func (s *LedgerService) settle(ctx context.Context, tx core.Transaction, limits core.Limits) error {
	pending := tx
	events, err := s.schedule(&tx)
	if err != nil {
		return err
	}
	// Mark the copy settled before it counts, so a failure leaves it pending
	// and uncounted for the next run.
	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return storeErr("update transaction", err)
	}
	planEvents, err := s.applyToPlan(ctx, tx)
	if err != nil {
		if rbErr := s.store.UpdateTransaction(ctx, pending); rbErr != nil {
			s.logger.With(log.NewFields().WithTransaction(pending).WithError(rbErr).ToSlice()...).
				ErrorContext(ctx, "Failed to restore pending transaction after plan update failure")
		}
		return err
	}

	events = append(planEvents, events...)
	if ev, ok := s.monthlyLimit(ctx, tx, limits.MonthlyLimit); ok {
		events = append(events, ev)
	}
	events = append(events, recordedEvent(tx))
	dispatch(ctx, s.dispatcher, s.logger, stamp(events, s.now()))
	return nil
}

// schedule projects one recurrence step onto tx. A recurring entry is always
// marked expanded; the event is emitted only while the series has not ended.
func (s *LedgerService) schedule(tx *core.Transaction) ([]core.Event, error) {
	if !tx.Recurring {
		return nil, nil
	}
	tx.Expanded = true
	next, ok, err := NextOccurrence(*tx)
	if err != nil {
		return nil, err
	}
	if !ok {
		tx.NextDueDate = nil
		return nil, nil
	}
	tx.NextDueDate = &next
	return []core.Event{{
		Kind:          core.EventRecurrenceScheduled,
		OwnerID:       tx.OwnerID,
		Category:      tx.Category,
		TransactionID: tx.ID,
		DueDate:       &next,
	}}, nil
}

// applyToPlan folds tx into its owner's plan. Owners without a plan are
// skipped.
func (s *LedgerService) applyToPlan(ctx context.Context, tx core.Transaction) ([]core.Event, error) {
	plan, err := s.store.GetPlan(ctx, tx.OwnerID)
	if errors.Is(err, core.ErrPlanNotFound) {
		s.logger.DebugContext(ctx, "No budget plan, skipping budget update", log.FieldOwnerID, tx.OwnerID)
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get plan", err)
	}

	next, events := budget.ApplyTransaction(plan, tx, s.policy)
	next.UpdatedAt = s.now()
	if _, err := s.store.SavePlan(ctx, next); err != nil {
		return nil, storeErr("save plan", err)
	}
	return events, nil
}

// rebalance reverts old from the owner's plan and applies next when set.
func (s *LedgerService) rebalance(ctx context.Context, old core.Transaction, next *core.Transaction) ([]core.Event, error) {
	plan, err := s.store.GetPlan(ctx, old.OwnerID)
	if errors.Is(err, core.ErrPlanNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("get plan", err)
	}

	updated := budget.RevertTransaction(plan, old)
	var events []core.Event
	if next != nil {
		updated, events = budget.ApplyTransaction(updated, *next, s.policy)
	}
	updated.UpdatedAt = s.now()
	if _, err := s.store.SavePlan(ctx, updated); err != nil {
		return nil, storeErr("save plan", err)
	}
	return events, nil
}

// monthlyLimit reports the event for tx pushing its owner's expenses in
// tx's calendar month past limit. Lookup failures are logged and ignored.
func (s *LedgerService) monthlyLimit(ctx context.Context, tx core.Transaction, limit decimal.Decimal) (core.Event, bool) {
	if tx.Direction != core.Expense || !limit.IsPositive() {
		return core.Event{}, false
	}
	from := time.Date(tx.Date.Year(), tx.Date.Month(), 1, 0, 0, 0, 0, tx.Date.Location())
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)

	month, err := s.store.ListTransactions(ctx, storage.TransactionFilter{
		OwnerID:   tx.OwnerID,
		Direction: core.Expense,
		From:      &from,
		To:        &to,
		Settled:   true,
	})
	if err != nil {
		s.logger.With(log.NewFields().WithTransaction(tx).WithError(err).ToSlice()...).
			WarnContext(ctx, "Monthly limit check skipped")
		return core.Event{}, false
	}

	spent := decimal.Zero
	for _, m := range month {
		spent = spent.Add(m.ConvertedAmount())
	}
	amount := tx.ConvertedAmount()
	if !budget.MonthlyLimitCrossed(spent.Sub(amount), amount, limit) {
		return core.Event{}, false
	}
	return notify.MonthlyLimitEvent(tx.OwnerID, tx.ID, spent, limit), true
}

// rate looks up the conversion rate. Any failure degrades to 1.
func (s *LedgerService) rate(ctx context.Context, tx core.Transaction) decimal.Decimal {
	r, err := s.rates.Rate(ctx, tx.BaseCurrency, tx.TargetCurrency)
	if err == nil && r.IsPositive() {
		return r
	}
	if err == nil {
		err = fmt.Errorf("non-positive rate %s", r)
	}
	fields := log.NewFields().WithError(err)
	fields[log.FieldErrorType] = string(core.KindDegraded)
	s.logger.WithFields(fields).WarnContext(ctx, "Exchange rate unavailable, using 1",
		"base", tx.BaseCurrency,
		"target", tx.TargetCurrency)
	return one
}

func checkTransactionLimit(tx core.Transaction, limits core.Limits) error {
	if tx.Direction != core.Expense || !limits.TransactionLimit.IsPositive() {
		return nil
	}
	if tx.Amount.GreaterThan(limits.TransactionLimit) {
		return core.Validationf("amount %s exceeds the per-transaction limit of %s",
			tx.Amount.String(), limits.TransactionLimit.String())
	}
	return nil
}

// countsTowardPlan is false for scheduled copies whose date has not been
// settled yet.
func countsTowardPlan(tx core.Transaction) bool {
	return !(tx.Recurring && !tx.Expanded)
}

func recordedEvent(tx core.Transaction) core.Event {
	return core.Event{
		Kind:          core.EventTransactionRecorded,
		OwnerID:       tx.OwnerID,
		Category:      tx.Category,
		TransactionID: tx.ID,
	}
}
