package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/budget"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// PlanInput is the payload of CreatePlan. OwnerID defaults to the actor.
type PlanInput struct {
	OwnerID     string
	TotalIncome decimal.Decimal
	Categories  []core.ExpenseCategory
}

// BudgetService handles direct budget writes: plan creation, configuration
// and expense/income entries that bypass the ledger.
type BudgetService struct {
	store      storage.PlanStore
	dispatcher Dispatcher
	policy     budget.Policy
	now        func() time.Time
	logger     *log.Logger
}

func NewBudgetService(store storage.PlanStore, dispatcher Dispatcher, policy budget.Policy, now func() time.Time, logger *log.Logger) *BudgetService {
	return &BudgetService{
		store:      store,
		dispatcher: dispatcher,
		policy:     policy,
		now:        now,
		logger:     logger.WithComponent(log.ComponentBudget),
	}
}

func (s *BudgetService) CreatePlan(ctx context.Context, actor core.Actor, in PlanInput) (core.BudgetPlan, error) {
	owner, err := resolveOwner(actor, in.OwnerID)
	if err != nil {
		return core.BudgetPlan{}, err
	}
	plan, err := budget.NewPlan(owner, in.TotalIncome, in.Categories, s.now())
	if err != nil {
		return core.BudgetPlan{}, err
	}

	saved, err := s.store.CreatePlan(ctx, plan)
	if err != nil {
		return core.BudgetPlan{}, storeErr("create plan", err)
	}
	s.logger.InfoContext(ctx, "Budget plan created",
		log.FieldOwnerID, owner,
		log.FieldCount, len(saved.Categories))
	return saved, nil
}

func (s *BudgetService) GetPlan(ctx context.Context, actor core.Actor, ownerID string) (core.BudgetPlan, error) {
	owner, err := resolveOwner(actor, ownerID)
	if err != nil {
		return core.BudgetPlan{}, err
	}
	plan, err := s.store.GetPlan(ctx, owner)
	if err != nil {
		return core.BudgetPlan{}, storeErr("get plan", err)
	}
	return plan, nil
}

// AddExpense records spending against an existing category and emits the
// threshold events of the direct path.
func (s *BudgetService) AddExpense(ctx context.Context, actor core.Actor, ownerID, category string, amount decimal.Decimal) (core.BudgetPlan, error) {
	plan, err := s.GetPlan(ctx, actor, ownerID)
	if err != nil {
		return core.BudgetPlan{}, err
	}

	next, events, err := budget.RecordExpense(plan, category, amount, s.policy)
	if err != nil {
		return core.BudgetPlan{}, err
	}
	now := s.now()
	next.UpdatedAt = now
	saved, err := s.store.SavePlan(ctx, next)
	if err != nil {
		return core.BudgetPlan{}, storeErr("save plan", err)
	}

	s.logger.InfoContext(ctx, "Expense recorded",
		log.FieldOwnerID, saved.OwnerID,
		log.FieldCategory, category,
		log.FieldAmount, amount.String())
	dispatch(ctx, s.dispatcher, s.logger, stamp(events, now))
	return saved, nil
}

func (s *BudgetService) AddIncome(ctx context.Context, actor core.Actor, ownerID string, amount decimal.Decimal) (core.BudgetPlan, error) {
	plan, err := s.GetPlan(ctx, actor, ownerID)
	if err != nil {
		return core.BudgetPlan{}, err
	}
	next, err := budget.RecordIncome(plan, amount)
	if err != nil {
		return core.BudgetPlan{}, err
	}
	next.UpdatedAt = s.now()
	saved, err := s.store.SavePlan(ctx, next)
	if err != nil {
		return core.BudgetPlan{}, storeErr("save plan", err)
	}
	s.logger.InfoContext(ctx, "Income recorded", log.FieldOwnerID, saved.OwnerID, log.FieldAmount, amount.String())
	return saved, nil
}

// ConfigurePlan updates income and category budgets, creating the plan when
// the owner has none yet.
func (s *BudgetService) ConfigurePlan(ctx context.Context, actor core.Actor, ownerID string, ch budget.Changes) (core.BudgetPlan, error) {
	owner, err := resolveOwner(actor, ownerID)
	if err != nil {
		return core.BudgetPlan{}, err
	}

	plan, err := s.store.GetPlan(ctx, owner)
	if errors.Is(err, core.ErrPlanNotFound) {
		income := decimal.Zero
		if ch.TotalIncome != nil {
			income = *ch.TotalIncome
		}
		fresh, err := budget.NewPlan(owner, income, ch.Categories, s.now())
		if err != nil {
			return core.BudgetPlan{}, err
		}
		saved, err := s.store.CreatePlan(ctx, fresh)
		if err != nil {
			return core.BudgetPlan{}, storeErr("create plan", err)
		}
		s.logger.InfoContext(ctx, "Budget plan created from configuration", log.FieldOwnerID, owner)
		return saved, nil
	}
	if err != nil {
		return core.BudgetPlan{}, storeErr("get plan", err)
	}

	next, err := budget.Configure(plan, ch)
	if err != nil {
		return core.BudgetPlan{}, err
	}
	next.UpdatedAt = s.now()
	saved, err := s.store.SavePlan(ctx, next)
	if err != nil {
		return core.BudgetPlan{}, storeErr("save plan", err)
	}
	s.logger.InfoContext(ctx, "Budget plan configured", log.FieldOwnerID, owner)
	return saved, nil
}

// resolveOwner defaults ownerID to the actor and enforces access.
func resolveOwner(actor core.Actor, ownerID string) (string, error) {
	if err := actor.RequireUser(); err != nil {
		return "", err
	}
	if ownerID == "" {
		return actor.UserID, nil
	}
	if !actor.CanAccess(ownerID) {
		return "", core.ErrForbidden
	}
	return ownerID, nil
}

func stamp(events []core.Event, at time.Time) []core.Event {
	for i := range events {
		if events[i].OccurredAt.IsZero() {
			events[i].OccurredAt = at
		}
	}
	return events
}
