package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// GoalView is a goal with its derived progress and status.
type GoalView struct {
	core.Goal
	Progress decimal.Decimal
	Status   core.GoalStatus
}

func newGoalView(g core.Goal) GoalView {
	return GoalView{Goal: g, Progress: g.Progress().Round(2), Status: g.Status()}
}

// GoalUpdate applies any subset of fields. Nil fields are left unchanged.
type GoalUpdate struct {
	Name          *string
	TargetAmount  *decimal.Decimal
	CurrentAmount *decimal.Decimal
	Deadline      *time.Time
}

type GoalService struct {
	store  storage.GoalStore
	now    func() time.Time
	logger *log.Logger
}

func NewGoalService(store storage.GoalStore, now func() time.Time, logger *log.Logger) *GoalService {
	return &GoalService{store: store, now: now, logger: logger.WithComponent(log.ComponentGoals)}
}

func (s *GoalService) CreateGoal(ctx context.Context, actor core.Actor, in core.Goal) (GoalView, error) {
	owner, err := resolveOwner(actor, in.OwnerID)
	if err != nil {
		return GoalView{}, err
	}
	now := s.now()
	g := in
	g.ID = uuid.NewString()
	g.OwnerID = owner
	g.Name = strings.TrimSpace(g.Name)
	g.CreatedAt = now
	g.UpdatedAt = now
	if err := g.Validate(); err != nil {
		return GoalView{}, err
	}
	if err := g.ValidateDeadline(now); err != nil {
		return GoalView{}, err
	}

	if err := s.store.CreateGoal(ctx, g); err != nil {
		return GoalView{}, storeErr("create goal", err)
	}
	s.logger.InfoContext(ctx, "Goal created", log.FieldGoalID, g.ID, log.FieldOwnerID, owner)
	return newGoalView(g), nil
}

func (s *GoalService) ListGoals(ctx context.Context, actor core.Actor) ([]GoalView, error) {
	if err := actor.RequireUser(); err != nil {
		return nil, err
	}
	goals, err := s.store.ListGoals(ctx, actor.UserID)
	if err != nil {
		return nil, storeErr("list goals", err)
	}
	out := make([]GoalView, 0, len(goals))
	for _, g := range goals {
		out = append(out, newGoalView(g))
	}
	return out, nil
}

func (s *GoalService) GetGoal(ctx context.Context, actor core.Actor, id string) (GoalView, error) {
	g, err := s.owned(ctx, actor, id)
	if err != nil {
		return GoalView{}, err
	}
	return newGoalView(g), nil
}

func (s *GoalService) UpdateGoal(ctx context.Context, actor core.Actor, id string, up GoalUpdate) (GoalView, error) {
	g, err := s.owned(ctx, actor, id)
	if err != nil {
		return GoalView{}, err
	}

	now := s.now()
	if up.Name != nil {
		g.Name = strings.TrimSpace(*up.Name)
	}
	if up.TargetAmount != nil {
		g.TargetAmount = *up.TargetAmount
	}
	if up.CurrentAmount != nil {
		g.CurrentAmount = *up.CurrentAmount
	}
	if up.Deadline != nil {
		g.Deadline = *up.Deadline
		if err := g.ValidateDeadline(now); err != nil {
			return GoalView{}, err
		}
	}
	if err := g.Validate(); err != nil {
		return GoalView{}, err
	}
	g.UpdatedAt = now

	if err := s.store.UpdateGoal(ctx, g); err != nil {
		return GoalView{}, storeErr("update goal", err)
	}
	s.logger.InfoContext(ctx, "Goal updated", log.FieldGoalID, g.ID, log.FieldOwnerID, g.OwnerID)
	return newGoalView(g), nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, actor core.Actor, id string) error {
	g, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteGoal(ctx, id); err != nil {
		return storeErr("delete goal", err)
	}
	s.logger.InfoContext(ctx, "Goal deleted", log.FieldGoalID, g.ID, log.FieldOwnerID, g.OwnerID)
	return nil
}

func (s *GoalService) owned(ctx context.Context, actor core.Actor, id string) (core.Goal, error) {
	if err := actor.RequireUser(); err != nil {
		return core.Goal{}, err
	}
	g, err := s.store.GetGoal(ctx, id)
	if err != nil {
		return core.Goal{}, storeErr("get goal", err)
	}
	if !actor.CanAccess(g.OwnerID) {
		return core.Goal{}, core.ErrForbidden
	}
	return g, nil
}
