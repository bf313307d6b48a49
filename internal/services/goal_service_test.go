package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func goal(name, target, current string, deadline time.Time) core.Goal {
	return core.Goal{
		Name:          name,
		TargetAmount:  dec(target),
		CurrentAmount: dec(current),
		Deadline:      deadline,
	}
}

func TestGoalService_CreateGoal(t *testing.T) {
	tests := []struct {
		name     string
		in       core.Goal
		wantKind core.Kind
	}{
		{name: "valid", in: goal("Vacation", "1000", "250", day0.AddDate(0, 2, 0))},
		{name: "past deadline", in: goal("Vacation", "1000", "0", day0.AddDate(0, 0, -1)), wantKind: core.KindValidation},
		{name: "deadline equal to now", in: goal("Vacation", "1000", "0", day0.Add(12*time.Hour)), wantKind: core.KindValidation},
		{name: "blank name", in: goal("  ", "1000", "0", day0.AddDate(0, 1, 0)), wantKind: core.KindValidation},
		{name: "zero target", in: goal("Car", "0", "0", day0.AddDate(0, 1, 0)), wantKind: core.KindValidation},
		{name: "negative current", in: goal("Car", "10", "-1", day0.AddDate(0, 1, 0)), wantKind: core.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			view, err := f.svc.Goals.CreateGoal(context.Background(), alice, tt.in)
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, core.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, view.ID)
			assert.Equal(t, "alice", view.OwnerID)
			assert.True(t, dec("25").Equal(view.Progress))
			assert.Equal(t, core.GoalActive, view.Status)
		})
	}
}

func TestGoalService_ProgressAndStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Goals.CreateGoal(ctx, alice, goal("Laptop", "3", "1", day0.AddDate(0, 1, 0)))
	require.NoError(t, err)
	_, err = f.svc.Goals.CreateGoal(ctx, alice, goal("Bike", "500", "750", day0.AddDate(0, 2, 0)))
	require.NoError(t, err)
	_, err = f.svc.Goals.CreateGoal(ctx, bob, goal("Other", "10", "1", day0.AddDate(0, 1, 0)))
	require.NoError(t, err)

	views, err := f.svc.Goals.ListGoals(ctx, alice)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "Laptop", views[0].Name)
	assert.Equal(t, "33.33", views[0].Progress.String())
	assert.Equal(t, core.GoalActive, views[0].Status)

	assert.Equal(t, "Bike", views[1].Name)
	assert.True(t, dec("100").Equal(views[1].Progress), "progress is clamped")
	assert.Equal(t, core.GoalAchieved, views[1].Status)
}

func TestGoalService_UpdateGoal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Goals.CreateGoal(ctx, alice, goal("Fund", "1000", "100", day0.AddDate(0, 1, 0)))
	require.NoError(t, err)

	current := dec("1000")
	name := " Emergency fund "
	updated, err := f.svc.Goals.UpdateGoal(ctx, alice, created.ID, GoalUpdate{Name: &name, CurrentAmount: &current})
	require.NoError(t, err)
	assert.Equal(t, "Emergency fund", updated.Name)
	assert.Equal(t, core.GoalAchieved, updated.Status)
	assert.Equal(t, created.Deadline, updated.Deadline)

	past := day0.AddDate(0, 0, -3)
	_, err = f.svc.Goals.UpdateGoal(ctx, alice, created.ID, GoalUpdate{Deadline: &past})
	assert.True(t, core.IsKind(err, core.KindValidation))

	zero := dec("0")
	_, err = f.svc.Goals.UpdateGoal(ctx, alice, created.ID, GoalUpdate{TargetAmount: &zero})
	assert.True(t, core.IsKind(err, core.KindValidation))

	stored, err := f.svc.Goals.GetGoal(ctx, alice, created.ID)
	require.NoError(t, err)
	assert.True(t, dec("1000").Equal(stored.TargetAmount), "rejected updates leave the goal untouched")
}

func TestGoalService_Access(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.svc.Goals.CreateGoal(ctx, alice, goal("Fund", "1000", "0", day0.AddDate(0, 1, 0)))
	require.NoError(t, err)

	_, err = f.svc.Goals.GetGoal(ctx, bob, created.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	name := "Mine now"
	_, err = f.svc.Goals.UpdateGoal(ctx, bob, created.ID, GoalUpdate{Name: &name})
	assert.ErrorIs(t, err, core.ErrForbidden)

	err = f.svc.Goals.DeleteGoal(ctx, bob, created.ID)
	assert.ErrorIs(t, err, core.ErrForbidden)

	_, err = f.svc.Goals.GetGoal(ctx, admin, created.ID)
	assert.NoError(t, err)

	require.NoError(t, f.svc.Goals.DeleteGoal(ctx, alice, created.ID))
	_, err = f.svc.Goals.GetGoal(ctx, alice, created.ID)
	assert.ErrorIs(t, err, core.ErrGoalNotFound)
}
