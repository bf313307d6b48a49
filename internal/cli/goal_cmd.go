package cli

import (
	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/services"
)

func newGoalCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Manage savings goals",
	}

	var name, target, current, deadline string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a savings goal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseAmount("target", target)
			if err != nil {
				return err
			}
			c, err := parseAmount("current", current)
			if err != nil {
				return err
			}
			d, err := parseDate("deadline", deadline)
			if err != nil {
				return err
			}
			in := core.Goal{Name: name, TargetAmount: t, CurrentAmount: c}
			if d != nil {
				in.Deadline = *d
			}
			g, err := s.app.Services.Goals.CreateGoal(cmd.Context(), s.actor, in)
			if err != nil {
				return err
			}
			return s.print(g)
		},
	}
	create.Flags().StringVar(&name, "name", "", "goal name")
	create.Flags().StringVar(&target, "target", "", "target amount")
	create.Flags().StringVar(&current, "current", "0", "amount saved so far")
	create.Flags().StringVar(&deadline, "deadline", "", "deadline as YYYY-MM-DD")
	_ = create.MarkFlagRequired("name")
	_ = create.MarkFlagRequired("target")
	_ = create.MarkFlagRequired("deadline")

	list := &cobra.Command{
		Use:   "list",
		Short: "List your goals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			goals, err := s.app.Services.Goals.ListGoals(cmd.Context(), s.actor)
			if err != nil {
				return err
			}
			return s.print(goals)
		},
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show a goal with its progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := s.app.Services.Goals.GetGoal(cmd.Context(), s.actor, args[0])
			if err != nil {
				return err
			}
			return s.print(g)
		},
	}

	var upName, upTarget, upCurrent, upDeadline string
	update := &cobra.Command{
		Use:   "update ID",
		Short: "Change a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var up services.GoalUpdate
			fl := cmd.Flags()
			if fl.Changed("name") {
				up.Name = &upName
			}
			if fl.Changed("target") {
				t, err := parseAmount("target", upTarget)
				if err != nil {
					return err
				}
				up.TargetAmount = &t
			}
			if fl.Changed("current") {
				c, err := parseAmount("current", upCurrent)
				if err != nil {
					return err
				}
				up.CurrentAmount = &c
			}
			if fl.Changed("deadline") {
				d, err := parseDate("deadline", upDeadline)
				if err != nil {
					return err
				}
				up.Deadline = d
			}
			g, err := s.app.Services.Goals.UpdateGoal(cmd.Context(), s.actor, args[0], up)
			if err != nil {
				return err
			}
			return s.print(g)
		},
	}
	update.Flags().StringVar(&upName, "name", "", "new name")
	update.Flags().StringVar(&upTarget, "target", "", "new target amount")
	update.Flags().StringVar(&upCurrent, "current", "", "new saved amount")
	update.Flags().StringVar(&upDeadline, "deadline", "", "new deadline as YYYY-MM-DD")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.Services.Goals.DeleteGoal(cmd.Context(), s.actor, args[0]); err != nil {
				return err
			}
			return printCount(s, "deleted", 1)
		},
	}

	cmd.AddCommand(create, list, get, update, del)
	return cmd
}
