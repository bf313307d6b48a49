package cli

import (
	"github.com/spf13/cobra"

	"fintrack/internal/budget"
	"fintrack/internal/services"
)

func newPlanCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage budget plans",
	}

	var owner string
	cmd.PersistentFlags().StringVar(&owner, "owner", "", "plan owner; defaults to the acting user")

	var (
		income     string
		categories []string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a budget plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("income", income)
			if err != nil {
				return err
			}
			cats, err := parseCategories(categories)
			if err != nil {
				return err
			}
			plan, err := s.app.Services.Budget.CreatePlan(cmd.Context(), s.actor, services.PlanInput{
				OwnerID:     owner,
				TotalIncome: amount,
				Categories:  cats,
			})
			if err != nil {
				return err
			}
			return s.print(plan)
		},
	}
	create.Flags().StringVar(&income, "income", "0", "total income")
	create.Flags().StringArrayVar(&categories, "category", nil, "category budget as NAME:BUDGET[:TYPE] (repeatable)")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show a budget plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := s.app.Services.Budget.GetPlan(cmd.Context(), s.actor, owner)
			if err != nil {
				return err
			}
			return s.print(plan)
		},
	}

	var category string
	expense := &cobra.Command{
		Use:   "expense AMOUNT",
		Short: "Record spending against a plan category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[0])
			if err != nil {
				return err
			}
			plan, err := s.app.Services.Budget.AddExpense(cmd.Context(), s.actor, owner, category, amount)
			if err != nil {
				return err
			}
			return s.print(plan)
		},
	}
	expense.Flags().StringVar(&category, "category", "", "plan category")
	_ = expense.MarkFlagRequired("category")

	incomeCmd := &cobra.Command{
		Use:   "income AMOUNT",
		Short: "Add income to a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := parseAmount("amount", args[0])
			if err != nil {
				return err
			}
			plan, err := s.app.Services.Budget.AddIncome(cmd.Context(), s.actor, owner, amount)
			if err != nil {
				return err
			}
			return s.print(plan)
		},
	}

	var (
		newIncome     string
		newCategories []string
	)
	configure := &cobra.Command{
		Use:   "configure",
		Short: "Set income and category budgets, creating the plan if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			var ch budget.Changes
			if cmd.Flags().Changed("income") {
				amount, err := parseAmount("income", newIncome)
				if err != nil {
					return err
				}
				ch.TotalIncome = &amount
			}
			cats, err := parseCategories(newCategories)
			if err != nil {
				return err
			}
			ch.Categories = cats
			plan, err := s.app.Services.Budget.ConfigurePlan(cmd.Context(), s.actor, owner, ch)
			if err != nil {
				return err
			}
			return s.print(plan)
		},
	}
	configure.Flags().StringVar(&newIncome, "income", "", "total income")
	configure.Flags().StringArrayVar(&newCategories, "category", nil, "category budget as NAME:BUDGET[:TYPE] (repeatable)")

	cmd.AddCommand(create, show, expense, incomeCmd, configure)
	return cmd
}
