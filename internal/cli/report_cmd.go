package cli

import (
	"github.com/spf13/cobra"

	"fintrack/internal/services"
)

func newReportCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summaries and filtered views of the ledger",
	}

	var owner string
	cmd.PersistentFlags().StringVar(&owner, "owner", "", "report owner; defaults to the acting user")

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Totals, count, average and highest spending category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := s.app.Services.Reports.UserSummary(cmd.Context(), s.actor, owner)
			if err != nil {
				return err
			}
			return s.print(sum)
		},
	}

	trends := &cobra.Command{
		Use:   "trends",
		Short: "Daily income and expense totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := s.app.Services.Reports.Trends(cmd.Context(), s.actor, owner)
			if err != nil {
				return err
			}
			return s.print(days)
		},
	}

	var from, to string
	incomeExpense := &cobra.Command{
		Use:   "income-expense",
		Short: "Compare income and expenses over a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseDate("from", from)
			if err != nil {
				return err
			}
			t, err := parseDate("to", to)
			if err != nil {
				return err
			}
			ie, err := s.app.Services.Reports.IncomeVsExpense(cmd.Context(), s.actor, owner, f, t)
			if err != nil {
				return err
			}
			return s.print(ie)
		},
	}
	incomeExpense.Flags().StringVar(&from, "from", "", "first date as YYYY-MM-DD")
	incomeExpense.Flags().StringVar(&to, "to", "", "last date as YYYY-MM-DD")

	var (
		qFrom, qTo, qCategory string
		qTags                 []string
	)
	filter := &cobra.Command{
		Use:   "filter",
		Short: "Entries matching every given criterion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := services.Query{OwnerID: owner, Category: qCategory, Tags: qTags}
			var err error
			if q.From, err = parseDate("from", qFrom); err != nil {
				return err
			}
			if q.To, err = parseDate("to", qTo); err != nil {
				return err
			}
			txs, err := s.app.Services.Reports.Filter(cmd.Context(), s.actor, q)
			if err != nil {
				return err
			}
			return s.print(txs)
		},
	}
	filter.Flags().StringVar(&qFrom, "from", "", "first date as YYYY-MM-DD")
	filter.Flags().StringVar(&qTo, "to", "", "last date as YYYY-MM-DD")
	filter.Flags().StringVar(&qCategory, "category", "", "category")
	filter.Flags().StringSliceVar(&qTags, "tag", nil, "required tags")

	var anyOf bool
	tags := &cobra.Command{
		Use:   "tags TAG...",
		Short: "Entries carrying all (or any) of the tags",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txs, err := s.app.Services.Reports.ByTags(cmd.Context(), s.actor, owner, args, anyOf)
			if err != nil {
				return err
			}
			return s.print(txs)
		},
	}
	tags.Flags().BoolVar(&anyOf, "any", false, "match any tag instead of all")

	sortByTag := &cobra.Command{
		Use:   "sort-by-tag TAG",
		Short: "Entries carrying the tag, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txs, err := s.app.Services.Reports.SortedByTag(cmd.Context(), s.actor, owner, args[0])
			if err != nil {
				return err
			}
			return s.print(txs)
		},
	}

	system := &cobra.Command{
		Use:   "system",
		Short: "All-user income, expenses and top category (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := s.app.Services.Reports.SystemReport(cmd.Context(), s.actor)
			if err != nil {
				return err
			}
			return s.print(rep)
		},
	}

	cmd.AddCommand(summary, trends, incomeExpense, filter, tags, sortByTag, system)
	return cmd
}
