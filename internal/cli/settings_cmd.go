package cli

import (
	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

func newSettingsCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Deployment-wide categories and spending limits (admin)",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := s.app.Services.Settings.Get(cmd.Context(), s.actor)
			if err != nil {
				return err
			}
			return s.print(st)
		},
	}

	cmd.AddCommand(get,
		newSettingsWriteCommand(s, "create", "Create settings when none exist", func(cmd *cobra.Command, in core.Settings) (core.Settings, error) {
			return s.app.Services.Settings.Create(cmd.Context(), s.actor, in)
		}),
		newSettingsWriteCommand(s, "update", "Replace the settings", func(cmd *cobra.Command, in core.Settings) (core.Settings, error) {
			return s.app.Services.Settings.Update(cmd.Context(), s.actor, in)
		}),
	)
	return cmd
}

func newSettingsWriteCommand(s *session, use, short string, write func(*cobra.Command, core.Settings) (core.Settings, error)) *cobra.Command {
	var (
		categories            []string
		txLimit, monthlyLimit string
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tl, err := parseAmount("transaction limit", txLimit)
			if err != nil {
				return err
			}
			ml, err := parseAmount("monthly limit", monthlyLimit)
			if err != nil {
				return err
			}
			st, err := write(cmd, core.Settings{
				Categories: categories,
				Limits:     core.Limits{TransactionLimit: tl, MonthlyLimit: ml},
			})
			if err != nil {
				return err
			}
			return s.print(st)
		},
	}
	// Category labels contain commas, so each flag carries exactly one.
	cmd.Flags().StringArrayVar(&categories, "category", nil, "enabled category label (repeatable)")
	cmd.Flags().StringVar(&txLimit, "transaction-limit", "", "largest single expense")
	cmd.Flags().StringVar(&monthlyLimit, "monthly-limit", "", "monthly spending limit")
	_ = cmd.MarkFlagRequired("transaction-limit")
	_ = cmd.MarkFlagRequired("monthly-limit")
	return cmd
}
