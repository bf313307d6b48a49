package cli

import (
	"github.com/spf13/cobra"
)

func newNotificationsCommand(s *session) *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := s.app.Services.Notifications.List(cmd.Context(), s.actor, owner)
			if err != nil {
				return err
			}
			return s.print(ns)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "notification owner; defaults to the acting user")
	return cmd
}

func newSweepCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Settle due recurring entries and derive reminders once (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.actor.RequireAdmin(); err != nil {
				return err
			}
			return s.app.Worker().RunOnce(cmd.Context())
		},
	}
}

func newWorkerCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run scheduled sweeps and consume queued events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return s.app.Worker().Run(cmd.Context())
		},
	}
}
