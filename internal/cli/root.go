package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"fintrack/internal/core"
)

const dateLayout = "2006-01-02"

// session is the state shared by every subcommand of one invocation.
type session struct {
	app   *App
	actor core.Actor
	out   io.Writer
}

func (s *session) close() {
	if s.app != nil {
		s.app.Close()
	}
}

// print writes v as indented JSON.
func (s *session) print(v any) error {
	enc := json.NewEncoder(s.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Execute runs the fintrack command tree with args, writing results to out.
func Execute(ctx context.Context, args []string, out io.Writer) error {
	s := &session{out: out}
	defer s.close()

	root := newRootCommand(s)
	root.SetArgs(args)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}

func newRootCommand(s *session) *cobra.Command {
	var user, role string

	root := &cobra.Command{
		Use:   "fintrack",
		Short: "Personal budgets, ledger and savings goals",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadAndValidateConfig()
			if err != nil {
				return err
			}
			app, err := Bootstrap(cmd.Context(), cfg, SetupLogger(cfg.LogLevel))
			if err != nil {
				return err
			}
			s.app = app
			s.actor = core.Actor{UserID: strings.TrimSpace(user), Role: core.Role(role)}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&user, "user", os.Getenv("FINTRACK_USER"), "acting user id (env FINTRACK_USER)")
	root.PersistentFlags().StringVar(&role, "role", envOr("FINTRACK_ROLE", string(core.RoleUser)), "acting role: user or admin (env FINTRACK_ROLE)")

	root.AddCommand(
		newPlanCommand(s),
		newTransactionCommand(s),
		newGoalCommand(s),
		newNotificationsCommand(s),
		newReportCommand(s),
		newSettingsCommand(s),
		newSweepCommand(s),
		newWorkerCommand(s),
	)
	traceCommands(s, root)
	return root
}

// traceCommands runs every leaf command under the app tracer.
func traceCommands(s *session, cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		traceCommands(s, sub)
	}
	if cmd.RunE == nil {
		return
	}
	run := cmd.RunE
	cmd.RunE = func(c *cobra.Command, args []string) error {
		return s.app.Tracer.Run(c.Context(), c.CommandPath(), func(ctx context.Context) error {
			c.SetContext(ctx)
			return run(c, args)
		})
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, core.Validationf("invalid %s %q", field, s)
	}
	return d, nil
}

// parseDate returns nil for an empty value.
func parseDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil, core.Validationf("invalid %s %q: use YYYY-MM-DD", field, s)
	}
	return &t, nil
}

// parseCategory reads NAME:BUDGET[:EXPENSE_TYPE]. The type defaults to Essential.
func parseCategory(value string) (core.ExpenseCategory, error) {
	parts := strings.Split(value, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return core.ExpenseCategory{}, core.Validationf("invalid category %q: use NAME:BUDGET[:TYPE]", value)
	}
	amount, err := parseAmount("category budget", parts[1])
	if err != nil {
		return core.ExpenseCategory{}, err
	}
	c := core.ExpenseCategory{
		Name:         strings.TrimSpace(parts[0]),
		ExpenseType:  core.Essential,
		BudgetAmount: amount,
	}
	if len(parts) == 3 {
		c.ExpenseType = core.ExpenseType(strings.TrimSpace(parts[2]))
	}
	return c, nil
}

func parseCategories(values []string) ([]core.ExpenseCategory, error) {
	out := make([]core.ExpenseCategory, 0, len(values))
	for _, value := range values {
		c, err := parseCategory(value)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func printCount(s *session, what string, n int) error {
	_, err := fmt.Fprintf(s.out, "%s: %d\n", what, n)
	return err
}
