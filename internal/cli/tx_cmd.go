package cli

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/core"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

type txFlags struct {
	owner         string
	direction     string
	amount        string
	currency      string
	target        string
	category      string
	expenseType   string
	paymentMethod string
	description   string
	date          string
	tags          []string
	recurring     bool
	pattern       string
	end           string
}

func (f *txFlags) transaction() (core.Transaction, error) {
	amount, err := parseAmount("amount", f.amount)
	if err != nil {
		return core.Transaction{}, err
	}
	date := time.Now().UTC().Truncate(24 * time.Hour)
	if d, err := parseDate("date", f.date); err != nil {
		return core.Transaction{}, err
	} else if d != nil {
		date = *d
	}
	end, err := parseDate("end", f.end)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		OwnerID:        f.owner,
		Direction:      core.Direction(f.direction),
		Amount:         amount,
		BaseCurrency:   f.currency,
		TargetCurrency: f.target,
		Category:       f.category,
		ExpenseType:    core.ExpenseType(f.expenseType),
		PaymentMethod:  core.PaymentMethod(f.paymentMethod),
		Description:    f.description,
		Date:           date,
		Tags:           f.tags,
		Recurring:      f.recurring,
		Pattern:        core.RecurrencePattern(f.pattern),
		RecurrenceEnd:  end,
	}, nil
}

func newTransactionCommand(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transaction"},
		Short:   "Record and query ledger entries",
	}
	cmd.AddCommand(
		newTxAddCommand(s),
		newTxGetCommand(s),
		newTxListCommand(s),
		newTxUpdateCommand(s),
		newTxDeleteCommand(s),
	)
	return cmd
}

func newTxAddCommand(s *session) *cobra.Command {
	var f txFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.transaction()
			if err != nil {
				return err
			}
			tx, err := s.app.Services.Ledger.AddTransaction(cmd.Context(), s.actor, in)
			if err != nil {
				return err
			}
			return s.print(tx)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.owner, "owner", "", "entry owner; defaults to the acting user")
	fl.StringVar(&f.direction, "type", string(core.Expense), "Income or Expense")
	fl.StringVar(&f.amount, "amount", "", "amount in the base currency")
	fl.StringVar(&f.currency, "currency", "USD", "base currency")
	fl.StringVar(&f.target, "target", "", "target currency; defaults to the base currency")
	fl.StringVar(&f.category, "category", "", "category")
	fl.StringVar(&f.expenseType, "expense-type", "", "expense type, required for expenses")
	fl.StringVar(&f.paymentMethod, "method", string(core.Cash), "payment method")
	fl.StringVar(&f.description, "description", "", "free-form description")
	fl.StringVar(&f.date, "date", "", "entry date as YYYY-MM-DD; defaults to today")
	fl.StringSliceVar(&f.tags, "tag", nil, "tags (repeatable or comma separated)")
	fl.BoolVar(&f.recurring, "recurring", false, "repeat the entry")
	fl.StringVar(&f.pattern, "pattern", "", "Daily, Weekly or Monthly")
	fl.StringVar(&f.end, "end", "", "last date of the recurrence as YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newTxGetCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one ledger entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tx, err := s.app.Services.Ledger.GetTransaction(cmd.Context(), s.actor, args[0])
			if err != nil {
				return err
			}
			return s.print(tx)
		},
	}
}

func newTxListCommand(s *session) *cobra.Command {
	var (
		owner, direction, category, from, to string
		tags                                 []string
		all, ascending                       bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := storage.TransactionFilter{
				OwnerID:   owner,
				Direction: core.Direction(direction),
				Category:  category,
				Tags:      tags,
				Ascending: ascending,
			}
			var err error
			if f.From, err = parseDate("from", from); err != nil {
				return err
			}
			if f.To, err = parseDate("to", to); err != nil {
				return err
			}

			var txs []core.Transaction
			if all {
				txs, err = s.app.Services.Ledger.ListAllTransactions(cmd.Context(), s.actor, f)
			} else {
				txs, err = s.app.Services.Ledger.ListTransactions(cmd.Context(), s.actor, f)
			}
			if err != nil {
				return err
			}
			return s.print(txs)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&owner, "owner", "", "entry owner; defaults to the acting user")
	fl.StringVar(&direction, "type", "", "Income or Expense")
	fl.StringVar(&category, "category", "", "category")
	fl.StringSliceVar(&tags, "tag", nil, "match entries carrying any of these tags")
	fl.StringVar(&from, "from", "", "first date as YYYY-MM-DD")
	fl.StringVar(&to, "to", "", "last date as YYYY-MM-DD")
	fl.BoolVar(&all, "all", false, "list every user's entries (admin)")
	fl.BoolVar(&ascending, "asc", false, "oldest first")
	return cmd
}

func newTxUpdateCommand(s *session) *cobra.Command {
	var (
		amount, category, expenseType, method, description, date string
		tags                                                     []string
	)
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a ledger entry (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var up services.TransactionUpdate
			fl := cmd.Flags()
			if fl.Changed("amount") {
				a, err := parseAmount("amount", amount)
				if err != nil {
					return err
				}
				up.Amount = &a
			}
			if fl.Changed("category") {
				up.Category = &category
			}
			if fl.Changed("expense-type") {
				et := core.ExpenseType(expenseType)
				up.ExpenseType = &et
			}
			if fl.Changed("method") {
				pm := core.PaymentMethod(method)
				up.PaymentMethod = &pm
			}
			if fl.Changed("description") {
				up.Description = &description
			}
			if fl.Changed("date") {
				d, err := parseDate("date", date)
				if err != nil {
					return err
				}
				up.Date = d
			}
			if fl.Changed("tag") {
				cleaned := make([]string, 0, len(tags))
				for _, t := range tags {
					cleaned = append(cleaned, strings.TrimSpace(t))
				}
				up.Tags = &cleaned
			}

			tx, err := s.app.Services.Ledger.UpdateTransaction(cmd.Context(), s.actor, args[0], up)
			if err != nil {
				return err
			}
			return s.print(tx)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&amount, "amount", "", "new amount")
	fl.StringVar(&category, "category", "", "new category")
	fl.StringVar(&expenseType, "expense-type", "", "new expense type")
	fl.StringVar(&method, "method", "", "new payment method")
	fl.StringVar(&description, "description", "", "new description")
	fl.StringVar(&date, "date", "", "new date as YYYY-MM-DD")
	fl.StringSliceVar(&tags, "tag", nil, "replacement tags")
	return cmd
}

func newTxDeleteCommand(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a ledger entry (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.app.Services.Ledger.DeleteTransaction(cmd.Context(), s.actor, args[0]); err != nil {
				return err
			}
			return printCount(s, "deleted", 1)
		},
	}
}
