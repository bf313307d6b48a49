// Package postgres implements the storage ports on PostgreSQL through pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const uniqueViolation = "23505"

type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Store = (*Store)(nil)

// Open connects to dsn, applies migrations and returns a ready store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

type dialect struct{}

func (dialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (dialect) TagsAny(ph []string) string {
	return "EXISTS (SELECT 1 FROM jsonb_array_elements_text(t.tags) je(tag) WHERE je.tag IN (" + strings.Join(ph, ", ") + "))"
}

func (dialect) Time(t time.Time) any { return t.UTC() }

// Budget plans

func (s *Store) GetPlan(ctx context.Context, ownerID string) (core.BudgetPlan, error) {
	var p core.BudgetPlan
	err := s.pool.QueryRow(ctx, `
		SELECT owner_id, total_income, total_spent, remaining_budget, version, created_at, updated_at
		FROM budget_plans WHERE owner_id = $1`, ownerID).
		Scan(&p.OwnerID, &p.TotalIncome, &p.TotalSpent, &p.RemainingBudget, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.BudgetPlan{}, core.ErrPlanNotFound
	}
	if err != nil {
		return core.BudgetPlan{}, fmt.Errorf("get plan: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT name, expense_type, budget_amount, spent_amount, remaining_amount
		FROM plan_categories WHERE owner_id = $1 ORDER BY position`, ownerID)
	if err != nil {
		return core.BudgetPlan{}, fmt.Errorf("get plan categories: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c core.ExpenseCategory
		if err := rows.Scan(&c.Name, &c.ExpenseType, &c.BudgetAmount, &c.SpentAmount, &c.RemainingAmount); err != nil {
			return core.BudgetPlan{}, fmt.Errorf("scan plan category: %w", err)
		}
		p.Categories = append(p.Categories, c)
	}
	if err := rows.Err(); err != nil {
		return core.BudgetPlan{}, fmt.Errorf("iterate plan categories: %w", err)
	}
	return p, nil
}

func (s *Store) CreatePlan(ctx context.Context, plan core.BudgetPlan) (core.BudgetPlan, error) {
	plan.Recompute()
	plan.Version = 1

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO budget_plans (owner_id, total_income, total_spent, remaining_budget, version, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			plan.OwnerID, plan.TotalIncome.String(), plan.TotalSpent.String(), plan.RemainingBudget.String(),
			plan.Version, plan.CreatedAt.UTC(), plan.UpdatedAt.UTC())
		if err != nil {
			if isUniqueViolation(err) {
				return core.ErrPlanExists
			}
			return fmt.Errorf("insert plan: %w", err)
		}
		return insertCategories(ctx, tx, plan)
	})
	if err != nil {
		return core.BudgetPlan{}, err
	}

	slog.InfoContext(ctx, "Budget plan saved to Postgres", "owner_id", plan.OwnerID, "categories", len(plan.Categories))
	return plan, nil
}

func (s *Store) SavePlan(ctx context.Context, plan core.BudgetPlan) (core.BudgetPlan, error) {
	plan.Recompute()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE budget_plans
			SET total_income = $1, total_spent = $2, remaining_budget = $3, version = version + 1, updated_at = $4
			WHERE owner_id = $5 AND version = $6`,
			plan.TotalIncome.String(), plan.TotalSpent.String(), plan.RemainingBudget.String(),
			plan.UpdatedAt.UTC(), plan.OwnerID, plan.Version)
		if err != nil {
			return fmt.Errorf("update plan: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists int
			err := tx.QueryRow(ctx, `SELECT 1 FROM budget_plans WHERE owner_id = $1`, plan.OwnerID).Scan(&exists)
			if errors.Is(err, pgx.ErrNoRows) {
				return core.ErrPlanNotFound
			}
			return fmt.Errorf("save plan %s at version %d: %w", plan.OwnerID, plan.Version, core.ErrStaleWrite)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM plan_categories WHERE owner_id = $1`, plan.OwnerID); err != nil {
			return fmt.Errorf("clear plan categories: %w", err)
		}
		return insertCategories(ctx, tx, plan)
	})
	if err != nil {
		return core.BudgetPlan{}, err
	}
	plan.Version++
	return plan, nil
}

func insertCategories(ctx context.Context, tx pgx.Tx, plan core.BudgetPlan) error {
	batch := &pgx.Batch{}
	for i, c := range plan.Categories {
		batch.Queue(`
			INSERT INTO plan_categories (owner_id, position, name, expense_type, budget_amount, spent_amount, remaining_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			plan.OwnerID, i, c.Name, string(c.ExpenseType),
			c.BudgetAmount.String(), c.SpentAmount.String(), c.RemainingAmount.String())
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert plan categories: %w", err)
	}
	return nil
}

// Transactions

const txColumns = `t.id, t.owner_id, t.direction, t.amount, t.base_currency, t.target_currency, t.exchange_rate,
	t.category, t.expense_type, t.payment_method, t.description, t.date, t.tags,
	t.recurring, t.pattern, t.recurrence_end, t.next_due_date, t.expanded, t.parent_id, t.created_at`

func (s *Store) CreateTransaction(ctx context.Context, t core.Transaction) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO transactions (id, owner_id, direction, amount, base_currency, target_currency, exchange_rate,
			category, expense_type, payment_method, description, date, tags,
			recurring, pattern, recurrence_end, next_due_date, expanded, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		t.ID, t.OwnerID, string(t.Direction), t.Amount.String(), t.BaseCurrency, t.TargetCurrency, t.ExchangeRate.String(),
		t.Category, string(t.ExpenseType), string(t.PaymentMethod), t.Description, t.Date.UTC(), tagsOrEmpty(t.Tags),
		t.Recurring, string(t.Pattern), utcPtr(t.RecurrenceEnd), utcPtr(t.NextDueDate), t.Expanded, t.ParentID,
		t.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to Postgres",
		"id", t.ID,
		"owner_id", t.OwnerID,
		"direction", t.Direction,
		"amount", t.Amount.String())
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	t, err := scanTransaction(s.pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions t WHERE t.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE transactions SET owner_id = $1, direction = $2, amount = $3, base_currency = $4, target_currency = $5,
			exchange_rate = $6, category = $7, expense_type = $8, payment_method = $9, description = $10, date = $11,
			tags = $12, recurring = $13, pattern = $14, recurrence_end = $15, next_due_date = $16, expanded = $17,
			parent_id = $18
		WHERE id = $19`,
		t.OwnerID, string(t.Direction), t.Amount.String(), t.BaseCurrency, t.TargetCurrency,
		t.ExchangeRate.String(), t.Category, string(t.ExpenseType), string(t.PaymentMethod), t.Description,
		t.Date.UTC(), tagsOrEmpty(t.Tags), t.Recurring, string(t.Pattern), utcPtr(t.RecurrenceEnd),
		utcPtr(t.NextDueDate), t.Expanded, t.ParentID, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrTransactionNotFound
	}
	return nil
}

func (s *Store) ListTransactions(ctx context.Context, f storage.TransactionFilter) ([]core.Transaction, error) {
	where, args := storage.TransactionWhere(dialect{}, f)
	rows, err := s.pool.Query(ctx,
		`SELECT `+txColumns+` FROM transactions t `+where+` `+storage.TransactionOrder(f.Ascending), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

const convertedSQL = `COALESCE(SUM(t.amount * t.exchange_rate), 0)`

func (s *Store) SumByDirection(ctx context.Context, f storage.TransactionFilter) (map[core.Direction]decimal.Decimal, error) {
	where, args := storage.TransactionWhere(dialect{}, f)
	rows, err := s.pool.Query(ctx,
		`SELECT t.direction, `+convertedSQL+` FROM transactions t `+where+` GROUP BY t.direction`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by direction: %w", err)
	}
	defer rows.Close()

	out := map[core.Direction]decimal.Decimal{}
	for rows.Next() {
		var (
			dir   string
			total decimal.Decimal
		)
		if err := rows.Scan(&dir, &total); err != nil {
			return nil, fmt.Errorf("scan direction total: %w", err)
		}
		out[core.Direction(dir)] = total
	}
	return out, rows.Err()
}

func (s *Store) SumByCategory(ctx context.Context, f storage.TransactionFilter) ([]core.CategoryTotal, error) {
	where, args := storage.TransactionWhere(dialect{}, f)
	rows, err := s.pool.Query(ctx,
		`SELECT t.category, `+convertedSQL+` AS total FROM transactions t `+where+
			` GROUP BY t.category ORDER BY total DESC, t.category ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// Notifications

func (s *Store) CreateNotification(ctx context.Context, n core.Notification) error {
	var (
		recTxID, recTask, recAmount *string
		recDue                      *time.Time
	)
	if r := n.Recurring; r != nil {
		amount := r.Amount.String()
		due := r.NextDueDate.UTC()
		recTxID, recTask, recAmount, recDue = &r.TransactionID, &r.TaskName, &amount, &due
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, owner_id, category, message, type, limit_amount, total_spent, balance_after,
			threshold, transaction_id, recurring_tx_id, recurring_task, recurring_amount, recurring_due, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		n.ID, n.OwnerID, n.Category, n.Message, string(n.Type), n.Limit.String(), n.TotalSpent.String(),
		n.BalanceAfterSpending.String(), n.Threshold.String(), n.TransactionID,
		recTxID, recTask, recAmount, recDue, n.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, ownerID string) ([]core.Notification, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner_id, category, message, type, limit_amount, total_spent, balance_after, threshold,
			transaction_id, recurring_tx_id, recurring_task, recurring_amount, recurring_due, created_at
		FROM notifications WHERE owner_id = $1
		ORDER BY created_at DESC, seq DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var (
			n                core.Notification
			recTxID, recTask *string
			recAmount        decimal.NullDecimal
			recDue           *time.Time
		)
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Category, &n.Message, &n.Type, &n.Limit, &n.TotalSpent,
			&n.BalanceAfterSpending, &n.Threshold, &n.TransactionID,
			&recTxID, &recTask, &recAmount, &recDue, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if recTxID != nil {
			n.Recurring = &core.RecurringDetails{TransactionID: *recTxID, Amount: recAmount.Decimal}
			if recTask != nil {
				n.Recurring.TaskName = *recTask
			}
			if recDue != nil {
				n.Recurring.NextDueDate = *recDue
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Goals

const goalColumns = `id, owner_id, name, target_amount, current_amount, deadline, created_at, updated_at`

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO goals (`+goalColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		g.ID, g.OwnerID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(),
		g.Deadline.UTC(), g.CreatedAt.UTC(), g.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (s *Store) GetGoal(ctx context.Context, id string) (core.Goal, error) {
	g, err := scanGoal(s.pool.QueryRow(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Goal{}, core.ErrGoalNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals`
	var args []any
	if ownerID != "" {
		query += ` WHERE owner_id = $1`
		args = append(args, ownerID)
	}
	query += ` ORDER BY deadline ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) UpdateGoal(ctx context.Context, g core.Goal) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE goals SET name = $1, target_amount = $2, current_amount = $3, deadline = $4, updated_at = $5
		WHERE id = $6`,
		g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), g.Deadline.UTC(), g.UpdatedAt.UTC(), g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrGoalNotFound
	}
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM goals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrGoalNotFound
	}
	return nil
}

// Settings

func (s *Store) GetSettings(ctx context.Context) (core.Settings, error) {
	var st core.Settings
	err := s.pool.QueryRow(ctx, `
		SELECT categories, transaction_limit, monthly_limit, updated_at FROM settings WHERE id = 1`).
		Scan(&st.Categories, &st.Limits.TransactionLimit, &st.Limits.MonthlyLimit, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.Settings{}, core.ErrSettingsNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return st, nil
}

func (s *Store) CreateSettings(ctx context.Context, st core.Settings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (id, categories, transaction_limit, monthly_limit, updated_at) VALUES (1, $1, $2, $3, $4)`,
		tagsOrEmpty(st.Categories), st.Limits.TransactionLimit.String(), st.Limits.MonthlyLimit.String(), st.UpdatedAt.UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrSettingsExist
		}
		return fmt.Errorf("create settings: %w", err)
	}
	return nil
}

func (s *Store) SaveSettings(ctx context.Context, st core.Settings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (id, categories, transaction_limit, monthly_limit, updated_at) VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET categories = EXCLUDED.categories,
			transaction_limit = EXCLUDED.transaction_limit,
			monthly_limit = EXCLUDED.monthly_limit,
			updated_at = EXCLUDED.updated_at`,
		tagsOrEmpty(st.Categories), st.Limits.TransactionLimit.String(), st.Limits.MonthlyLimit.String(), st.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// helpers

func scanTransaction(row pgx.Row) (core.Transaction, error) {
	var t core.Transaction
	err := row.Scan(&t.ID, &t.OwnerID, &t.Direction, &t.Amount, &t.BaseCurrency, &t.TargetCurrency, &t.ExchangeRate,
		&t.Category, &t.ExpenseType, &t.PaymentMethod, &t.Description, &t.Date, &t.Tags,
		&t.Recurring, &t.Pattern, &t.RecurrenceEnd, &t.NextDueDate, &t.Expanded, &t.ParentID, &t.CreatedAt)
	if err != nil {
		return core.Transaction{}, err
	}
	if len(t.Tags) == 0 {
		t.Tags = nil
	}
	return t, nil
}

func scanGoal(row pgx.Row) (core.Goal, error) {
	var g core.Goal
	if err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Deadline, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return core.Goal{}, err
	}
	return g, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
