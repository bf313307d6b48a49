package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"

type SQLiteRepository struct {
	db *sql.DB
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := dbPath + "?" + sqlitePragmas

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

type sqliteDialect struct{}

func (sqliteDialect) Placeholder(int) string { return "?" }

func (sqliteDialect) TagsAny(ph []string) string {
	return "EXISTS (SELECT 1 FROM json_each(t.tags) je WHERE je.value IN (" + strings.Join(ph, ", ") + "))"
}

func (sqliteDialect) Time(t time.Time) any { return formatTime(t) }

// Budget plans

func (r *SQLiteRepository) GetPlan(ctx context.Context, ownerID string) (core.BudgetPlan, error) {
	var (
		p                    core.BudgetPlan
		createdAt, updatedAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT owner_id, total_income, total_spent, remaining_budget, version, created_at, updated_at
		FROM budget_plans WHERE owner_id = ?`, ownerID).
		Scan(&p.OwnerID, &p.TotalIncome, &p.TotalSpent, &p.RemainingBudget, &p.Version, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.BudgetPlan{}, core.ErrPlanNotFound
	}
	if err != nil {
		return core.BudgetPlan{}, fmt.Errorf("get plan: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)

	rows, err := r.db.QueryContext(ctx, `
		SELECT name, expense_type, budget_amount, spent_amount, remaining_amount
		FROM plan_categories WHERE owner_id = ? ORDER BY position`, ownerID)
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

func (r *SQLiteRepository) CreatePlan(ctx context.Context, plan core.BudgetPlan) (core.BudgetPlan, error) {
	plan.Recompute()
	plan.Version = 1

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO budget_plans (owner_id, total_income, total_spent, remaining_budget, version, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			plan.OwnerID, plan.TotalIncome.String(), plan.TotalSpent.String(), plan.RemainingBudget.String(),
			plan.Version, formatTime(plan.CreatedAt), formatTime(plan.UpdatedAt))
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

	slog.InfoContext(ctx, "Budget plan saved to SQLite", "owner_id", plan.OwnerID, "categories", len(plan.Categories))
	return plan, nil
}

func (r *SQLiteRepository) SavePlan(ctx context.Context, plan core.BudgetPlan) (core.BudgetPlan, error) {
	plan.Recompute()

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE budget_plans
			SET total_income = ?, total_spent = ?, remaining_budget = ?, version = version + 1, updated_at = ?
			WHERE owner_id = ? AND version = ?`,
			plan.TotalIncome.String(), plan.TotalSpent.String(), plan.RemainingBudget.String(),
			formatTime(plan.UpdatedAt), plan.OwnerID, plan.Version)
		if err != nil {
			return fmt.Errorf("update plan: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update plan: %w", err)
		}
		if n == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, `SELECT 1 FROM budget_plans WHERE owner_id = ?`, plan.OwnerID).Scan(&exists)
			if errors.Is(err, sql.ErrNoRows) {
				return core.ErrPlanNotFound
			}
			return fmt.Errorf("save plan %s at version %d: %w", plan.OwnerID, plan.Version, core.ErrStaleWrite)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM plan_categories WHERE owner_id = ?`, plan.OwnerID); err != nil {
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

func insertCategories(ctx context.Context, tx *sql.Tx, plan core.BudgetPlan) error {
	for i, c := range plan.Categories {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO plan_categories (owner_id, position, name, expense_type, budget_amount, spent_amount, remaining_amount)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			plan.OwnerID, i, c.Name, string(c.ExpenseType),
			c.BudgetAmount.String(), c.SpentAmount.String(), c.RemainingAmount.String())
		if err != nil {
			return fmt.Errorf("insert plan category %q: %w", c.Name, err)
		}
	}
	return nil
}

// Transactions

const txColumns = `t.id, t.owner_id, t.direction, t.amount, t.base_currency, t.target_currency, t.exchange_rate,
	t.category, t.expense_type, t.payment_method, t.description, t.date, t.tags,
	t.recurring, t.pattern, t.recurrence_end, t.next_due_date, t.expanded, t.parent_id, t.created_at`

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	tags, err := json.Marshal(nonNilTags(t.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, direction, amount, base_currency, target_currency, exchange_rate,
			category, expense_type, payment_method, description, date, tags,
			recurring, pattern, recurrence_end, next_due_date, expanded, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.OwnerID, string(t.Direction), t.Amount.String(), t.BaseCurrency, t.TargetCurrency, t.ExchangeRate.String(),
		t.Category, string(t.ExpenseType), string(t.PaymentMethod), t.Description, formatTime(t.Date), string(tags),
		t.Recurring, string(t.Pattern), nullTime(t.RecurrenceEnd), nullTime(t.NextDueDate), t.Expanded, t.ParentID,
		formatTime(t.CreatedAt))
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"owner_id", t.OwnerID,
		"direction", t.Direction,
		"amount", t.Amount.String())
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+txColumns+` FROM transactions t WHERE t.id = ?`, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrTransactionNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	tags, err := json.Marshal(nonNilTags(t.Tags))
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET owner_id = ?, direction = ?, amount = ?, base_currency = ?, target_currency = ?,
			exchange_rate = ?, category = ?, expense_type = ?, payment_method = ?, description = ?, date = ?, tags = ?,
			recurring = ?, pattern = ?, recurrence_end = ?, next_due_date = ?, expanded = ?, parent_id = ?
		WHERE id = ?`,
		t.OwnerID, string(t.Direction), t.Amount.String(), t.BaseCurrency, t.TargetCurrency,
		t.ExchangeRate.String(), t.Category, string(t.ExpenseType), string(t.PaymentMethod), t.Description,
		formatTime(t.Date), string(tags), t.Recurring, string(t.Pattern), nullTime(t.RecurrenceEnd),
		nullTime(t.NextDueDate), t.Expanded, t.ParentID, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return expectOne(res, core.ErrTransactionNotFound)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return expectOne(res, core.ErrTransactionNotFound)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error) {
	where, args := TransactionWhere(sqliteDialect{}, f)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions t `+where+` `+TransactionOrder(f.Ascending), args...)
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

const convertedSQL = `SUM(CAST(t.amount AS REAL) * CAST(t.exchange_rate AS REAL))`

func (r *SQLiteRepository) SumByDirection(ctx context.Context, f TransactionFilter) (map[core.Direction]decimal.Decimal, error) {
	where, args := TransactionWhere(sqliteDialect{}, f)
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.direction, `+convertedSQL+` FROM transactions t `+where+` GROUP BY t.direction`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by direction: %w", err)
	}
	defer rows.Close()

	out := map[core.Direction]decimal.Decimal{}
	for rows.Next() {
		var (
			dir   string
			total float64
		)
		if err := rows.Scan(&dir, &total); err != nil {
			return nil, fmt.Errorf("scan direction total: %w", err)
		}
		out[core.Direction(dir)] = fromSQLFloat(total)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SumByCategory(ctx context.Context, f TransactionFilter) ([]core.CategoryTotal, error) {
	where, args := TransactionWhere(sqliteDialect{}, f)
	rows, err := r.db.QueryContext(ctx,
		`SELECT t.category, `+convertedSQL+` AS total FROM transactions t `+where+
			` GROUP BY t.category ORDER BY total DESC, t.category ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var (
			cat   string
			total float64
		)
		if err := rows.Scan(&cat, &total); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, core.CategoryTotal{Category: cat, Total: fromSQLFloat(total)})
	}
	return out, rows.Err()
}

// Notifications

func (r *SQLiteRepository) CreateNotification(ctx context.Context, n core.Notification) error {
	var (
		recTxID, recTask, recAmount sql.NullString
		recDue                      sql.NullString
	)
	if n.Recurring != nil {
		recTxID = sql.NullString{String: n.Recurring.TransactionID, Valid: true}
		recTask = sql.NullString{String: n.Recurring.TaskName, Valid: true}
		recAmount = sql.NullString{String: n.Recurring.Amount.String(), Valid: true}
		recDue = sql.NullString{String: formatTime(n.Recurring.NextDueDate), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO notifications (id, owner_id, category, message, type, limit_amount, total_spent, balance_after,
			threshold, transaction_id, recurring_tx_id, recurring_task, recurring_amount, recurring_due, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.OwnerID, n.Category, n.Message, string(n.Type), n.Limit.String(), n.TotalSpent.String(),
		n.BalanceAfterSpending.String(), n.Threshold.String(), n.TransactionID,
		recTxID, recTask, recAmount, recDue, formatTime(n.CreatedAt))
	if err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListNotifications(ctx context.Context, ownerID string) ([]core.Notification, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, category, message, type, limit_amount, total_spent, balance_after, threshold,
			transaction_id, recurring_tx_id, recurring_task, recurring_amount, recurring_due, created_at
		FROM notifications WHERE owner_id = ?
		ORDER BY created_at DESC, seq DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []core.Notification
	for rows.Next() {
		var (
			n                           core.Notification
			recTxID, recTask, recAmount sql.NullString
			recDue                      sql.NullString
			createdAt                   string
		)
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Category, &n.Message, &n.Type, &n.Limit, &n.TotalSpent,
			&n.BalanceAfterSpending, &n.Threshold, &n.TransactionID,
			&recTxID, &recTask, &recAmount, &recDue, &createdAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		n.CreatedAt = parseTime(createdAt)
		if recTxID.Valid {
			amount, _ := decimal.NewFromString(recAmount.String)
			n.Recurring = &core.RecurringDetails{
				TransactionID: recTxID.String,
				TaskName:      recTask.String,
				Amount:        amount,
				NextDueDate:   parseTime(recDue.String),
			}
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// Goals

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (id, owner_id, name, target_amount, current_amount, deadline, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.OwnerID, g.Name, g.TargetAmount.String(), g.CurrentAmount.String(),
		formatTime(g.Deadline), formatTime(g.CreatedAt), formatTime(g.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

const goalColumns = `id, owner_id, name, target_amount, current_amount, deadline, created_at, updated_at`

func (r *SQLiteRepository) GetGoal(ctx context.Context, id string) (core.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.ErrGoalNotFound
	}
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals`
	var args []any
	if ownerID != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, ownerID)
	}
	query += ` ORDER BY deadline ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
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

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE goals SET name = ?, target_amount = ?, current_amount = ?, deadline = ?, updated_at = ?
		WHERE id = ?`,
		g.Name, g.TargetAmount.String(), g.CurrentAmount.String(), formatTime(g.Deadline), formatTime(g.UpdatedAt), g.ID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return expectOne(res, core.ErrGoalNotFound)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return expectOne(res, core.ErrGoalNotFound)
}

// Settings

func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, error) {
	var (
		s               core.Settings
		cats, updatedAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT categories, transaction_limit, monthly_limit, updated_at FROM settings WHERE id = 1`).
		Scan(&cats, &s.Limits.TransactionLimit, &s.Limits.MonthlyLimit, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{}, core.ErrSettingsNotFound
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	if err := json.Unmarshal([]byte(cats), &s.Categories); err != nil {
		return core.Settings{}, fmt.Errorf("decode settings categories: %w", err)
	}
	s.UpdatedAt = parseTime(updatedAt)
	return s, nil
}

func (r *SQLiteRepository) CreateSettings(ctx context.Context, s core.Settings) error {
	cats, err := json.Marshal(nonNilTags(s.Categories))
	if err != nil {
		return fmt.Errorf("encode settings categories: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (id, categories, transaction_limit, monthly_limit, updated_at) VALUES (1, ?, ?, ?, ?)`,
		string(cats), s.Limits.TransactionLimit.String(), s.Limits.MonthlyLimit.String(), formatTime(s.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return core.ErrSettingsExist
		}
		return fmt.Errorf("create settings: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	cats, err := json.Marshal(nonNilTags(s.Categories))
	if err != nil {
		return fmt.Errorf("encode settings categories: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings (id, categories, transaction_limit, monthly_limit, updated_at) VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET categories = excluded.categories,
			transaction_limit = excluded.transaction_limit,
			monthly_limit = excluded.monthly_limit,
			updated_at = excluded.updated_at`,
		string(cats), s.Limits.TransactionLimit.String(), s.Limits.MonthlyLimit.String(), formatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// helpers

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                     core.Transaction
		date, tags, createdAt string
		end, next             sql.NullString
	)
	err := row.Scan(&t.ID, &t.OwnerID, &t.Direction, &t.Amount, &t.BaseCurrency, &t.TargetCurrency, &t.ExchangeRate,
		&t.Category, &t.ExpenseType, &t.PaymentMethod, &t.Description, &date, &tags,
		&t.Recurring, &t.Pattern, &end, &next, &t.Expanded, &t.ParentID, &createdAt)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date = parseTime(date)
	t.CreatedAt = parseTime(createdAt)
	t.RecurrenceEnd = parseNullTime(end)
	t.NextDueDate = parseNullTime(next)
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return core.Transaction{}, fmt.Errorf("decode tags: %w", err)
	}
	if len(t.Tags) == 0 {
		t.Tags = nil
	}
	return t, nil
}

func scanGoal(row rowScanner) (core.Goal, error) {
	var (
		g                              core.Goal
		deadline, createdAt, updatedAt string
	)
	if err := row.Scan(&g.ID, &g.OwnerID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &deadline, &createdAt, &updatedAt); err != nil {
		return core.Goal{}, err
	}
	g.Deadline = parseTime(deadline)
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	return g, nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t := parseTime(s.String)
	return &t
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func fromSQLFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(6)
}
