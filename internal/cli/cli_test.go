package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

// withSQLite points the configuration at a fresh database shared by every
// Execute call in the test.
func withSQLite(t *testing.T) {
	t.Helper()
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "fintrack.db"))
	t.Setenv("LOG_LEVEL", "error")
	for _, k := range []string{"AMQP_URL", "GOOGLE_SPREADSHEET_ID", "EXCHANGE_RATE_API_KEY", "SETTINGS_SEED_FILE", "FINTRACK_USER", "FINTRACK_ROLE"} {
		t.Setenv(k, "")
	}
}

func run(t *testing.T, args ...string) (*bytes.Buffer, error) {
	t.Helper()
	var out bytes.Buffer
	err := Execute(context.Background(), args, &out)
	return &out, err
}

func mustRun(t *testing.T, v any, args ...string) {
	t.Helper()
	out, err := run(t, args...)
	require.NoError(t, err, "fintrack %v", args)
	if v != nil {
		require.NoError(t, json.Unmarshal(out.Bytes(), v), "output: %s", out.String())
	}
}

func TestExecute_PlanAndLedgerFlow(t *testing.T) {
	withSQLite(t)

	var plan core.BudgetPlan
	mustRun(t, &plan, "--user", "alice", "plan", "create", "--income", "2000",
		"--category", "Groceries:300", "--category", "Dining Out:100:Non-Essential")
	assert.Equal(t, "alice", plan.OwnerID)
	require.Len(t, plan.Categories, 2)
	assert.Equal(t, core.NonEssential, plan.Categories[1].ExpenseType)

	var tx core.Transaction
	mustRun(t, &tx, "--user", "alice", "tx", "add", "--amount", "280", "--category", "Groceries",
		"--expense-type", "Essential", "--date", "2025-03-10", "--tag", "food,weekly")
	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, []string{"food", "weekly"}, tx.Tags)

	mustRun(t, &plan, "--user", "alice", "plan", "show")
	assert.True(t, decimal.NewFromInt(280).Equal(plan.Categories[0].SpentAmount))

	var ns []core.Notification
	mustRun(t, &ns, "--user", "alice", "notifications")
	require.Len(t, ns, 1, "280 of 300 crosses the ledger warning")
	assert.Equal(t, core.NotifyBudgetExceeded, ns[0].Type)

	var sum report.Summary
	mustRun(t, &sum, "--user", "alice", "report", "summary")
	assert.Equal(t, 1, sum.Count)

	var got core.Transaction
	mustRun(t, &got, "--user", "root", "--role", "admin", "tx", "update", tx.ID, "--amount", "120")
	assert.True(t, decimal.NewFromInt(120).Equal(got.Amount))

	out, err := run(t, "--user", "root", "--role", "admin", "tx", "delete", tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "deleted: 1\n", out.String())
}

func TestExecute_AccessErrors(t *testing.T) {
	withSQLite(t)

	tests := []struct {
		name string
		args []string
		kind core.Kind
	}{
		{name: "settings need admin", args: []string{"--user", "alice", "settings", "get"}, kind: core.KindForbidden},
		{name: "sweep needs admin", args: []string{"--user", "alice", "sweep"}, kind: core.KindForbidden},
		{name: "other user's plan", args: []string{"--user", "bob", "plan", "show", "--owner", "alice"}, kind: core.KindForbidden},
		{name: "missing plan", args: []string{"--user", "bob", "plan", "show"}, kind: core.KindNotFound},
		{name: "bad amount", args: []string{"--user", "bob", "plan", "income", "lots"}, kind: core.KindValidation},
		{name: "bad date", args: []string{"--user", "bob", "report", "income-expense", "--from", "March"}, kind: core.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.kind, core.KindOf(err), "got %v", err)
		})
	}
}

func TestExecute_AdminCommands(t *testing.T) {
	withSQLite(t)
	admin := []string{"--user", "root", "--role", "admin"}

	var st core.Settings
	mustRun(t, &st, append(admin, "settings", "get")...)
	assert.Len(t, st.Categories, 10)

	mustRun(t, &st, append(admin, "settings", "update",
		"--category", "Utilities - Electricity, Water, Internet",
		"--transaction-limit", "500", "--monthly-limit", "2000")...)
	assert.Equal(t, []string{"Utilities - Electricity, Water, Internet"}, st.Categories)

	_, err := run(t, append(admin, "sweep")...)
	require.NoError(t, err)

	var sys report.System
	mustRun(t, &sys, append(admin, "report", "system")...)
	assert.Equal(t, "N/A", sys.Highest.Category)
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in      string
		want    core.ExpenseCategory
		wantErr bool
	}{
		{in: "Groceries:300", want: core.ExpenseCategory{Name: "Groceries", ExpenseType: core.Essential, BudgetAmount: decimal.NewFromInt(300)}},
		{in: " Travel : 150.5 : Non-Essential", want: core.ExpenseCategory{Name: "Travel", ExpenseType: core.NonEssential, BudgetAmount: decimal.RequireFromString("150.5")}},
		{in: "Groceries", wantErr: true},
		{in: "Groceries:abc", wantErr: true},
		{in: "a:1:b:c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseCategory(tt.in)
			if tt.wantErr {
				assert.True(t, core.IsKind(err, core.KindValidation), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Name, got.Name)
			assert.Equal(t, tt.want.ExpenseType, got.ExpenseType)
			assert.True(t, tt.want.BudgetAmount.Equal(got.BudgetAmount))
		})
	}
}
