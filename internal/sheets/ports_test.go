package sheets

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base     string
		year     int
		expected string
	}{
		{"Ledger", 2025, "2025 Ledger"},
		{"  Ledger  ", 2024, "2024 Ledger"},
		{"", 2023, ""},
		{"Family Ledger", 2022, "2022 Family Ledger"},
		{"2025 Already Prefixed", 2024, "2025 Already Prefixed"},
		{"12345", 2024, "2024 12345"},
	}

	for _, tt := range tests {
		if got := YearPrefixedName(tt.base, tt.year); got != tt.expected {
			t.Errorf("YearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.expected)
		}
	}
}

func TestRow(t *testing.T) {
	tx := core.Transaction{
		ID:             "tx-1",
		OwnerID:        "u1",
		Direction:      core.Expense,
		Category:       "Travel",
		Description:    "Train",
		Amount:         decimal.RequireFromString("10"),
		BaseCurrency:   "EUR",
		TargetCurrency: "USD",
		ExchangeRate:   decimal.RequireFromString("1.1"),
		Date:           time.Date(2025, 4, 2, 23, 0, 0, 0, time.UTC),
		Tags:           []string{"work", "trip"},
	}

	row := Row(tx)
	if len(row) != len(Header) {
		t.Fatalf("row has %d cells, header has %d", len(row), len(Header))
	}
	want := map[int]any{0: "2025-04-02", 6: "10.00", 9: "11.00", 11: "work, trip"}
	for i, v := range want {
		if row[i] != v {
			t.Errorf("cell %d (%s) = %v, want %v", i, Header[i], row[i], v)
		}
	}
}
