// Package sheets mirrors ledger entries into a spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// LedgerExporter appends one ledger entry per row.
type LedgerExporter interface {
	ExportTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
}

// Header lists the mirrored columns in order.
var Header = []string{
	"Date", "ID", "Owner", "Direction", "Category", "Description",
	"Amount", "Currency", "Rate", "Converted", "Target", "Tags",
}

// Row renders tx as spreadsheet cell values matching Header.
func Row(tx core.Transaction) []any {
	return []any{
		tx.Date.UTC().Format(time.DateOnly),
		tx.ID,
		tx.OwnerID,
		string(tx.Direction),
		tx.Category,
		tx.Description,
		tx.Amount.StringFixed(2),
		tx.BaseCurrency,
		tx.ExchangeRate.String(),
		tx.ConvertedAmount().StringFixed(2),
		tx.TargetCurrency,
		strings.Join(tx.Tags, ", "),
	}
}

// YearPrefixedName returns "<year> <base>" unless base already starts with a
// four-digit year.
func YearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
