package storage

import (
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Matches reports whether tx satisfies the filter.
func (f TransactionFilter) Matches(tx core.Transaction) bool {
	if f.OwnerID != "" && tx.OwnerID != f.OwnerID {
		return false
	}
	if f.Direction != "" && tx.Direction != f.Direction {
		return false
	}
	if f.Category != "" && tx.Category != f.Category {
		return false
	}
	if len(f.Tags) > 0 && !tx.HasAnyTag(f.Tags) {
		return false
	}
	if f.From != nil && tx.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && tx.Date.After(*f.To) {
		return false
	}
	if f.ParentID != "" && tx.ParentID != f.ParentID {
		return false
	}
	if f.RecurringOnly && !tx.Recurring {
		return false
	}
	if f.PendingExpansion && (!tx.Recurring || tx.Expanded) {
		return false
	}
	if f.Settled && tx.Recurring && !tx.Expanded {
		return false
	}
	return true
}

// SortTransactions orders txs by date, newest-first unless ascending, with
// creation time as the tie-break.
func SortTransactions(txs []core.Transaction, ascending bool) {
	sort.SliceStable(txs, func(i, j int) bool {
		a, b := txs[i], txs[j]
		if !a.Date.Equal(b.Date) {
			if ascending {
				return a.Date.Before(b.Date)
			}
			return a.Date.After(b.Date)
		}
		if ascending {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// SortCategoryTotals orders totals largest first, then by name.
func SortCategoryTotals(totals []core.CategoryTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		if c := totals[i].Total.Cmp(totals[j].Total); c != 0 {
			return c > 0
		}
		return totals[i].Category < totals[j].Category
	})
}

// SumTransactions aggregates converted amounts in memory. Backends without a
// native group-by use it.
func SumTransactions(txs []core.Transaction) (map[core.Direction]decimal.Decimal, []core.CategoryTotal) {
	byDir := map[core.Direction]decimal.Decimal{}
	byCat := map[string]decimal.Decimal{}
	var order []string
	for _, tx := range txs {
		amt := tx.ConvertedAmount()
		byDir[tx.Direction] = byDir[tx.Direction].Add(amt)
		if _, ok := byCat[tx.Category]; !ok {
			order = append(order, tx.Category)
		}
		byCat[tx.Category] = byCat[tx.Category].Add(amt)
	}
	totals := make([]core.CategoryTotal, 0, len(order))
	for _, c := range order {
		totals = append(totals, core.CategoryTotal{Category: c, Total: byCat[c]})
	}
	SortCategoryTotals(totals)
	return byDir, totals
}
