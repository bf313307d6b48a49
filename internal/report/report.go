// Package report computes read-side views over ledger entries. Every function
// is pure; converted amounts (Amount × ExchangeRate) are used throughout.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Summary is the per-user overview of a set of ledger entries.
type Summary struct {
	TotalAmount  decimal.Decimal
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Net          decimal.Decimal
	// Categories holds expense totals in first-seen order.
	Categories []core.CategoryTotal
	// Highest is the largest expense category; zero when there are no expenses.
	Highest core.CategoryTotal
	Count   int
}

// Summarize aggregates txs in the order given. Ties for the highest category
// go to the one encountered first.
func Summarize(txs []core.Transaction) Summary {
	var s Summary
	index := map[string]int{}
	for _, tx := range txs {
		amt := tx.ConvertedAmount()
		s.TotalAmount = s.TotalAmount.Add(amt)
		s.Count++
		if tx.Direction == core.Income {
			s.TotalIncome = s.TotalIncome.Add(amt)
			continue
		}
		s.TotalExpense = s.TotalExpense.Add(amt)
		i, ok := index[tx.Category]
		if !ok {
			i = len(s.Categories)
			index[tx.Category] = i
			s.Categories = append(s.Categories, core.CategoryTotal{Category: tx.Category})
		}
		s.Categories[i].Total = s.Categories[i].Total.Add(amt)
	}
	s.Net = s.TotalIncome.Sub(s.TotalExpense)

	for _, c := range s.Categories {
		if c.Total.GreaterThan(s.Highest.Total) {
			s.Highest = c
		}
	}
	return s
}

// DayTrend is the income and expense booked on one calendar day.
type DayTrend struct {
	Day     string
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// DailyTrends buckets txs by UTC calendar day, oldest first.
func DailyTrends(txs []core.Transaction) []DayTrend {
	buckets := map[string]*DayTrend{}
	for _, tx := range txs {
		day := tx.Date.UTC().Format(time.DateOnly)
		b, ok := buckets[day]
		if !ok {
			b = &DayTrend{Day: day}
			buckets[day] = b
		}
		if tx.Direction == core.Income {
			b.Income = b.Income.Add(tx.ConvertedAmount())
		} else {
			b.Expense = b.Expense.Add(tx.ConvertedAmount())
		}
	}

	out := make([]DayTrend, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

// SortByTag returns the entries carrying tag, newest first.
func SortByTag(txs []core.Transaction, tag string) []core.Transaction {
	var out []core.Transaction
	for _, tx := range txs {
		if tx.HasTag(tag) {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out
}

// IncomeExpense compares the two directions over a period.
type IncomeExpense struct {
	From    *time.Time
	To      *time.Time
	Income  decimal.Decimal
	Expense decimal.Decimal
	Net     decimal.Decimal
}

// NewIncomeExpense builds the comparison from grouped sums.
func NewIncomeExpense(byDir map[core.Direction]decimal.Decimal, from, to *time.Time) IncomeExpense {
	ie := IncomeExpense{
		From:    from,
		To:      to,
		Income:  byDir[core.Income],
		Expense: byDir[core.Expense],
	}
	ie.Net = ie.Income.Sub(ie.Expense)
	return ie
}

// System is the all-user financial report.
type System struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	NetProfit    decimal.Decimal
	// Categories lists expense spending, largest first.
	Categories []core.CategoryTotal
	// Highest is Categories[0], or "N/A" when nothing was spent.
	Highest core.CategoryTotal
}

// NewSystem builds the system report from grouped sums.
func NewSystem(byDir map[core.Direction]decimal.Decimal, categories []core.CategoryTotal) System {
	s := System{
		TotalIncome:  byDir[core.Income],
		TotalExpense: byDir[core.Expense],
		Categories:   categories,
		Highest:      core.CategoryTotal{Category: "N/A"},
	}
	s.NetProfit = s.TotalIncome.Sub(s.TotalExpense)
	if len(categories) > 0 {
		s.Highest = categories[0]
	}
	return s
}
