package storage

import (
	"strings"
	"time"
)

// Dialect abstracts the SQL differences between the relational backends.
type Dialect interface {
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string
	// TagsAny returns a predicate on alias t matching any of the bound tags.
	TagsAny(placeholders []string) string
	// Time converts a time to the backend's bind value.
	Time(t time.Time) any
}

// TransactionWhere renders f as a WHERE clause over the transactions table
// aliased as t. It returns an empty clause when nothing is filtered.
func TransactionWhere(d Dialect, f TransactionFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	bind := func(v any) string {
		args = append(args, v)
		return d.Placeholder(len(args))
	}

	if f.OwnerID != "" {
		conds = append(conds, "t.owner_id = "+bind(f.OwnerID))
	}
	if f.Direction != "" {
		conds = append(conds, "t.direction = "+bind(string(f.Direction)))
	}
	if f.Category != "" {
		conds = append(conds, "t.category = "+bind(f.Category))
	}
	if len(f.Tags) > 0 {
		ph := make([]string, 0, len(f.Tags))
		for _, tag := range f.Tags {
			ph = append(ph, bind(tag))
		}
		conds = append(conds, d.TagsAny(ph))
	}
	if f.From != nil {
		conds = append(conds, "t.date >= "+bind(d.Time(*f.From)))
	}
	if f.To != nil {
		conds = append(conds, "t.date <= "+bind(d.Time(*f.To)))
	}
	if f.ParentID != "" {
		conds = append(conds, "t.parent_id = "+bind(f.ParentID))
	}
	if f.RecurringOnly {
		conds = append(conds, "t.recurring = "+bind(true))
	}
	if f.PendingExpansion {
		conds = append(conds, "t.recurring = "+bind(true), "t.expanded = "+bind(false))
	}
	if f.Settled {
		conds = append(conds, "(t.recurring = "+bind(false)+" OR t.expanded = "+bind(true)+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// TransactionOrder returns the ORDER BY clause matching SortTransactions.
func TransactionOrder(ascending bool) string {
	if ascending {
		return "ORDER BY t.date ASC, t.created_at ASC"
	}
	return "ORDER BY t.date DESC, t.created_at DESC"
}
