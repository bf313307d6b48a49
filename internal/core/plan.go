package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory is one budget line of a plan.
type ExpenseCategory struct {
	Name            string
	ExpenseType     ExpenseType
	BudgetAmount    decimal.Decimal
	SpentAmount     decimal.Decimal
	RemainingAmount decimal.Decimal
}

// BudgetPlan is a user's budget aggregate. At most one exists per owner.
type BudgetPlan struct {
	OwnerID         string
	TotalIncome     decimal.Decimal
	TotalSpent      decimal.Decimal
	RemainingBudget decimal.Decimal
	Categories      []ExpenseCategory
	// Version increments on every successful save and guards against lost updates.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Recompute derives every dependent field from the category list and total
// income. It is the authoritative step run before each persist.
func (p *BudgetPlan) Recompute() {
	spent := decimal.Zero
	for i := range p.Categories {
		c := &p.Categories[i]
		c.RemainingAmount = c.BudgetAmount.Sub(c.SpentAmount)
		spent = spent.Add(c.SpentAmount)
	}
	p.TotalSpent = spent
	p.RemainingBudget = p.TotalIncome.Sub(spent)
}

// CategoryIndex returns the position of the named category, or -1.
func (p BudgetPlan) CategoryIndex(name string) int {
	for i, c := range p.Categories {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so pure transitions never alias the caller's slice.
func (p BudgetPlan) Clone() BudgetPlan {
	out := p
	out.Categories = append([]ExpenseCategory(nil), p.Categories...)
	return out
}

// Validate checks the plan's input fields, not its derived ones.
func (p BudgetPlan) Validate() error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return Validationf("owner is required")
	}
	if p.TotalIncome.IsNegative() {
		return Validationf("total income cannot be negative")
	}
	seen := make(map[string]struct{}, len(p.Categories))
	for _, c := range p.Categories {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := seen[c.Name]; dup {
			return Validationf("duplicate category %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

func (c ExpenseCategory) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return Validationf("category name is required")
	}
	if !c.ExpenseType.Valid() {
		return Validationf("invalid expense type %q for category %q", c.ExpenseType, c.Name)
	}
	if c.BudgetAmount.IsNegative() {
		return Validationf("budget amount for %q cannot be negative", c.Name)
	}
	return nil
}
