package core

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const maxDescriptionLen = 500

// Transaction is one recorded income or expense event.
//
// Amount is expressed in BaseCurrency. ExchangeRate converts it to
// TargetCurrency; a rate of 1 is also what a failed lookup degrades to.
type Transaction struct {
	ID             string
	OwnerID        string
	Direction      Direction
	Amount         decimal.Decimal
	BaseCurrency   string
	TargetCurrency string
	ExchangeRate   decimal.Decimal
	Category       string
	ExpenseType    ExpenseType
	PaymentMethod  PaymentMethod
	Description    string
	Date           time.Time
	Tags           []string

	Recurring     bool
	Pattern       RecurrencePattern
	RecurrenceEnd *time.Time
	// NextDueDate is set once the next occurrence has been projected.
	NextDueDate *time.Time
	// Expanded marks an entry whose one-step recurrence has been evaluated.
	Expanded bool
	// ParentID references the entry this one was projected from.
	ParentID string

	CreatedAt time.Time
}

// ConvertedAmount is the canonical converted value: Amount × ExchangeRate.
func (t Transaction) ConvertedAmount() decimal.Decimal {
	rate := t.ExchangeRate
	if rate.IsZero() {
		rate = decimal.NewFromInt(1)
	}
	return t.Amount.Mul(rate)
}

// HasTag reports whether the transaction carries tag (case-sensitive).
func (t Transaction) HasTag(tag string) bool {
	return slices.Contains(t.Tags, tag)
}

// HasAnyTag reports whether the transaction carries at least one of tags.
func (t Transaction) HasAnyTag(tags []string) bool {
	for _, tag := range tags {
		if t.HasTag(tag) {
			return true
		}
	}
	return false
}

// Normalize trims free-text fields, upper-cases currency codes and removes
// empty or duplicate tags.
func (t *Transaction) Normalize() {
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	t.BaseCurrency = strings.ToUpper(strings.TrimSpace(t.BaseCurrency))
	t.TargetCurrency = strings.ToUpper(strings.TrimSpace(t.TargetCurrency))
	t.Tags = NormalizeTags(t.Tags)
}

// NormalizeTags trims tags and drops empty and repeated values, preserving order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || slices.Contains(out, tag) {
			continue
		}
		out = append(out, tag)
	}
	return out
}

// Validate checks the transaction's field invariants.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.OwnerID) == "" {
		return Validationf("owner is required")
	}
	if !t.Direction.Valid() {
		return Validationf("invalid transaction type %q: must be Income or Expense", t.Direction)
	}
	if !t.Amount.IsPositive() {
		return Validationf("amount must be greater than zero")
	}
	if err := validateCurrency("base currency", t.BaseCurrency); err != nil {
		return err
	}
	if err := validateCurrency("target currency", t.TargetCurrency); err != nil {
		return err
	}
	if t.ExchangeRate.IsNegative() {
		return Validationf("exchange rate cannot be negative")
	}
	if t.Category == "" {
		return Validationf("category is required")
	}
	if !ValidCategory(t.Direction, t.Category) {
		return Validationf("invalid category %q for %s transactions", t.Category, t.Direction)
	}

	switch t.Direction {
	case Expense:
		if t.ExpenseType == "" {
			return Validationf("expense type is required for expenses")
		}
		if !t.ExpenseType.Valid() {
			return Validationf("invalid expense type %q", t.ExpenseType)
		}
	case Income:
		if t.ExpenseType != "" {
			return Validationf("expense type is only allowed for expenses")
		}
	}

	if t.PaymentMethod == "" {
		return Validationf("payment method is required")
	}
	if !t.PaymentMethod.Valid() {
		return Validationf("invalid payment method %q", t.PaymentMethod)
	}
	if len(t.Description) > maxDescriptionLen {
		return Validationf("description too long (max %d characters)", maxDescriptionLen)
	}
	if t.Date.IsZero() {
		return Validationf("date is required")
	}

	if t.Recurring {
		if t.Pattern == "" {
			return Validationf("recurrence pattern is required for recurring transactions")
		}
		if !t.Pattern.Valid() {
			return Validationf("invalid recurrence pattern %q", t.Pattern)
		}
		if t.RecurrenceEnd != nil && t.RecurrenceEnd.Before(t.Date) {
			return Validationf("recurrence end date must not be before the transaction date")
		}
	} else if t.Pattern != "" {
		return Validationf("recurrence pattern requires the recurring flag")
	}
	return nil
}

func validateCurrency(field, code string) error {
	if code == "" {
		return Validationf("%s is required", field)
	}
	if len(code) != 3 {
		return Validationf("invalid %s %q: must be a 3-letter ISO code", field, code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return Validationf("invalid %s %q: must be a 3-letter ISO code", field, code)
		}
	}
	return nil
}

// CategoryTotal is a per-category converted sum.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}
