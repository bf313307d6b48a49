package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const maxGoalNameLen = 100

type GoalStatus string

const (
	GoalActive   GoalStatus = "active"
	GoalAchieved GoalStatus = "achieved"
)

// Goal is a savings target with a deadline.
type Goal struct {
	ID            string
	OwnerID       string
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Deadline      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Progress returns current/target*100 clamped to 100, or 0 when target <= 0.
func Progress(current, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return decimal.Zero
	}
	p := current.Div(target).Mul(hundred)
	if p.GreaterThan(hundred) {
		return hundred
	}
	return p
}

func (g Goal) Progress() decimal.Decimal {
	return Progress(g.CurrentAmount, g.TargetAmount)
}

// Status is derived from progress and never stored.
func (g Goal) Status() GoalStatus {
	if g.Progress().Equal(hundred) {
		return GoalAchieved
	}
	return GoalActive
}

// Validate checks the goal's fields. The future-deadline rule depends on the
// clock and is applied separately through ValidateDeadline.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.OwnerID) == "" {
		return Validationf("owner is required")
	}
	name := strings.TrimSpace(g.Name)
	if name == "" {
		return Validationf("goal name is required")
	}
	if utf8.RuneCountInString(name) > maxGoalNameLen {
		return Validationf("goal name too long (max %d characters)", maxGoalNameLen)
	}
	if !g.TargetAmount.IsPositive() {
		return Validationf("target amount must be greater than zero")
	}
	if g.CurrentAmount.IsNegative() {
		return Validationf("current amount cannot be negative")
	}
	if g.Deadline.IsZero() {
		return Validationf("deadline is required")
	}
	return nil
}

// ValidateDeadline rejects deadlines that are not strictly after now.
func (g Goal) ValidateDeadline(now time.Time) error {
	if !g.Deadline.After(now) {
		return Validationf("deadline must be a future date")
	}
	return nil
}
