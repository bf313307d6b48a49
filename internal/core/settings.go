package core

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// SettingsVocabulary is the full set of category labels settings may enable.
var SettingsVocabulary = []string{
	"Housing - Rent/Mortgage",
	"Utilities - Electricity, Water, Internet",
	"Groceries",
	"Transportation - Fuel, Public Transport",
	"Health & Insurance - Medical Bills, Insurance",
	"Debt Payments - Loans, Credit Cards",
	"Emergency Fund",
	"Retirement Savings",
	"Investments - Stocks, Crypto, Real Estate",
	"Education Fund",
	"Dining Out",
	"Shopping",
	"Entertainment",
	"Travel",
	"Subscriptions - Streaming, Memberships",
	"Salary",
	"Freelance",
	"Other",
}

// Limits caps single transactions and monthly spending.
type Limits struct {
	TransactionLimit decimal.Decimal
	MonthlyLimit     decimal.Decimal
}

// Settings is the deployment-wide configuration record.
type Settings struct {
	Categories []string
	Limits     Limits
	UpdatedAt  time.Time
}

// DefaultSettings returns the values used until an administrator creates settings.
func DefaultSettings() Settings {
	return Settings{
		Categories: []string{
			"Housing - Rent/Mortgage",
			"Utilities - Electricity, Water, Internet",
			"Groceries",
			"Transportation - Fuel, Public Transport",
			"Health & Insurance - Medical Bills, Insurance",
			"Debt Payments - Loans, Credit Cards",
			"Emergency Fund",
			"Retirement Savings",
			"Investments - Stocks, Crypto, Real Estate",
			"Education Fund",
		},
		Limits: Limits{
			TransactionLimit: decimal.NewFromInt(10000),
			MonthlyLimit:     decimal.NewFromInt(50000),
		},
	}
}

func (s Settings) Validate() error {
	for _, c := range s.Categories {
		if !slices.Contains(SettingsVocabulary, c) {
			return Validationf("invalid settings category %q", c)
		}
	}
	if !s.Limits.TransactionLimit.IsPositive() {
		return Validationf("transaction limit must be greater than zero")
	}
	if !s.Limits.MonthlyLimit.IsPositive() {
		return Validationf("monthly limit must be greater than zero")
	}
	return nil
}
