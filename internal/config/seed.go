package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// SettingsSeed is the TOML layout of the settings seed file:
//
//	categories = ["Groceries", "Travel"]
//
//	[limits]
//	transaction_limit = "2500"
//	monthly_limit = 20000
type SettingsSeed struct {
	Categories []string   `toml:"categories"`
	Limits     SeedLimits `toml:"limits"`
}

type SeedLimits struct {
	TransactionLimit *decimal.Decimal `toml:"transaction_limit,omitempty"`
	MonthlyLimit     *decimal.Decimal `toml:"monthly_limit,omitempty"`
}

// LoadSettingsSeed reads the seed used in place of the built-in settings
// defaults. Omitted fields keep their default values.
func LoadSettingsSeed(path string) (*core.Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings seed: %w", err)
	}

	var seed SettingsSeed
	if err := toml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing settings seed: %w", err)
	}

	st := core.DefaultSettings()
	if seed.Categories != nil {
		st.Categories = seed.Categories
	}
	if seed.Limits.TransactionLimit != nil {
		st.Limits.TransactionLimit = *seed.Limits.TransactionLimit
	}
	if seed.Limits.MonthlyLimit != nil {
		st.Limits.MonthlyLimit = *seed.Limits.MonthlyLimit
	}
	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("settings seed %s: %w", path, err)
	}
	return &st, nil
}
