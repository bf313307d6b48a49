package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"fintrack/internal/budget"
)

type Config struct {
	// Storage
	DataBackend  string
	SQLiteDBPath string
	PostgresURL  string

	// AMQP; an empty URL means events are handled inline
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Exchange rates
	ExchangeRateAPIURL   string
	ExchangeRateAPIKey   string
	ExchangeRateTimeout  time.Duration
	ExchangeRateCacheTTL time.Duration
	CacheCleanupInterval time.Duration

	// Budget thresholds, in percent of a category budget
	BudgetWarnPercentDirect float64
	BudgetWarnPercentLedger float64

	// Worker
	ReminderWindowDays int
	SweepSchedule      string
	ExpansionSchedule  string
	SweepConcurrency   int

	// Google Sheets ledger mirror
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	SettingsSeedFile string
	LogLevel         string
}

var validBackends = []string{"memory", "sqlite", "postgres"}

func Load() *Config {
	return &Config{
		DataBackend:  getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "fintrack_events"),

		ExchangeRateAPIURL:   getEnv("EXCHANGE_RATE_API_URL", "https://v6.exchangerate-api.com/v6"),
		ExchangeRateAPIKey:   getEnv("EXCHANGE_RATE_API_KEY", ""),
		ExchangeRateTimeout:  getEnvDuration("EXCHANGE_RATE_TIMEOUT", 10*time.Second),
		ExchangeRateCacheTTL: getEnvDuration("EXCHANGE_RATE_CACHE_TTL", time.Hour),
		CacheCleanupInterval: getEnvDuration("CACHE_CLEANUP_INTERVAL", 10*time.Minute),

		BudgetWarnPercentDirect: getEnvFloat("BUDGET_WARN_PERCENT_DIRECT", 80),
		BudgetWarnPercentLedger: getEnvFloat("BUDGET_WARN_PERCENT_LEDGER", 90),

		ReminderWindowDays: getEnvInt("REMINDER_WINDOW_DAYS", 7),
		SweepSchedule:      getEnv("SWEEP_SCHEDULE", "@daily"),
		ExpansionSchedule:  getEnv("EXPANSION_SCHEDULE", "@hourly"),
		SweepConcurrency:   getEnvInt("SWEEP_CONCURRENCY", 4),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		SettingsSeedFile: getEnv("SETTINGS_SEED_FILE", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.DataBackend == "postgres" {
		if c.PostgresURL == "" {
			errors = append(errors, "POSTGRES_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.PostgresURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.ExchangeRateAPIKey != "" {
		if _, err := url.ParseRequestURI(c.ExchangeRateAPIURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid exchange rate API URL '%s'", c.ExchangeRateAPIURL))
		}
	}
	if c.ExchangeRateTimeout < 100*time.Millisecond || c.ExchangeRateTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid exchange rate timeout %v: must be between 100ms and 1 minute", c.ExchangeRateTimeout))
	}
	if c.ExchangeRateCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid exchange rate cache TTL %v: must be at least 1 second", c.ExchangeRateCacheTTL))
	}
	if c.CacheCleanupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache cleanup interval %v: must be at least 1 second", c.CacheCleanupInterval))
	}

	for _, p := range []struct {
		name  string
		value float64
	}{
		{"direct", c.BudgetWarnPercentDirect},
		{"ledger", c.BudgetWarnPercentLedger},
	} {
		if p.value <= 0 || p.value >= 100 {
			errors = append(errors, fmt.Sprintf("invalid %s warning percent %v: must be between 0 and 100 exclusive", p.name, p.value))
		}
	}

	if c.ReminderWindowDays < 1 || c.ReminderWindowDays > 365 {
		errors = append(errors, fmt.Sprintf("invalid reminder window %d: must be between 1 and 365 days", c.ReminderWindowDays))
	}
	if c.SweepConcurrency < 1 || c.SweepConcurrency > 64 {
		errors = append(errors, fmt.Sprintf("invalid sweep concurrency %d: must be between 1 and 64", c.SweepConcurrency))
	}
	if _, err := cron.ParseStandard(c.SweepSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid sweep schedule '%s': %v", c.SweepSchedule, err))
	}
	if _, err := cron.ParseStandard(c.ExpansionSchedule); err != nil {
		errors = append(errors, fmt.Sprintf("invalid expansion schedule '%s': %v", c.ExpansionSchedule, err))
	}

	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when a spreadsheet ID is set")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.SettingsSeedFile != "" {
		if _, err := os.Stat(c.SettingsSeedFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("settings seed file does not exist: %s", c.SettingsSeedFile))
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Policy returns the budget warning thresholds.
func (c *Config) Policy() budget.Policy {
	return budget.Policy{
		DirectWarnPercent: decimal.NewFromFloat(c.BudgetWarnPercentDirect),
		LedgerWarnPercent: decimal.NewFromFloat(c.BudgetWarnPercentLedger),
	}
}

// SheetsEnabled reports whether recorded entries are mirrored to a spreadsheet.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
