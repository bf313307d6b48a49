package backend

import (
	"fmt"
	"net/url"

	"fintrack/internal/config"
)

// FromAppConfig picks the storage settings out of the application config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	bt := BackendType(appConfig.DataBackend)
	if !bt.IsValid() {
		return Config{}, fmt.Errorf("unknown data backend %q (want one of %v)", appConfig.DataBackend, GetBackendTypeStrings())
	}

	cfg := Config{Type: bt}
	switch bt {
	case SQLiteBackend:
		cfg.SQLiteDBPath = appConfig.SQLiteDBPath
	case PostgresBackend:
		cfg.PostgresURL = appConfig.PostgresURL
	}
	return cfg, nil
}

// required lists, per backend, the settings that must be non-empty.
var required = map[BackendType][]struct {
	name  string
	value func(Config) string
}{
	SQLiteBackend:   {{"SQLite database path", func(c Config) string { return c.SQLiteDBPath }}},
	PostgresBackend: {{"Postgres URL", func(c Config) string { return c.PostgresURL }}},
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	for _, field := range required[c.Type] {
		if field.value(c) == "" {
			return fmt.Errorf("%s is required for %s backend", field.name, c.Type)
		}
	}
	return nil
}

// Location describes where the backend keeps its data, safe for logs.
func (c Config) Location() string {
	switch c.Type {
	case SQLiteBackend:
		return c.SQLiteDBPath
	case PostgresBackend:
		u, err := url.Parse(c.PostgresURL)
		if err != nil {
			return "postgres"
		}
		return u.Redacted()
	default:
		return "process memory"
	}
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}
}

func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
