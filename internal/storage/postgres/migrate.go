package postgres

import (
	"database/sql"
	"embed"
	"fmt"

	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fintrack/internal/storage"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations applies the embedded Postgres schema through a short-lived
// database/sql handle; the store itself talks to pgxpool.
func RunMigrations(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	if err != nil {
		return fmt.Errorf("create pgx driver: %w", err)
	}
	return storage.ApplyMigrations(migrationsFS, "migrations", "pgx5", driver)
}
