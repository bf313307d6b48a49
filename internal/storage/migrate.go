package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ApplyMigrations runs every pending up migration found under dir in src.
func ApplyMigrations(src fs.FS, dir, dbName string, driver database.Driver) error {
	source, err := iofs.New(src, dir)
	if err != nil {
		return fmt.Errorf("open %s migrations: %w", dbName, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dbName, driver)
	if err != nil {
		return fmt.Errorf("create %s migrator: %w", dbName, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: %w", dbName, err)
	}
	return nil
}

// RunMigrations brings the SQLite database at dsn up to the embedded schema.
// It uses its own connection so the repository pool is left untouched.
func RunMigrations(dsn string) error {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer db.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}
	return ApplyMigrations(migrationsFS, "migrations", "sqlite", driver)
}
