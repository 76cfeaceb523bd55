package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationStatus describes the schema version of a database.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	// Pristine is true when no migration has ever been applied.
	Pristine bool
}

// RunMigrations applies every pending up migration.
func RunMigrations(dbPath string) error {
	return withMigrator(dbPath, func(m *migrate.Migrate) error {
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	})
}

// RollbackMigrations reverts the given number of applied migrations.
func RollbackMigrations(dbPath string, steps int) error {
	if steps < 1 {
		return fmt.Errorf("invalid rollback steps %d: must be at least 1", steps)
	}
	return withMigrator(dbPath, func(m *migrate.Migrate) error {
		if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("rollback migrations: %w", err)
		}
		return nil
	})
}

// CurrentMigration reports the schema version without changing it.
func CurrentMigration(dbPath string) (MigrationStatus, error) {
	var status MigrationStatus
	err := withMigrator(dbPath, func(m *migrate.Migrate) error {
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			status.Pristine = true
			return nil
		}
		if err != nil {
			return fmt.Errorf("read migration version: %w", err)
		}
		status.Version, status.Dirty = version, dirty
		return nil
	})
	return status, err
}

// withMigrator uses a dedicated connection so migrations never share state
// with the repository's pool.
func withMigrator(dbPath string, fn func(*migrate.Migrate) error) error {
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	return fn(m)
}
