package storage

import (
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/portfolio-service/internal/config"
)

// Migrator applies the SQL schema migrations for the portfolio database
type Migrator struct {
	databaseURL string
	sourceURL   string
}

// NewMigrator creates a migrator for the configured Postgres database,
// reading migration files from migrationsPath
func NewMigrator(cfg *config.PostgresConfig, migrationsPath string) *Migrator {
	return &Migrator{
		databaseURL: cfg.PostgresURL(),
		sourceURL:   fmt.Sprintf("file://%s", migrationsPath),
	}
}

func (m *Migrator) open() (*migrate.Migrate, error) {
	instance, err := migrate.New(m.sourceURL, m.databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return instance, nil
}

// Up applies all pending migrations. An already up-to-date schema is not an
// error.
func (m *Migrator) Up() error {
	instance, err := m.open()
	if err != nil {
		return err
	}
	defer func() {
		_, _ = instance.Close() // nolint:errcheck // cleanup in defer
	}()

	if err := instance.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Down rolls back the most recent migration
func (m *Migrator) Down() error {
	instance, err := m.open()
	if err != nil {
		return err
	}
	defer func() {
		_, _ = instance.Close() // nolint:errcheck // cleanup in defer
	}()

	if err := instance.Steps(-1); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	return nil
}

// Version returns the current schema version. A database that has never been
// migrated reports version 0.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	instance, err := m.open()
	if err != nil {
		return 0, false, err
	}
	defer func() {
		_, _ = instance.Close() // nolint:errcheck // cleanup in defer
	}()

	version, dirty, err = instance.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}

	return version, dirty, nil
}
