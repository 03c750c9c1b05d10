package sqlite

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// RunMigrations applies all embedded up migrations to the database at path.
// It uses its own connection because closing the migrator closes the
// database handle it was given.
func RunMigrations(path string) error {
	m, err := newMigrator(path)
	if err != nil {
		return fmt.Errorf("RunMigrations: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("RunMigrations: applying: %w", err)
	}
	return nil
}

// MigrationVersion reports the schema version of the database at path.
func MigrationVersion(path string) (uint, bool, error) {
	m, err := newMigrator(path)
	if err != nil {
		return 0, false, fmt.Errorf("MigrationVersion: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("MigrationVersion: %w", err)
	}
	return version, dirty, nil
}

func newMigrator(path string) (*migrate.Migrate, error) {
	db, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating driver: %w", err)
	}

	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("reading embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}
