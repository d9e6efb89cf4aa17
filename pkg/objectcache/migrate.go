package objectcache

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/backupd/backupd/internal/sqlitemigrate"
	"github.com/backupd/backupd/pkg/objectcache/migrations"
)

// runMigrations applies every embedded *.up.sql file to db via
// golang-migrate, tracked by a schema_migrations table so re-opening an
// existing cache is a no-op. golang-migrate's own sqlite3 driver
// type-asserts the *sql.DB's driver down to mattn/go-sqlite3's cgo
// binding, which conflicts with the pure-Go glebarez/go-sqlite stack used
// here, so sqlitemigrate.WithInstance binds golang-migrate directly to
// the already-open *sql.DB instead of going through a driver URL.
func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	dbDriver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("bind migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "objectcache", dbDriver)
	if err != nil {
		return fmt.Errorf("construct migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply object cache migrations: %w", err)
	}
	return nil
}
