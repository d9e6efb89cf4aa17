package filescache

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/backupd/backupd/internal/sqlitemigrate"
	"github.com/backupd/backupd/pkg/filescache/migrations"
)

// runMigrations applies every embedded *.up.sql file to db via
// golang-migrate. See objectcache's migrate.go for why this binds through
// sqlitemigrate.WithInstance rather than golang-migrate's own cgo-bound
// sqlite3 driver.
func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	dbDriver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("bind migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "filescache", dbDriver)
	if err != nil {
		return fmt.Errorf("construct migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply files cache migrations: %w", err)
	}
	return nil
}
