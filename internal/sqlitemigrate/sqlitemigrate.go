// Package sqlitemigrate adapts the pure-Go glebarez/go-sqlite driver to
// golang-migrate's database.Driver interface.
//
// golang-migrate's own sqlite3 driver (database/sqlite3) type-asserts the
// *sql.DB's driver down to mattn/go-sqlite3's cgo binding, which the local
// caches don't use. WithInstance here binds directly to an already-open
// *sql.DB, the same pattern the upstream postgres driver follows, and
// implements versioning and statement execution against a
// schema_migrations table by hand. Locking is a no-op.
package sqlitemigrate

import (
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/golang-migrate/migrate/v4/database"
)

func init() {
	database.Register("sqlitemigrate", &Driver{})
}

// Config names the schema_migrations table. MigrationsTable defaults to
// "schema_migrations" when empty.
type Config struct {
	MigrationsTable string
}

// Driver implements database.Driver directly over an existing *sql.DB.
// SQLite has no advisory lock primitive; Lock/Unlock are no-ops, matching
// upstream golang-migrate's own sqlite3 driver.
type Driver struct {
	db     *sql.DB
	config *Config
}

// WithInstance binds an already-open database/sql handle to db as a
// golang-migrate database.Driver, creating its schema_migrations table if
// absent.
func WithInstance(db *sql.DB, config *Config) (database.Driver, error) {
	if config == nil {
		config = &Config{}
	}
	if config.MigrationsTable == "" {
		config.MigrationsTable = "schema_migrations"
	}

	d := &Driver{db: db, config: config}
	if err := d.ensureVersionTable(); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Driver) ensureVersionTable() error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (version INTEGER NOT NULL, dirty BOOLEAN NOT NULL)`, d.config.MigrationsTable)
	_, err := d.db.Exec(query)
	if err != nil {
		return fmt.Errorf("create %s table: %w", d.config.MigrationsTable, err)
	}
	return nil
}

// Open exists to satisfy database.Driver; this driver is always built via
// WithInstance against a caller-owned *sql.DB, never from a URL.
func (d *Driver) Open(url string) (database.Driver, error) {
	return nil, fmt.Errorf("sqlitemigrate: Open is not supported, use WithInstance")
}

func (d *Driver) Close() error {
	return nil
}

// Lock and Unlock are no-ops: SQLite has no cross-connection advisory
// lock, and every cache is opened by a single process.
func (d *Driver) Lock() error   { return nil }
func (d *Driver) Unlock() error { return nil }

// Run executes migration as a single transaction of semicolon-separated
// statements.
func (d *Driver) Run(migration io.Reader) error {
	data, err := io.ReadAll(migration)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	for _, stmt := range splitStatements(string(data)) {
		if _, err := tx.Exec(stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return tx.Commit()
}

func (d *Driver) SetVersion(version int, dirty bool) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("begin set version transaction: %w", err)
	}
	if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s`, d.config.MigrationsTable)); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear %s: %w", d.config.MigrationsTable, err)
	}
	if version >= 0 {
		query := fmt.Sprintf(`INSERT INTO %s (version, dirty) VALUES (?, ?)`, d.config.MigrationsTable)
		if _, err := tx.Exec(query, version, dirty); err != nil {
			tx.Rollback()
			return fmt.Errorf("record version: %w", err)
		}
	}
	return tx.Commit()
}

func (d *Driver) Version() (version int, dirty bool, err error) {
	query := fmt.Sprintf(`SELECT version, dirty FROM %s LIMIT 1`, d.config.MigrationsTable)
	err = d.db.QueryRow(query).Scan(&version, &dirty)
	if err == sql.ErrNoRows {
		return database.NilVersion, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query version: %w", err)
	}
	return version, dirty, nil
}

// Drop removes every table, trigger, and index this driver's database
// owns, leaving schema_migrations itself so the next Open reports a clean
// NilVersion rather than an empty one.
func (d *Driver) Drop() error {
	rows, err := d.db.Query(`SELECT name FROM sqlite_master WHERE type IN ('table', 'index', 'trigger') AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return fmt.Errorf("list schema objects: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema object: %w", err)
		}
		names = append(names, name)
	}
	rows.Close()

	for _, name := range names {
		if name == d.config.MigrationsTable {
			continue
		}
		if _, err := d.db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %q`, name)); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}
	if _, err := d.db.Exec(fmt.Sprintf(`DELETE FROM %s`, d.config.MigrationsTable)); err != nil {
		return fmt.Errorf("clear %s: %w", d.config.MigrationsTable, err)
	}
	return nil
}

func splitStatements(sqlText string) []string {
	var stmts []string
	for _, part := range strings.Split(sqlText, ";") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			stmts = append(stmts, trimmed)
		}
	}
	return stmts
}
