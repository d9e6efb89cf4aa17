// Package filescache is the per-host Files Cache: one durable row per
// filesystem path under a backup set, tracking the last-successful
// backup OID and the stat tuple it was derived from. The Scanner keeps
// it in sync with the filesystem; the backup walker reads from it and
// writes the obj_id column back once an entry has been serialized.
package filescache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"path/filepath"

	_ "github.com/glebarez/go-sqlite" // registers the "sqlite" driver

	"github.com/backupd/backupd/pkg/apperr"
	"github.com/backupd/backupd/pkg/crypto"
)

// Entry is one row of the fs_entry table. A nil ObjID means dirty: the
// next backup must re-derive this entry's object.
type Entry struct {
	ID        int64
	ParentID  *int64
	Name      string
	ObjID     *crypto.OID
	StMode    *uint32
	StMtimeNs *int64
	StSize    *uint64
	NewFlag   bool
}

// Dirty reports whether the entry needs to be re-backed-up.
func (e Entry) Dirty() bool {
	return e.ObjID == nil
}

// Cache wraps the Files Cache's SQLite database.
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// applies any pending schema migrations.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperr.IOError("open files cache", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, apperr.IOError("enable WAL mode on files cache", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		db.Close()
		return nil, apperr.IOError("enable foreign keys on files cache", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.ErrCacheCorruption, "apply files cache migrations", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// RootEntryID returns the fs_entry id that is the root of the named
// backup set, creating both the root registry row (which records
// rootPath) and the entry row on first use.
func (c *Cache) RootEntryID(ctx context.Context, backupSetName, rootPath string) (int64, error) {
	var entryID int64
	err := c.db.QueryRowContext(ctx, `
		SELECT root_entry_id FROM root WHERE backup_set_name = ?
	`, backupSetName).Scan(&entryID)
	if err == nil {
		return entryID, nil
	}
	if err != sql.ErrNoRows {
		return 0, apperr.IOError("query root registry", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperr.IOError("begin root bootstrap transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO fs_entry (parent_id, name, new_flag) VALUES (NULL, ?, 1)
	`, backupSetName)
	if err != nil {
		return 0, apperr.IOError("insert root entry", err)
	}
	entryID, err = res.LastInsertId()
	if err != nil {
		return 0, apperr.IOError("read root entry id", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO root (backup_set_name, root_entry_id, root_path) VALUES (?, ?, ?)
	`, backupSetName, entryID, rootPath)
	if err != nil {
		return 0, apperr.IOError("insert root registry row", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, apperr.IOError("commit root bootstrap transaction", err)
	}
	return entryID, nil
}

// Get returns the entry with the given id.
func (c *Cache) Get(ctx context.Context, id int64) (Entry, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, parent_id, name, obj_id, st_mode, st_mtime_ns, st_size, new_flag
		FROM fs_entry WHERE id = ?
	`, id)
	return scanEntry(row)
}

// ChildByName returns the child of parentID named name, if any.
func (c *Cache) ChildByName(ctx context.Context, parentID int64, name string) (Entry, bool, error) {
	row := c.db.QueryRowContext(ctx, `
		SELECT id, parent_id, name, obj_id, st_mode, st_mtime_ns, st_size, new_flag
		FROM fs_entry WHERE parent_id = ? AND name = ?
	`, parentID, name)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return entry, true, nil
}

// Children returns every child of parentID.
func (c *Cache) Children(ctx context.Context, parentID int64) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, parent_id, name, obj_id, st_mode, st_mtime_ns, st_size, new_flag
		FROM fs_entry WHERE parent_id = ?
	`, parentID)
	if err != nil {
		return nil, apperr.IOError("query children", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// NewEntries returns every row with new_flag set, across the whole
// cache, loaded into one slice, for a general pass after the scan's first.
func (c *Cache) NewEntries(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, parent_id, name, obj_id, st_mode, st_mtime_ns, st_size, new_flag
		FROM fs_entry WHERE new_flag = 1
	`)
	if err != nil {
		return nil, apperr.IOError("query new entries", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// AllEntries returns every row in the cache, regardless of new_flag,
// loaded into one slice, for a scan's first general pass. A content change that leaves a file's
// parent directory mtime untouched never sets new_flag again, so the
// first pass of each scan must re-examine every known entry to catch it;
// only later passes within the same scan (triggered by entries the first
// pass itself inserted) can narrow to new_flag rows.
func (c *Cache) AllEntries(ctx context.Context) ([]Entry, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, parent_id, name, obj_id, st_mode, st_mtime_ns, st_size, new_flag
		FROM fs_entry
	`)
	if err != nil {
		return nil, apperr.IOError("query all entries", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// InsertChild creates a new child row under parentID. Its stat columns
// start NULL and new_flag is set, per the scan-reconciliation contract.
func (c *Cache) InsertChild(ctx context.Context, parentID int64, name string) (int64, error) {
	res, err := c.db.ExecContext(ctx, `
		INSERT INTO fs_entry (parent_id, name, new_flag) VALUES (?, ?, 1)
	`, parentID, name)
	if err != nil {
		return 0, apperr.IOError("insert child entry", err)
	}
	return res.LastInsertId()
}

// UpdateStat records a fresh stat tuple for id and clears obj_id, since a
// changed stat tuple invalidates the cached object.
func (c *Cache) UpdateStat(ctx context.Context, id int64, mode uint32, mtimeNs int64, size uint64) error {
	_, err := c.db.ExecContext(ctx, `
		UPDATE fs_entry SET st_mode = ?, st_mtime_ns = ?, st_size = ?, obj_id = NULL
		WHERE id = ?
	`, mode, mtimeNs, size, id)
	if err != nil {
		return apperr.IOError("update entry stat", err)
	}
	return nil
}

// ClearNewFlag marks id as having been processed by the current scan pass.
func (c *Cache) ClearNewFlag(ctx context.Context, id int64) error {
	_, err := c.db.ExecContext(ctx, `UPDATE fs_entry SET new_flag = 0 WHERE id = ?`, id)
	if err != nil {
		return apperr.IOError("clear new_flag", err)
	}
	return nil
}

// SetObjID records the OID produced by successfully serializing id.
func (c *Cache) SetObjID(ctx context.Context, id int64, oid crypto.OID) error {
	hex := oid.String()
	_, err := c.db.ExecContext(ctx, `UPDATE fs_entry SET obj_id = ? WHERE id = ?`, hex, id)
	if err != nil {
		return apperr.IOError("set obj_id", err)
	}
	return nil
}

// ClearObjID invalidates id's cached object, marking it dirty.
func (c *Cache) ClearObjID(ctx context.Context, id int64) error {
	_, err := c.db.ExecContext(ctx, `UPDATE fs_entry SET obj_id = NULL WHERE id = ?`, id)
	if err != nil {
		return apperr.IOError("clear obj_id", err)
	}
	return nil
}

// DeleteRecursive removes id and every descendant entry.
func (c *Cache) DeleteRecursive(ctx context.Context, id int64) error {
	children, err := c.Children(ctx, id)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := c.DeleteRecursive(ctx, child.ID); err != nil {
			return err
		}
	}
	if _, err := c.db.ExecContext(ctx, `DELETE FROM fs_entry WHERE id = ?`, id); err != nil {
		return apperr.IOError("delete entry", err)
	}
	return nil
}

// InvalidateAncestors walks up from id's parent clearing obj_id until it
// reaches a root or an ancestor that is already dirty.
func (c *Cache) InvalidateAncestors(ctx context.Context, id int64) error {
	entry, err := c.Get(ctx, id)
	if err != nil {
		return err
	}
	for entry.ParentID != nil {
		parent, err := c.Get(ctx, *entry.ParentID)
		if err != nil {
			return err
		}
		if parent.ObjID == nil {
			return nil
		}
		if err := c.ClearObjID(ctx, parent.ID); err != nil {
			return err
		}
		entry = parent
	}
	return nil
}

// Path reconstructs the absolute filesystem path for entry by walking up
// to rootID via parent_id, joining the names onto rootPath.
func (c *Cache) Path(ctx context.Context, entry Entry, rootPath string, rootID int64) (string, error) {
	if entry.ID == rootID {
		return rootPath, nil
	}
	var segments []string
	cur := entry
	for cur.ID != rootID {
		segments = append([]string{cur.Name}, segments...)
		if cur.ParentID == nil {
			return "", apperr.CacheCorruption("fs_entry chain does not terminate at backup set root")
		}
		parent, err := c.Get(ctx, *cur.ParentID)
		if err != nil {
			return "", err
		}
		cur = parent
	}
	return filepath.Join(append([]string{rootPath}, segments...)...), nil
}

func scanEntry(row *sql.Row) (Entry, error) {
	var e Entry
	var parentID *int64
	var objIDHex *string
	var mode *int64
	var mtimeNs *int64
	var size *int64
	var newFlag int
	err := row.Scan(&e.ID, &parentID, &e.Name, &objIDHex, &mode, &mtimeNs, &size, &newFlag)
	if err != nil {
		return Entry{}, err
	}
	return finishEntry(e, parentID, objIDHex, mode, mtimeNs, size, newFlag)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		var parentID *int64
		var objIDHex *string
		var mode *int64
		var mtimeNs *int64
		var size *int64
		var newFlag int
		if err := rows.Scan(&e.ID, &parentID, &e.Name, &objIDHex, &mode, &mtimeNs, &size, &newFlag); err != nil {
			return nil, apperr.IOError("scan entry row", err)
		}
		entry, err := finishEntry(e, parentID, objIDHex, mode, mtimeNs, size, newFlag)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.IOError("iterate entries", err)
	}
	return out, nil
}

func finishEntry(e Entry, parentID *int64, objIDHex *string, mode, mtimeNs, size *int64, newFlag int) (Entry, error) {
	e.ParentID = parentID
	e.NewFlag = newFlag != 0

	if objIDHex != nil {
		oid, err := decodeOID(*objIDHex)
		if err != nil {
			return Entry{}, err
		}
		e.ObjID = &oid
	}
	if mode != nil {
		m := uint32(*mode)
		e.StMode = &m
	}
	if mtimeNs != nil {
		e.StMtimeNs = mtimeNs
	}
	if size != nil {
		s := uint64(*size)
		e.StSize = &s
	}
	return e, nil
}

func decodeOID(s string) (crypto.OID, error) {
	var out crypto.OID
	decoded, err := hex.DecodeString(s)
	if err != nil || len(decoded) != crypto.OIDSize {
		return out, apperr.CacheCorruption("malformed object id in files cache")
	}
	copy(out[:], decoded)
	return out, nil
}
