// Package objectcache is the local, rebuildable record of what the Object
// Cache believes exists in the repository: one row per object plus the
// parent/child edges of the Merkle DAG, backed by a local SQLite database.
package objectcache

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite" // registers the "sqlite" driver

	"github.com/backupd/backupd/pkg/apperr"
	"github.com/backupd/backupd/pkg/crypto"
	"github.com/backupd/backupd/pkg/object"
)

// Cache is the local Object Cache: presence of an object row means "this
// object is believed to exist in the repository".
type Cache struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path, enables
// WAL mode, and applies any pending schema migrations.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperr.IOError("open object cache", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, apperr.IOError("enable WAL mode on object cache", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		db.Close()
		return nil, apperr.IOError("enable foreign keys on object cache", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, apperr.Wrap(apperr.ErrCacheCorruption, "apply object cache migrations", err)
	}

	return &Cache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Exists reports whether oid is present in the cache.
func (c *Cache) Exists(ctx context.Context, oid crypto.OID) (bool, error) {
	var count int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM object WHERE obj_id = ?`, oid.String()).Scan(&count)
	if err != nil {
		return false, apperr.IOError("check object existence", err)
	}
	return count > 0, nil
}

// Record inserts oid's object row and its child edges, all in one
// transaction. Calling Record for an already-present oid is idempotent:
// the existing row and its edges are left as they are.
func (c *Cache) Record(ctx context.Context, oid crypto.OID, kind object.Kind, payloadLen, compressedLen int, children []crypto.OID) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.IOError("begin record transaction", err)
	}
	defer tx.Rollback()

	key := oid.String()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO object (obj_id, kind, payload_len, compressed_len, uploaded_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(obj_id) DO NOTHING
	`, key, byte(kind), payloadLen, compressedLen, time.Now().Unix())
	if err != nil {
		return apperr.IOError("insert object row", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return apperr.IOError("insert object row", err)
	}
	if inserted == 0 {
		return nil
	}

	for _, child := range children {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO object_relation (parent_oid, child_oid) VALUES (?, ?)
		`, key, child.String())
		if err != nil {
			return apperr.IOError("insert object relation", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperr.IOError("commit record transaction", err)
	}
	return nil
}

// Children returns the direct children of oid in the relation graph.
func (c *Cache) Children(ctx context.Context, oid crypto.OID) ([]crypto.OID, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT child_oid FROM object_relation WHERE parent_oid = ?
	`, oid.String())
	if err != nil {
		return nil, apperr.IOError("query children", err)
	}
	defer rows.Close()

	var out []crypto.OID
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, apperr.IOError("scan child oid", err)
		}
		child, err := parseOID(h)
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.IOError("iterate children", err)
	}
	return out, nil
}

// Parents returns every object that lists oid as a direct child.
func (c *Cache) Parents(ctx context.Context, oid crypto.OID) ([]crypto.OID, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT parent_oid FROM object_relation WHERE child_oid = ?
	`, oid.String())
	if err != nil {
		return nil, apperr.IOError("query parents", err)
	}
	defer rows.Close()

	var out []crypto.OID
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, apperr.IOError("scan parent oid", err)
		}
		parent, err := parseOID(h)
		if err != nil {
			return nil, err
		}
		out = append(out, parent)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.IOError("iterate parents", err)
	}
	return out, nil
}

// IterAll streams every object id currently in the cache via a single
// cursor, for the garbage collector's full-repository sweep.
func (c *Cache) IterAll(ctx context.Context) func(yield func(crypto.OID, error) bool) {
	return func(yield func(crypto.OID, error) bool) {
		rows, err := c.db.QueryContext(ctx, `SELECT obj_id FROM object`)
		if err != nil {
			yield(crypto.OID{}, apperr.IOError("query all objects", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var h string
			if err := rows.Scan(&h); err != nil {
				yield(crypto.OID{}, apperr.IOError("scan object id", err))
				return
			}
			oid, err := parseOID(h)
			if err != nil {
				if !yield(crypto.OID{}, err) {
					return
				}
				continue
			}
			if !yield(oid, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(crypto.OID{}, apperr.IOError("iterate all objects", err))
		}
	}
}

// Delete removes oid's object row and every relation edge mentioning it.
func (c *Cache) Delete(ctx context.Context, oid crypto.OID) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.IOError("begin delete transaction", err)
	}
	defer tx.Rollback()

	key := oid.String()
	if _, err := tx.ExecContext(ctx, `DELETE FROM object WHERE obj_id = ?`, key); err != nil {
		return apperr.IOError("delete object row", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM object_relation WHERE parent_oid = ? OR child_oid = ?`, key, key); err != nil {
		return apperr.IOError("delete object relations", err)
	}
	if err := tx.Commit(); err != nil {
		return apperr.IOError("commit delete transaction", err)
	}
	return nil
}

func parseOID(s string) (crypto.OID, error) {
	var out crypto.OID
	decoded, err := hex.DecodeString(s)
	if err != nil || len(decoded) != crypto.OIDSize {
		return out, apperr.Wrap(apperr.ErrCacheCorruption, "decode object id", fmt.Errorf("malformed object id %q", s))
	}
	copy(out[:], decoded)
	return out, nil
}
