package objectcache

import (
	"context"
	"strings"
	"time"

	"github.com/backupd/backupd/pkg/apperr"
	"github.com/backupd/backupd/pkg/crypto"
)

// Snapshot describes one named point-in-time backup root.
type Snapshot struct {
	Name      string
	RootOID   crypto.OID
	CreatedAt time.Time
}

// ListSnapshots returns every registered snapshot, most recent first.
func (c *Cache) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name, root_oid, created_at FROM snapshot ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, apperr.IOError("query snapshots", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var name, hex string
		var createdAt int64
		if err := rows.Scan(&name, &hex, &createdAt); err != nil {
			return nil, apperr.IOError("scan snapshot row", err)
		}
		oid, err := parseOID(hex)
		if err != nil {
			return nil, err
		}
		out = append(out, Snapshot{Name: name, RootOID: oid, CreatedAt: time.Unix(createdAt, 0)})
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.IOError("iterate snapshots", err)
	}
	return out, nil
}

// CreateSnapshot registers a new named snapshot rooted at root. The name
// must not already be in use.
func (c *Cache) CreateSnapshot(ctx context.Context, name string, root crypto.OID) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO snapshot (name, root_oid, created_at) VALUES (?, ?, ?)
	`, name, root.String(), time.Now().Unix())
	if err != nil {
		if isUniqueConstraintErr(err) {
			return apperr.AlreadyExists(name)
		}
		return apperr.IOError("insert snapshot", err)
	}
	return nil
}

// RemoveSnapshot deletes the named snapshot. It is idempotent: removing a
// name that was never registered is not an error.
func (c *Cache) RemoveSnapshot(ctx context.Context, name string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM snapshot WHERE name = ?`, name); err != nil {
		return apperr.IOError("delete snapshot", err)
	}
	return nil
}

// LiveRoots returns the root OID of every registered snapshot, satisfying
// the garbage collector's SnapshotRoots dependency.
func (c *Cache) LiveRoots(ctx context.Context) ([]crypto.OID, error) {
	snapshots, err := c.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	roots := make([]crypto.OID, len(snapshots))
	for i, s := range snapshots {
		roots[i] = s.RootOID
	}
	return roots, nil
}

func isUniqueConstraintErr(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "constraint failed")
}
