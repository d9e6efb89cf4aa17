package filescache

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/backupd/backupd/pkg/apperr"
	"github.com/backupd/backupd/pkg/metrics"
)

// Scanner keeps the Files Cache in sync with a backup set's filesystem
// root via the multi-pass algorithm: pass 0 bootstraps the root, the
// general pass reconciles every known entry on its first iteration and
// only new_flag entries thereafter, and a final invalidation sweep
// propagates dirtiness up to ancestors.
type Scanner struct {
	cache   *Cache
	metrics metrics.ScanMetrics
}

// NewScanner returns a Scanner operating against cache. m may be nil to
// disable metrics collection.
func NewScanner(cache *Cache, m metrics.ScanMetrics) *Scanner {
	return &Scanner{cache: cache, metrics: m}
}

// Scan runs one full scan pass over backupSetName rooted at rootPath:
// pass 0 bootstrap, a full-table general pass, repeated new_flag-only
// general passes until none remain, then the invalidation sweep.
func (s *Scanner) Scan(ctx context.Context, backupSetName, rootPath string) error {
	start := time.Now()
	err := s.scan(ctx, backupSetName, rootPath)
	metrics.ObserveScan(s.metrics, backupSetName, time.Since(start))
	return err
}

func (s *Scanner) scan(ctx context.Context, backupSetName, rootPath string) error {
	rootID, err := s.cache.RootEntryID(ctx, backupSetName, rootPath)
	if err != nil {
		return err
	}

	root, err := s.cache.Get(ctx, rootID)
	if err != nil {
		return err
	}
	if root.StMode == nil {
		if err := s.bootstrapRoot(ctx, rootID, rootPath); err != nil {
			return err
		}
	}

	dirtied := make(map[int64]bool)
	firstPass := true
	for {
		if err := ctx.Err(); err != nil {
			return apperr.Cancelled()
		}

		var pending []Entry
		var err error
		if firstPass {
			// The first general pass of every scan re-examines every known
			// entry, not just new_flag ones: a leaf file's content can
			// change without its parent directory's mtime changing, so
			// new_flag alone would never surface that change again.
			pending, err = s.cache.AllEntries(ctx)
		} else {
			pending, err = s.cache.NewEntries(ctx)
		}
		firstPass = false
		if err != nil {
			return err
		}
		if len(pending) == 0 {
			break
		}

		for _, entry := range pending {
			if err := s.reconcile(ctx, entry, rootPath, rootID, dirtied); err != nil {
				return err
			}
		}
	}

	for id := range dirtied {
		if err := s.cache.InvalidateAncestors(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// bootstrapRoot performs pass 0: stat the root entry, clear its new_flag,
// and insert its children.
func (s *Scanner) bootstrapRoot(ctx context.Context, rootID int64, rootPath string) error {
	info, err := os.Lstat(rootPath)
	if err != nil {
		return apperr.FSError(rootPath, err)
	}
	mode, mtimeNs, size := statFields(info)
	if err := s.cache.UpdateStat(ctx, rootID, mode, mtimeNs, size); err != nil {
		return err
	}
	if err := s.cache.ClearNewFlag(ctx, rootID); err != nil {
		return err
	}
	if info.IsDir() {
		if err := s.reconcileChildren(ctx, rootID, rootPath); err != nil {
			return err
		}
	}
	return nil
}

// reconcile applies one entry's general-pass step: lstat, compare,
// possibly delete or re-list, then clear new_flag.
func (s *Scanner) reconcile(ctx context.Context, entry Entry, rootPath string, rootID int64, dirtied map[int64]bool) error {
	start := time.Now()
	defer func() { metrics.ObserveReconcile(s.metrics, time.Since(start)) }()

	path, err := s.entryPath(ctx, entry, rootPath, rootID)
	if err != nil {
		return err
	}

	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		if entry.ParentID != nil {
			dirtied[*entry.ParentID] = true
		}
		metrics.RecordEntryDeleted(s.metrics)
		return s.cache.DeleteRecursive(ctx, entry.ID)
	}
	if err != nil {
		return apperr.FSError(path, err)
	}

	mode, mtimeNs, size := statFields(info)
	changed := entry.StMode == nil || *entry.StMode != mode ||
		entry.StMtimeNs == nil || *entry.StMtimeNs != mtimeNs ||
		entry.StSize == nil || *entry.StSize != size

	mtimeChanged := entry.StMtimeNs == nil || *entry.StMtimeNs != mtimeNs

	if changed {
		if err := s.cache.UpdateStat(ctx, entry.ID, mode, mtimeNs, size); err != nil {
			return err
		}
		dirtied[entry.ID] = true
		metrics.RecordEntryDirtied(s.metrics)
	}

	if info.IsDir() && mtimeChanged {
		if err := s.reconcileChildren(ctx, entry.ID, path); err != nil {
			return err
		}
	}

	return s.cache.ClearNewFlag(ctx, entry.ID)
}

// reconcileChildren lists dirPath and reconciles the fs_entry children of
// parentID against it: new names are inserted with new_flag set, and
// names no longer present are deleted (recursively).
func (s *Scanner) reconcileChildren(ctx context.Context, parentID int64, dirPath string) error {
	names, err := listDirNames(dirPath)
	if err != nil {
		return apperr.FSError(dirPath, err)
	}
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}

	existing, err := s.cache.Children(ctx, parentID)
	if err != nil {
		return err
	}
	existingByName := make(map[string]Entry, len(existing))
	for _, e := range existing {
		existingByName[e.Name] = e
	}

	for _, name := range names {
		if _, ok := existingByName[name]; !ok {
			if _, err := s.cache.InsertChild(ctx, parentID, name); err != nil {
				return err
			}
			metrics.RecordEntryInserted(s.metrics)
		}
	}

	for name, e := range existingByName {
		if !present[name] {
			if err := s.cache.DeleteRecursive(ctx, e.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// entryPath reconstructs the absolute filesystem path for entry by
// walking up to the root via parent_id.
func (s *Scanner) entryPath(ctx context.Context, entry Entry, rootPath string, rootID int64) (string, error) {
	return s.cache.Path(ctx, entry, rootPath, rootID)
}

func listDirNames(dirPath string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}

func statFields(info os.FileInfo) (mode uint32, mtimeNs int64, size uint64) {
	mode = uint32(info.Mode())
	size = uint64(info.Size())
	if sys, ok := info.Sys().(*syscall.Stat_t); ok {
		mtimeNs = sys.Mtim.Sec*1_000_000_000 + sys.Mtim.Nsec
	} else {
		mtimeNs = info.ModTime().UnixNano()
	}
	return mode, mtimeNs, size
}
