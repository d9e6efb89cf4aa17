// Package local implements a storage.Backend backed by a local directory,
// one file per key.
package local

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/backupd/backupd/pkg/apperr"
)

// Backend is a directory-backed storage.Backend. Keys map directly to
// file paths relative to the root directory; Put writes to a temporary
// file and renames it into place so a concurrent Get never observes a
// partially-written object.
type Backend struct {
	mu       sync.RWMutex
	root     string
	dirMode  os.FileMode
	fileMode os.FileMode
}

// Config holds configuration for the local directory backend.
type Config struct {
	// Root is the directory under which every key is stored.
	Root string

	// CreateDir creates Root if it doesn't already exist. Default: true.
	CreateDir bool

	// DirMode is the permission mode for created directories.
	DirMode os.FileMode

	// FileMode is the permission mode for written files.
	FileMode os.FileMode
}

// DefaultConfig returns the default configuration for root.
func DefaultConfig(root string) Config {
	return Config{
		Root:      root,
		CreateDir: true,
		DirMode:   0o755,
		FileMode:  0o644,
	}
}

// New creates a local directory backend rooted at cfg.Root.
func New(cfg Config) (*Backend, error) {
	if cfg.Root == "" {
		return nil, apperr.InvalidArgument("local backend requires a root directory")
	}
	if cfg.DirMode == 0 {
		cfg.DirMode = 0o755
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0o644
	}

	if cfg.CreateDir {
		if err := os.MkdirAll(cfg.Root, cfg.DirMode); err != nil {
			return nil, apperr.IOError(cfg.Root, err)
		}
	}

	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, apperr.IOError(cfg.Root, err)
	}
	if !info.IsDir() {
		return nil, apperr.InvalidArgument("root is not a directory: " + cfg.Root)
	}

	return &Backend{root: cfg.Root, dirMode: cfg.DirMode, fileMode: cfg.FileMode}, nil
}

func (b *Backend) path(key string) string {
	return filepath.Join(b.root, filepath.FromSlash(key))
}

// Put writes data under key, atomically.
func (b *Backend) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return apperr.Cancelled()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	path := b.path(key)
	if err := os.MkdirAll(filepath.Dir(path), b.dirMode); err != nil {
		return apperr.IOError(key, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, b.fileMode); err != nil {
		return apperr.IOError(key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperr.IOError(key, err)
	}
	return nil
}

// Get reads the bytes stored under key.
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Cancelled()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := os.ReadFile(b.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound(key)
		}
		return nil, apperr.IOError(key, err)
	}
	return data, nil
}

// Delete removes key. Not an error if key does not exist.
func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Cancelled()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	path := b.path(key)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return apperr.IOError(key, err)
	}
	b.cleanEmptyDirs(filepath.Dir(path))
	return nil
}

// cleanEmptyDirs removes now-empty directories up to root, so Delete of
// the last object under a prefix doesn't leave an empty directory tree.
func (b *Backend) cleanEmptyDirs(dir string) {
	for dir != b.root && strings.HasPrefix(dir, b.root) {
		if err := os.Remove(dir); err != nil {
			break
		}
		dir = filepath.Dir(dir)
	}
}

// List returns a lazy iterator over keys with the given prefix.
func (b *Backend) List(ctx context.Context, prefix string) func(yield func(string, error) bool) {
	return func(yield func(string, error) bool) {
		b.mu.RLock()
		defer b.mu.RUnlock()

		prefixPath := b.path(prefix)

		if _, err := os.Stat(prefixPath); err != nil {
			if os.IsNotExist(err) {
				return
			}
			yield("", apperr.IOError(prefix, err))
			return
		}

		var keys []string
		walkErr := filepath.WalkDir(prefixPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || strings.HasSuffix(path, ".tmp") {
				return nil
			}
			rel, err := filepath.Rel(b.root, path)
			if err != nil {
				return err
			}
			keys = append(keys, filepath.ToSlash(rel))
			return nil
		})
		if walkErr != nil {
			yield("", apperr.IOError(prefix, walkErr))
			return
		}

		sort.Strings(keys)
		for _, k := range keys {
			if err := ctx.Err(); err != nil {
				yield("", apperr.Cancelled())
				return
			}
			if !yield(k, nil) {
				return
			}
		}
	}
}
