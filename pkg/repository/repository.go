// Package repository wires the engine's components together: the two
// SQLite caches, the storage backend selected by configuration, the
// crypto provider loaded from the local keyfile mirror, and the
// Scanner/Walker/GC operations that run against them.
//
// This is the equivalent of the server's top-level store/service wiring:
// everything downstream of config loading and logger/telemetry/metrics
// initialization, collapsed into one long-lived handle an operator-facing
// front end (cmd/backupctl) can construct once and drive.
package repository

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/backupd/backupd/internal/logger"
	"github.com/backupd/backupd/pkg/apperr"
	"github.com/backupd/backupd/pkg/chunk"
	"github.com/backupd/backupd/pkg/config"
	"github.com/backupd/backupd/pkg/crypto"
	"github.com/backupd/backupd/pkg/filescache"
	"github.com/backupd/backupd/pkg/gc"
	"github.com/backupd/backupd/pkg/metrics"
	"github.com/backupd/backupd/pkg/objectcache"
	"github.com/backupd/backupd/pkg/storage"
	"github.com/backupd/backupd/pkg/storage/local"
	"github.com/backupd/backupd/pkg/storage/memory"
	"github.com/backupd/backupd/pkg/storage/s3"
	"github.com/backupd/backupd/pkg/walker"
)

// Repository is the open handle on one backup repository: its two caches,
// its storage backend, its crypto provider, and the components that
// operate over them.
type Repository struct {
	cfg     *config.Config
	objects *objectcache.Cache
	files   *filescache.Cache
	backend storage.Backend
	crypto  *crypto.Provider
	scanner *filescache.Scanner
	walker  *walker.Walker
}

// Open loads cfg's keyfile, opens both caches, constructs the configured
// storage backend, and returns a ready Repository. password is ignored
// when cfg.Crypto.Unattended is true.
func Open(ctx context.Context, cfg *config.Config, password string) (*Repository, error) {
	kf, err := crypto.LoadKeyFile(cfg.Crypto.KeyFile)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "load key file", err)
	}

	var provider *crypto.Provider
	if cfg.Crypto.Unattended {
		provider = crypto.NewSealerFromKeyFile(kf)
	} else {
		provider, err = crypto.NewProviderFromKeyFile(kf, password)
		if err != nil {
			return nil, err
		}
	}

	objects, err := objectcache.Open(filepath.Join(cfg.Cache.Dir, "objects.db"))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "open object cache", err)
	}

	files, err := filescache.Open(filepath.Join(cfg.Cache.Dir, "files.db"))
	if err != nil {
		objects.Close()
		return nil, apperr.Wrap(apperr.ErrIO, "open files cache", err)
	}

	backend, err := newBackend(ctx, cfg.Storage)
	if err != nil {
		objects.Close()
		files.Close()
		return nil, err
	}

	chunker := chunk.New(cfg.Chunker.ChunkSize.Uint64(), cfg.Chunker.MinChunkable.Uint64())

	scanMetrics := metrics.NewScanMetrics()
	walkMetrics := metrics.NewWalkMetrics()

	return &Repository{
		cfg:     cfg,
		objects: objects,
		files:   files,
		backend: backend,
		crypto:  provider,
		scanner: filescache.NewScanner(files, scanMetrics),
		walker:  walker.New(backend, objects, files, provider, chunker, cfg.Walker.Concurrency, walkMetrics),
	}, nil
}

// Close releases both caches' underlying database connections.
func (r *Repository) Close() error {
	filesErr := r.files.Close()
	objectsErr := r.objects.Close()
	if filesErr != nil {
		return filesErr
	}
	return objectsErr
}

// Scan runs one Files Cache reconciliation pass for the named backup set.
func (r *Repository) Scan(ctx context.Context, backupSetName string) error {
	root, err := r.resolveRoot(backupSetName)
	if err != nil {
		return err
	}
	return r.scanner.Scan(ctx, backupSetName, root)
}

// Backup serializes and uploads every dirty entry for the named backup
// set, then records a new snapshot pointing at the resulting root OID.
func (r *Repository) Backup(ctx context.Context, backupSetName string) (crypto.OID, error) {
	root, err := r.resolveRoot(backupSetName)
	if err != nil {
		return crypto.OID{}, err
	}

	oid, err := r.walker.Backup(ctx, backupSetName, root)
	if err != nil {
		return crypto.OID{}, err
	}

	snapshotName := snapshotName(backupSetName, oid)
	if err := r.objects.CreateSnapshot(ctx, snapshotName, oid); err != nil {
		return crypto.OID{}, err
	}
	logger.InfoCtx(ctx, "repository: backup complete",
		logger.BackupSet(backupSetName), logger.Snapshot(snapshotName), logger.OID(oid.String()))
	return oid, nil
}

// ListSnapshots returns every recorded snapshot, most recent first.
func (r *Repository) ListSnapshots(ctx context.Context) ([]objectcache.Snapshot, error) {
	return r.objects.ListSnapshots(ctx)
}

// RemoveSnapshot deletes a snapshot's registry entry, without touching
// any object it references; a subsequent GC run reclaims anything that
// becomes unreachable as a result.
func (r *Repository) RemoveSnapshot(ctx context.Context, name string) error {
	return r.objects.RemoveSnapshot(ctx, name)
}

// GC runs one garbage collection pass over the object cache and storage
// backend.
func (r *Repository) GC(ctx context.Context, dryRun bool) (*gc.Stats, error) {
	return gc.Run(ctx, r.objects, r.objects, r.backend, gc.Options{
		DryRun:  dryRun,
		Metrics: metrics.NewGCMetrics(),
	})
}

func (r *Repository) resolveRoot(backupSetName string) (string, error) {
	for _, set := range r.cfg.BackupSets {
		if set.Name == backupSetName {
			return set.Root, nil
		}
	}
	return "", apperr.NotFound(backupSetName)
}

func snapshotName(backupSetName string, oid crypto.OID) string {
	return fmt.Sprintf("%s-%s", backupSetName, oid.String()[:12])
}

func newBackend(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Driver {
	case "local":
		return local.New(local.DefaultConfig(cfg.Local.Root))
	case "s3":
		return s3.NewFromConfig(ctx, s3.Config{
			Bucket:         cfg.S3.Bucket,
			Region:         cfg.S3.Region,
			Endpoint:       cfg.S3.Endpoint,
			KeyPrefix:      cfg.S3.KeyPrefix,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
	case "memory":
		return memory.New(), nil
	default:
		return nil, apperr.InvalidArgument("unknown storage driver: " + cfg.Driver)
	}
}
