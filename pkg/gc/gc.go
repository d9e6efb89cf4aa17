// Package gc implements the two-pass, Bloom-filter-backed garbage
// collector: mark every OID reachable from a live snapshot root, then
// sweep the Object Cache and delete anything the filter didn't mark.
package gc

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/holiman/bloomfilter/v2"

	"github.com/backupd/backupd/internal/logger"
	"github.com/backupd/backupd/pkg/apperr"
	"github.com/backupd/backupd/pkg/crypto"
	"github.com/backupd/backupd/pkg/metrics"
	"github.com/backupd/backupd/pkg/storage"
)

// oidHash adapts a pre-folded uint64 key to hash.Hash64, the type
// bloomfilter.Filter.Add and .Contains require. The OID is already a
// uniformly random MAC output, so there's nothing further to hash; this
// just satisfies the interface the library expects.
type oidHash uint64

func (h oidHash) Write(p []byte) (int, error) { return len(p), nil }
func (h oidHash) Sum(b []byte) []byte         { return b }
func (h oidHash) Reset()                      {}
func (h oidHash) Size() int                   { return 8 }
func (h oidHash) BlockSize() int              { return 8 }
func (h oidHash) Sum64() uint64               { return uint64(h) }

// falsePositiveRate is the target false-positive rate for the reachability
// filter. A false positive retains at most this fraction of garbage for a
// future GC pass; it never causes a live object to be deleted.
const falsePositiveRate = 0.05

// ObjectCache is the subset of the Object Cache and Relations component
// this package needs: walking the reachability graph and streaming every
// known OID.
type ObjectCache interface {
	// Children streams the OIDs directly referenced by oid.
	Children(ctx context.Context, oid crypto.OID) ([]crypto.OID, error)

	// IterAll streams every OID currently recorded in the cache.
	IterAll(ctx context.Context) func(yield func(crypto.OID, error) bool)

	// Delete removes oid's cache row.
	Delete(ctx context.Context, oid crypto.OID) error
}

// SnapshotRoots is the subset of the Snapshot Registry this package needs:
// the root OID of every live snapshot, the starting set for Pass 1.
type SnapshotRoots interface {
	LiveRoots(ctx context.Context) ([]crypto.OID, error)
}

// Stats summarizes one garbage collection run.
type Stats struct {
	LiveObjects  int // distinct OIDs marked reachable in Pass 1
	Scanned      int // OIDs examined during the Pass 2 sweep
	OrphanCount  int // OIDs not marked reachable
	DeletedCount int // OIDs actually deleted (storage + cache)
	FilterBits   uint64
	Errors       int
}

// Options configures a garbage collection run.
type Options struct {
	// DryRun reports orphans without deleting anything.
	DryRun bool

	// Metrics receives observability events for this run. Nil disables
	// collection with zero overhead.
	Metrics metrics.GCMetrics
}

// Run performs one full garbage collection pass: Pass 1 marks every OID
// reachable from a live snapshot root in a Bloom filter sized for the
// live object count at a 5% false-positive rate; Pass 2 streams the
// Object Cache and deletes anything the filter didn't mark.
func Run(ctx context.Context, cache ObjectCache, roots SnapshotRoots, backend storage.Backend, opts Options) (*Stats, error) {
	stats := &Stats{}

	markStart := time.Now()
	live, err := mark(ctx, cache, roots)
	if err != nil {
		return stats, err
	}
	stats.LiveObjects = len(live)

	size := filterSize(len(live))
	stats.FilterBits = size
	filter, err := bloomfilter.New(size, numHashes)
	if err != nil {
		return stats, apperr.Wrap(apperr.ErrInvalidArgument, "construct reachability filter", err)
	}
	for oid := range live {
		filter.Add(oidHash(bloomKey(oid)))
		metrics.RecordMarked(opts.Metrics)
	}
	metrics.RecordFalsePositiveBudget(opts.Metrics, falsePositiveRate)
	markDuration := time.Since(markStart)

	logger.Info("gc: pass 1 complete", "liveObjects", stats.LiveObjects, "filterBits", size)

	sweepStart := time.Now()
	for oid, err := range cache.IterAll(ctx) {
		if err != nil {
			stats.Errors++
			logger.Error("gc: iter_all failed", logger.Err(err))
			continue
		}

		stats.Scanned++
		if filter.Contains(oidHash(bloomKey(oid))) {
			continue
		}

		stats.OrphanCount++
		if opts.DryRun {
			continue
		}

		reclaimed := 0
		if data, err := backend.Get(ctx, "objects/"+oid.String()); err == nil {
			reclaimed = len(data)
		}

		if err := deleteObject(ctx, cache, backend, oid); err != nil {
			stats.Errors++
			logger.Error("gc: delete failed", logger.OID(oid.String()), logger.Err(err))
			continue
		}
		stats.DeletedCount++
		metrics.RecordSwept(opts.Metrics, reclaimed)
	}
	sweepDuration := time.Since(sweepStart)
	metrics.ObserveRun(opts.Metrics, markDuration, sweepDuration)

	logger.Info("gc: pass 2 complete",
		"scanned", stats.Scanned,
		"orphans", stats.OrphanCount,
		"deleted", stats.DeletedCount,
		"errors", stats.Errors)

	return stats, nil
}

// mark performs Pass 1: a BFS over ObjectRelation edges starting from
// every live snapshot root, returning the full set of reachable OIDs.
func mark(ctx context.Context, cache ObjectCache, roots SnapshotRoots) (map[crypto.OID]struct{}, error) {
	rootOIDs, err := roots.LiveRoots(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrIO, "list live snapshot roots", err)
	}

	seen := make(map[crypto.OID]struct{}, len(rootOIDs))
	queue := append([]crypto.OID{}, rootOIDs...)
	for _, r := range rootOIDs {
		seen[r] = struct{}{}
	}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Cancelled()
		}

		oid := queue[0]
		queue = queue[1:]

		children, err := cache.Children(ctx, oid)
		if err != nil {
			return nil, apperr.Wrap(apperr.ErrCacheCorruption, "list children of "+oid.String(), err)
		}
		for _, c := range children {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			queue = append(queue, c)
		}
	}

	return seen, nil
}

// deleteObject removes oid from the storage backend first, then the
// cache, so a crash between the two steps leaves the cache entry in
// place for the next GC run to retry rather than orphaning a dangling
// cache row.
func deleteObject(ctx context.Context, cache ObjectCache, backend storage.Backend, oid crypto.OID) error {
	if err := backend.Delete(ctx, "objects/"+oid.String()); err != nil {
		return err
	}
	return cache.Delete(ctx, oid)
}

// numHashes is the number of hash functions the reachability filter
// uses, a standard choice for a 5% target false-positive rate.
const numHashes = 4

// filterSize returns a filter bit count sized for n live objects at
// falsePositiveRate, per the standard optimal-bitset-size formula
// m = -n*ln(p) / (ln(2)^2), rounded up and floored at a small minimum so
// an empty repository still gets a usable filter.
func filterSize(n int) uint64 {
	if n == 0 {
		return 1024
	}
	// ln(2)^2 ~= 0.4805, -ln(0.05) ~= 2.9957
	const bitsPerElement = 2.9957 / 0.4805
	size := uint64(float64(n) * bitsPerElement)
	if size < 1024 {
		size = 1024
	}
	return size
}

// bloomKey derives the filter's hash input from an OID by XOR-folding it
// down to a uint64. The OID is already a uniformly random MAC output, so
// folding it is sufficient entropy for the filter's own internal
// hashing.
func bloomKey(oid crypto.OID) uint64 {
	var folded [8]byte
	for i := 0; i < len(oid); i++ {
		folded[i%8] ^= oid[i]
	}
	return binary.LittleEndian.Uint64(folded[:])
}
