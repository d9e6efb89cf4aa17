package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for backup operations.
// These follow OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Backup set / snapshot attributes
	// ========================================================================
	AttrBackupSet = "backup.set"
	AttrSnapshot  = "backup.snapshot"
	AttrPass      = "backup.pass"

	// ========================================================================
	// Filesystem scan attributes
	// ========================================================================
	AttrPath     = "fs.path"
	AttrParentID = "fs.parent_id"
	AttrEntryID  = "fs.entry_id"
	AttrDirty    = "fs.dirty"
	AttrNewFlag  = "fs.new_flag"

	// ========================================================================
	// Object model attributes
	// ========================================================================
	AttrOID        = "object.oid"
	AttrObjectKind = "object.kind"
	AttrPayloadLen = "object.payload_len"
	AttrChunkCount = "object.chunk_count"

	// ========================================================================
	// Upload / dedup attributes
	// ========================================================================
	AttrDedupHit    = "upload.dedup_hit"
	AttrBytesSent   = "upload.bytes_sent"
	AttrObjectCount = "upload.object_count"

	// ========================================================================
	// Garbage collection attributes
	// ========================================================================
	AttrLiveObjects   = "gc.live_objects"
	AttrFilterBits    = "gc.filter_bits"
	AttrOrphanCount   = "gc.orphan_count"
	AttrDeletedCount  = "gc.deleted_count"
	AttrFalsePositive = "gc.false_positive_rate"

	// ========================================================================
	// Storage backend attributes
	// ========================================================================
	AttrStoreName = "store.name"
	AttrStoreType = "store.type"
	AttrBucket    = "store.bucket"
	AttrRegion    = "store.region"
	AttrAttempt   = "store.attempt"

	// ========================================================================
	// Cache attributes
	// ========================================================================
	AttrCacheHit   = "cache.hit"
	AttrCacheState = "cache.state"
)

// Span names for operations.
const (
	// Scanner
	SpanScanRun      = "scanner.run"
	SpanScanPass     = "scanner.pass"
	SpanScanReconcile = "scanner.reconcile"
	SpanScanInvalidate = "scanner.invalidate"

	// Backup walker
	SpanBackupRun    = "walker.run"
	SpanBackupVisit  = "walker.visit"
	SpanBackupUpload = "walker.upload"

	// Object model
	SpanObjectEncode = "object.encode"
	SpanObjectDecode = "object.decode"
	SpanObjectSeal   = "object.seal"
	SpanObjectOpen   = "object.open"

	// Object cache / files cache
	SpanCacheLookup = "cache.lookup"
	SpanCacheRecord = "cache.record"
	SpanCacheIterate = "cache.iterate"

	// Storage backend
	SpanStorePut    = "store.put"
	SpanStoreGet    = "store.get"
	SpanStoreDelete = "store.delete"
	SpanStoreList   = "store.list"

	// Garbage collection
	SpanGCRun        = "gc.run"
	SpanGCMark       = "gc.mark"
	SpanGCSweep      = "gc.sweep"

	// Snapshot registry
	SpanSnapshotCreate = "snapshot.create"
	SpanSnapshotList   = "snapshot.list"
	SpanSnapshotRemove = "snapshot.remove"
)

// BackupSet returns an attribute for the backup set name.
func BackupSet(name string) attribute.KeyValue {
	return attribute.String(AttrBackupSet, name)
}

// Snapshot returns an attribute for the snapshot name.
func Snapshot(name string) attribute.KeyValue {
	return attribute.String(AttrSnapshot, name)
}

// Pass returns an attribute for the scanner pass number.
func Pass(n int) attribute.KeyValue {
	return attribute.Int(AttrPass, n)
}

// Path returns an attribute for a filesystem path.
func Path(p string) attribute.KeyValue {
	return attribute.String(AttrPath, p)
}

// OID returns an attribute for a hex object identifier.
func OID(hex string) attribute.KeyValue {
	return attribute.String(AttrOID, hex)
}

// ObjectKind returns an attribute for an object kind (tree, inode, blob).
func ObjectKind(kind string) attribute.KeyValue {
	return attribute.String(AttrObjectKind, kind)
}

// DedupHit returns an attribute for a dedup cache hit.
func DedupHit(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrDedupHit, hit)
}

// BytesSent returns an attribute for bytes written to the backend.
func BytesSent(n int64) attribute.KeyValue {
	return attribute.Int64(AttrBytesSent, n)
}

// ObjectCount returns an attribute for a count of objects.
func ObjectCount(n int) attribute.KeyValue {
	return attribute.Int(AttrObjectCount, n)
}

// LiveObjects returns an attribute for the number of objects marked reachable
// during a garbage collection mark pass.
func LiveObjects(n int) attribute.KeyValue {
	return attribute.Int(AttrLiveObjects, n)
}

// FilterBits returns an attribute for the Bloom filter size in bits.
func FilterBits(n int) attribute.KeyValue {
	return attribute.Int(AttrFilterBits, n)
}

// OrphanCount returns an attribute for the number of unreachable objects found.
func OrphanCount(n int) attribute.KeyValue {
	return attribute.Int(AttrOrphanCount, n)
}

// DeletedCount returns an attribute for the number of objects deleted.
func DeletedCount(n int) attribute.KeyValue {
	return attribute.Int(AttrDeletedCount, n)
}

// CacheHit returns an attribute for cache hit indicator.
func CacheHit(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// StoreName returns an attribute for the named backend identifier.
func StoreName(name string) attribute.KeyValue {
	return attribute.String(AttrStoreName, name)
}

// StoreType returns an attribute for the backend type (local, s3, memory).
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// Bucket returns an attribute for a cloud storage bucket name.
func Bucket(name string) attribute.KeyValue {
	return attribute.String(AttrBucket, name)
}

// Region returns an attribute for a cloud storage region.
func Region(region string) attribute.KeyValue {
	return attribute.String(AttrRegion, region)
}

// Attempt returns an attribute for a retry attempt number.
func Attempt(n int) attribute.KeyValue {
	return attribute.Int(AttrAttempt, n)
}

// StartScanSpan starts a span for a scanner pass over a backup set.
func StartScanSpan(ctx context.Context, backupSet string, pass int, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{BackupSet(backupSet), Pass(pass)}, attrs...)
	return StartSpan(ctx, SpanScanPass, trace.WithAttributes(allAttrs...))
}

// StartBackupSpan starts a span for a backup walk of a backup set.
func StartBackupSpan(ctx context.Context, backupSet string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{BackupSet(backupSet)}, attrs...)
	return StartSpan(ctx, SpanBackupRun, trace.WithAttributes(allAttrs...))
}

// StartStoreSpan starts a span for a storage backend operation.
func StartStoreSpan(ctx context.Context, operation, storeName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{StoreName(storeName)}, attrs...)
	return StartSpan(ctx, operation, trace.WithAttributes(allAttrs...))
}

// StartGCSpan starts a span for a garbage collection phase.
func StartGCSpan(ctx context.Context, phase string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, phase, trace.WithAttributes(attrs...))
}
