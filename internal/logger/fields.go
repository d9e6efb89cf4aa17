package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently across all log statements for log aggregation
// and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Backup Set / Snapshot
	// ========================================================================
	KeyBackupSet = "backup_set" // Backup set name
	KeySnapshot  = "snapshot"   // Snapshot name
	KeyPass      = "pass"       // Scanner pass number

	// ========================================================================
	// Filesystem Scanning
	// ========================================================================
	KeyPath     = "path"      // Absolute filesystem path
	KeyParentID = "parent_id" // FSEntry parent id
	KeyEntryID  = "entry_id"  // FSEntry id
	KeyDirty    = "dirty"     // Whether the entry is dirty (obj_id is NULL)
	KeyNewFlag  = "new_flag"  // Whether the entry is newly discovered this scan

	// ========================================================================
	// Object Model
	// ========================================================================
	KeyOID           = "oid"            // Hex object identifier
	KeyKind          = "kind"           // Object kind: tree, inode, blob
	KeyPayloadLen    = "payload_len"    // Plaintext payload length
	KeyCompressedLen = "compressed_len" // Compressed length on the wire
	KeyChunkOffset   = "chunk_offset"   // Offset of a chunk within a file
	KeyChunkCount    = "chunk_count"    // Number of chunks in a file

	// ========================================================================
	// Upload / Dedup
	// ========================================================================
	KeyDedupHit    = "dedup_hit"    // Object already existed in the cache
	KeyBytesSent   = "bytes_sent"   // Bytes written to the storage backend
	KeyObjectCount = "object_count" // Number of objects affected by an operation

	// ========================================================================
	// Garbage Collection
	// ========================================================================
	KeyLiveObjects   = "live_objects"   // Number of objects marked reachable
	KeyFilterBits    = "filter_bits"    // Bloom filter size in bits
	KeyOrphanCount   = "orphan_count"   // Number of unreachable objects found
	KeyDeletedCount  = "deleted_count"  // Number of objects actually deleted
	KeyFalsePositive = "false_positive" // Configured false-positive rate

	// ========================================================================
	// Storage Backend
	// ========================================================================
	KeyStoreName  = "store_name"  // Named backend identifier
	KeyStoreType  = "store_type"  // Backend type: local, s3, memory
	KeyBucket     = "bucket"      // Cloud bucket name
	KeyAttempt    = "attempt"     // Retry attempt number
	KeyMaxRetries = "max_retries" // Maximum retry attempts

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorCode  = "error_code"  // Numeric error code
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// BackupSet returns a slog.Attr for the backup set name
func BackupSet(name string) slog.Attr {
	return slog.String(KeyBackupSet, name)
}

// Snapshot returns a slog.Attr for the snapshot name
func Snapshot(name string) slog.Attr {
	return slog.String(KeySnapshot, name)
}

// Pass returns a slog.Attr for the scanner pass number
func Pass(n int) slog.Attr {
	return slog.Int(KeyPass, n)
}

// Path returns a slog.Attr for a filesystem path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// OID returns a slog.Attr for a hex object identifier
func OID(hex string) slog.Attr {
	return slog.String(KeyOID, hex)
}

// Kind returns a slog.Attr for an object kind
func Kind(kind fmt.Stringer) slog.Attr {
	return slog.String(KeyKind, kind.String())
}

// DedupHit returns a slog.Attr for a dedup cache hit
func DedupHit(hit bool) slog.Attr {
	return slog.Bool(KeyDedupHit, hit)
}

// BytesSent returns a slog.Attr for bytes written to the backend
func BytesSent(n int64) slog.Attr {
	return slog.Int64(KeyBytesSent, n)
}

// ObjectCount returns a slog.Attr for a count of objects
func ObjectCount(n int) slog.Attr {
	return slog.Int(KeyObjectCount, n)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// StoreName returns a slog.Attr for the named backend identifier
func StoreName(name string) slog.Attr {
	return slog.String(KeyStoreName, name)
}

// StoreType returns a slog.Attr for the backend type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Attempt returns a slog.Attr for a retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}
