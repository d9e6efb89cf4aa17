package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "backupd", cfg.ServiceName)
	assert.Equal(t, "dev", cfg.ServiceVersion)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.Enabled = false

	shutdown, err := Init(ctx, cfg)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	err = shutdown(ctx)
	assert.NoError(t, err)

	assert.False(t, IsEnabled())
}

func TestTracerReturnsNoOp(t *testing.T) {
	tracer = nil
	enabled = false

	tr := Tracer()
	require.NotNil(t, tr)
}

func TestStartSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartSpan(ctx, "test.operation")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)

	span.End()
}

func TestSpanFromContext(t *testing.T) {
	ctx := context.Background()

	span := SpanFromContext(ctx)
	require.NotNil(t, span)
}

func TestAddEvent(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		AddEvent(ctx, "test.event")
	})
}

func TestRecordError(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		RecordError(ctx, nil)
	})

	require.NotPanics(t, func() {
		RecordError(ctx, errors.New("test error"))
	})
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Ok, "success")
	})

	require.NotPanics(t, func() {
		SetStatus(ctx, codes.Error, "failed")
	})
}

func TestSetAttributes(t *testing.T) {
	ctx := context.Background()

	require.NotPanics(t, func() {
		SetAttributes(ctx, BackupSet("photos"))
	})
}

func TestTraceID(t *testing.T) {
	ctx := context.Background()

	traceID := TraceID(ctx)
	assert.Equal(t, "", traceID)
}

func TestSpanID(t *testing.T) {
	ctx := context.Background()

	spanID := SpanID(ctx)
	assert.Equal(t, "", spanID)
}

func TestAttributeHelpers(t *testing.T) {
	t.Run("BackupSet", func(t *testing.T) {
		attr := BackupSet("photos")
		assert.Equal(t, AttrBackupSet, string(attr.Key))
		assert.Equal(t, "photos", attr.Value.AsString())
	})

	t.Run("Snapshot", func(t *testing.T) {
		attr := Snapshot("2026-07-31T00:00:00Z")
		assert.Equal(t, AttrSnapshot, string(attr.Key))
		assert.Equal(t, "2026-07-31T00:00:00Z", attr.Value.AsString())
	})

	t.Run("Pass", func(t *testing.T) {
		attr := Pass(2)
		assert.Equal(t, AttrPass, string(attr.Key))
		assert.Equal(t, int64(2), attr.Value.AsInt64())
	})

	t.Run("Path", func(t *testing.T) {
		attr := Path("/home/user/photos/beach.jpg")
		assert.Equal(t, AttrPath, string(attr.Key))
		assert.Equal(t, "/home/user/photos/beach.jpg", attr.Value.AsString())
	})

	t.Run("OID", func(t *testing.T) {
		attr := OID("deadbeef")
		assert.Equal(t, AttrOID, string(attr.Key))
		assert.Equal(t, "deadbeef", attr.Value.AsString())
	})

	t.Run("ObjectKind", func(t *testing.T) {
		attr := ObjectKind("blob")
		assert.Equal(t, AttrObjectKind, string(attr.Key))
		assert.Equal(t, "blob", attr.Value.AsString())
	})

	t.Run("DedupHit", func(t *testing.T) {
		attr := DedupHit(true)
		assert.Equal(t, AttrDedupHit, string(attr.Key))
		assert.True(t, attr.Value.AsBool())
	})

	t.Run("BytesSent", func(t *testing.T) {
		attr := BytesSent(4096)
		assert.Equal(t, AttrBytesSent, string(attr.Key))
		assert.Equal(t, int64(4096), attr.Value.AsInt64())
	})

	t.Run("ObjectCount", func(t *testing.T) {
		attr := ObjectCount(12)
		assert.Equal(t, AttrObjectCount, string(attr.Key))
		assert.Equal(t, int64(12), attr.Value.AsInt64())
	})

	t.Run("LiveObjects", func(t *testing.T) {
		attr := LiveObjects(900)
		assert.Equal(t, AttrLiveObjects, string(attr.Key))
		assert.Equal(t, int64(900), attr.Value.AsInt64())
	})

	t.Run("FilterBits", func(t *testing.T) {
		attr := FilterBits(1 << 20)
		assert.Equal(t, AttrFilterBits, string(attr.Key))
		assert.Equal(t, int64(1<<20), attr.Value.AsInt64())
	})

	t.Run("OrphanCount", func(t *testing.T) {
		attr := OrphanCount(3)
		assert.Equal(t, AttrOrphanCount, string(attr.Key))
		assert.Equal(t, int64(3), attr.Value.AsInt64())
	})

	t.Run("DeletedCount", func(t *testing.T) {
		attr := DeletedCount(3)
		assert.Equal(t, AttrDeletedCount, string(attr.Key))
		assert.Equal(t, int64(3), attr.Value.AsInt64())
	})

	t.Run("CacheHit", func(t *testing.T) {
		attr := CacheHit(true)
		assert.Equal(t, AttrCacheHit, string(attr.Key))
		assert.True(t, attr.Value.AsBool())
	})

	t.Run("StoreName", func(t *testing.T) {
		attr := StoreName("primary")
		assert.Equal(t, AttrStoreName, string(attr.Key))
		assert.Equal(t, "primary", attr.Value.AsString())
	})

	t.Run("StoreType", func(t *testing.T) {
		attr := StoreType("s3")
		assert.Equal(t, AttrStoreType, string(attr.Key))
		assert.Equal(t, "s3", attr.Value.AsString())
	})

	t.Run("Bucket", func(t *testing.T) {
		attr := Bucket("my-bucket")
		assert.Equal(t, AttrBucket, string(attr.Key))
		assert.Equal(t, "my-bucket", attr.Value.AsString())
	})

	t.Run("Region", func(t *testing.T) {
		attr := Region("us-east-1")
		assert.Equal(t, AttrRegion, string(attr.Key))
		assert.Equal(t, "us-east-1", attr.Value.AsString())
	})

	t.Run("Attempt", func(t *testing.T) {
		attr := Attempt(2)
		assert.Equal(t, AttrAttempt, string(attr.Key))
		assert.Equal(t, int64(2), attr.Value.AsInt64())
	})
}

func TestStartScanSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartScanSpan(ctx, "photos", 1)
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	newCtx2, span2 := StartScanSpan(ctx, "photos", 2, Path("/home/user"))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartBackupSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartBackupSpan(ctx, "photos")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	newCtx2, span2 := StartBackupSpan(ctx, "photos", Snapshot("2026-07-31T00:00:00Z"))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartStoreSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartStoreSpan(ctx, SpanStorePut, "primary")
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	newCtx2, span2 := StartStoreSpan(ctx, SpanStoreGet, "primary", OID("deadbeef"))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}

func TestStartGCSpan(t *testing.T) {
	ctx := context.Background()

	newCtx, span := StartGCSpan(ctx, SpanGCMark)
	require.NotNil(t, newCtx)
	require.NotNil(t, span)
	span.End()

	newCtx2, span2 := StartGCSpan(ctx, SpanGCSweep, OrphanCount(0))
	require.NotNil(t, newCtx2)
	require.NotNil(t, span2)
	span2.End()
}
