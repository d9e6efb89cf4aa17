// Package walker implements the Backup Walker: a post-order traversal of
// a backup set's Files Cache entries that serializes dirty files and
// directories into the content-addressed object model and uploads them
// to the storage backend, skipping any subtree whose obj_id is already
// set.
package walker

import (
	"context"
	"io"
	"os"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/backupd/backupd/pkg/apperr"
	"github.com/backupd/backupd/pkg/chunk"
	"github.com/backupd/backupd/pkg/crypto"
	"github.com/backupd/backupd/pkg/filescache"
	"github.com/backupd/backupd/pkg/metrics"
	"github.com/backupd/backupd/pkg/object"
	"github.com/backupd/backupd/pkg/objectcache"
	"github.com/backupd/backupd/pkg/storage"
)

// DefaultConcurrency bounds the number of in-flight blob encode/upload
// tasks when no value is configured.
const DefaultConcurrency = 4

// Walker serializes a backup set's dirty Files Cache entries into the
// object model and uploads the results to the storage backend.
type Walker struct {
	backend     storage.Backend
	objects     *objectcache.Cache
	files       *filescache.Cache
	provider    *crypto.Provider
	chunker     *chunk.Chunker
	concurrency int
	metrics     metrics.WalkMetrics
}

// New constructs a Walker. concurrency <= 0 falls back to
// DefaultConcurrency. m may be nil to disable metrics collection.
func New(backend storage.Backend, objects *objectcache.Cache, files *filescache.Cache, provider *crypto.Provider, chunker *chunk.Chunker, concurrency int, m metrics.WalkMetrics) *Walker {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Walker{
		backend:     backend,
		objects:     objects,
		files:       files,
		provider:    provider,
		chunker:     chunker,
		concurrency: concurrency,
		metrics:     m,
	}
}

// Backup walks backupSetName's root entry in post-order, uploading every
// dirty object, and returns the root's OID on success. A terminal upload
// failure aborts the backup, leaving the object cache holding exactly the
// objects whose puts completed.
func (w *Walker) Backup(ctx context.Context, backupSetName, rootPath string) (crypto.OID, error) {
	start := time.Now()
	rootID, err := w.files.RootEntryID(ctx, backupSetName, rootPath)
	if err != nil {
		metrics.ObserveBackup(w.metrics, backupSetName, time.Since(start), false)
		return crypto.OID{}, err
	}
	oid, err := w.walkEntry(ctx, rootID, rootID, rootPath)
	metrics.ObserveBackup(w.metrics, backupSetName, time.Since(start), err == nil)
	return oid, err
}

// walkEntry returns the OID for the fs_entry id, uploading it (and any
// dirty descendants) first if necessary.
func (w *Walker) walkEntry(ctx context.Context, id, rootID int64, rootPath string) (crypto.OID, error) {
	if err := ctx.Err(); err != nil {
		return crypto.OID{}, apperr.Cancelled()
	}

	entry, err := w.files.Get(ctx, id)
	if err != nil {
		return crypto.OID{}, err
	}
	if entry.ObjID != nil {
		return *entry.ObjID, nil
	}

	path, err := w.files.Path(ctx, entry, rootPath, rootID)
	if err != nil {
		return crypto.OID{}, err
	}

	info, err := os.Lstat(path)
	if err != nil {
		return crypto.OID{}, apperr.FSError(path, err)
	}

	if info.IsDir() {
		return w.walkDir(ctx, entry, rootID, rootPath)
	}
	return w.walkFile(ctx, entry, path, info)
}

// walkDir uploads every dirty child concurrently (bounded by the
// Walker's concurrency), waits for them all, then serializes and uploads
// this directory's Tree object.
func (w *Walker) walkDir(ctx context.Context, entry filescache.Entry, rootID int64, rootPath string) (crypto.OID, error) {
	children, err := w.files.Children(ctx, entry.ID)
	if err != nil {
		return crypto.OID{}, err
	}

	childOIDs := make([]crypto.OID, len(children))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for i, child := range children {
		i, child := i, child
		g.Go(func() error {
			oid, err := w.walkEntry(gctx, child.ID, rootID, rootPath)
			if err != nil {
				return err
			}
			childOIDs[i] = oid
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return crypto.OID{}, err
	}

	// Re-stat immediately before serialization: scan and backup are
	// decoupled, so the cached stat tuple may be stale by the time the
	// tree is actually built.
	path, err := w.files.Path(ctx, entry, rootPath, rootID)
	if err != nil {
		return crypto.OID{}, err
	}
	info, err := os.Lstat(path)
	if err != nil {
		return crypto.OID{}, apperr.FSError(path, err)
	}
	var uid, gid int64
	if sys, ok := info.Sys().(*syscall.Stat_t); ok {
		uid, gid = int64(sys.Uid), int64(sys.Gid)
	}

	tree := &object.Tree{UID: uid, GID: gid, Mode: uint32(info.Mode())}
	for i, child := range children {
		tree.Entries = append(tree.Entries, object.Entry{Name: child.Name, Child: childOIDs[i]})
	}

	oid, err := object.TreeOID(w.provider, tree)
	if err != nil {
		return crypto.OID{}, err
	}

	if err := w.uploadIfMissing(ctx, oid, object.KindTree, object.EncodeTree(tree), childOIDs); err != nil {
		return crypto.OID{}, err
	}
	if err := w.files.SetObjID(ctx, entry.ID, oid); err != nil {
		return crypto.OID{}, err
	}
	return oid, nil
}

// walkFile re-stats path, chunks its content, uploads any missing blobs,
// then serializes and uploads the file's Inode object.
func (w *Walker) walkFile(ctx context.Context, entry filescache.Entry, path string, info os.FileInfo) (crypto.OID, error) {
	sys, _ := info.Sys().(*syscall.Stat_t)
	var uid, gid int64
	var ctimeNs int64
	if sys != nil {
		uid, gid = int64(sys.Uid), int64(sys.Gid)
		ctimeNs = sys.Ctim.Sec*1_000_000_000 + sys.Ctim.Nsec
	}
	mtimeNs := info.ModTime().UnixNano()
	size := uint64(info.Size())

	chunks, err := w.uploadChunks(ctx, path, size)
	if err != nil {
		return crypto.OID{}, err
	}

	inode := &object.Inode{
		UID:         uid,
		GID:         gid,
		Mode:        uint32(info.Mode()),
		Size:        size,
		SourceInode: sysIno(sys),
		CtimeNs:     ctimeNs,
		MtimeNs:     mtimeNs,
		Chunks:      chunks,
	}

	oid, err := object.InodeOID(w.provider, inode)
	if err != nil {
		return crypto.OID{}, err
	}

	blobChildren := make([]crypto.OID, len(chunks))
	for i, c := range chunks {
		blobChildren[i] = c.Blob
	}
	if err := w.uploadIfMissing(ctx, oid, object.KindInode, object.EncodeInode(inode), blobChildren); err != nil {
		return crypto.OID{}, err
	}
	if err := w.files.SetObjID(ctx, entry.ID, oid); err != nil {
		return crypto.OID{}, err
	}
	return oid, nil
}

func sysIno(sys *syscall.Stat_t) uint64 {
	if sys == nil {
		return 0
	}
	return sys.Ino
}

// uploadChunks splits the file at path into the chunker's ranges,
// uploading each range's blob (bounded by the Walker's concurrency) and
// returning the inode's chunk list in offset order.
func (w *Walker) uploadChunks(ctx context.Context, path string, size uint64) ([]object.Chunk, error) {
	count := w.chunker.Count(size)
	if count == 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.FSError(path, err)
	}
	defer f.Close()

	chunks := make([]object.Chunk, count)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)

	i := 0
	for r := range w.chunker.Ranges(size) {
		idx, rng := i, r
		i++
		g.Go(func() error {
			buf := make([]byte, rng.Length)
			if _, err := f.ReadAt(buf, int64(rng.Offset)); err != nil && err != io.EOF {
				return apperr.FSError(path, err)
			}
			blob := &object.Blob{Data: buf}
			oid, err := object.BlobOID(w.provider, blob)
			if err != nil {
				return err
			}
			if err := w.uploadIfMissing(gctx, oid, object.KindBlob, object.EncodeBlob(blob), nil); err != nil {
				return err
			}
			chunks[idx] = object.Chunk{Offset: rng.Offset, Blob: oid}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return chunks, nil
}

// uploadIfMissing seals and puts plaintext under oid's storage key, and
// records it (with its child edges) in the object cache, unless oid is
// already present.
func (w *Walker) uploadIfMissing(ctx context.Context, oid crypto.OID, kind object.Kind, plaintext []byte, children []crypto.OID) error {
	exists, err := w.objects.Exists(ctx, oid)
	if err != nil {
		return err
	}
	if exists {
		metrics.RecordObjectSkipped(w.metrics, kind.String())
		return nil
	}

	start := time.Now()
	ciphertext, err := object.Seal(w.provider, plaintext)
	if err != nil {
		return err
	}

	key := "objects/" + oid.String()
	if err := w.backend.Put(ctx, key, ciphertext); err != nil {
		return err
	}
	metrics.ObserveUpload(w.metrics, kind.String(), time.Since(start))
	metrics.RecordObjectUploaded(w.metrics, kind.String(), len(plaintext), len(ciphertext))

	return w.objects.Record(ctx, oid, kind, len(plaintext), len(ciphertext), children)
}
