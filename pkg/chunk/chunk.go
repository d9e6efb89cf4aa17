// Package chunk splits file contents into fixed-size pieces for upload.
//
// Unlike content-defined chunking, boundaries depend only on the file's
// length and the configured chunk size, never on the bytes themselves:
// same input always yields the same chunk boundaries, which is what makes
// the Backup Walker's blob-OID dedup correct.
//
// Files below MinChunkable bypass splitting entirely and are uploaded as a
// single chunk, avoiding the bookkeeping overhead of one blob per small
// file.
package chunk

// Default tunables, overridable per repository via the chunker config.
const (
	// DefaultChunkSize is the size of a chunk in bytes (10 MiB) once a
	// file is large enough to be split.
	DefaultChunkSize = 10 * 1024 * 1024

	// DefaultMinChunkable is the file size threshold (30 MiB) below which
	// a file is uploaded as a single chunk regardless of ChunkSize.
	DefaultMinChunkable = 30 * 1024 * 1024
)

// Chunker splits a file of known length into (offset, length) ranges.
type Chunker struct {
	// ChunkSize is the size of each chunk except possibly the last.
	ChunkSize uint64

	// MinChunkable is the minimum file size that gets split at all.
	// Files strictly below this size produce exactly one range covering
	// the whole file.
	MinChunkable uint64
}

// New returns a Chunker with the given tunables.
func New(chunkSize, minChunkable uint64) *Chunker {
	return &Chunker{ChunkSize: chunkSize, MinChunkable: minChunkable}
}

// Default returns a Chunker using DefaultChunkSize and DefaultMinChunkable.
func Default() *Chunker {
	return New(DefaultChunkSize, DefaultMinChunkable)
}

// Range is a contiguous byte range within a file, identified by its
// starting offset and length.
type Range struct {
	Offset uint64
	Length uint64
}

// Count returns the number of ranges Ranges(totalLength) would yield,
// without iterating. Useful for pre-sizing an inode's data-chunk list.
func (c *Chunker) Count(totalLength uint64) int {
	if totalLength == 0 {
		return 0
	}
	if totalLength < c.MinChunkable {
		return 1
	}
	return int((totalLength + c.ChunkSize - 1) / c.ChunkSize)
}

// Ranges returns an iterator over the (offset, length) ranges a file of
// totalLength splits into. A zero-length file yields no ranges. A file
// shorter than MinChunkable yields exactly one range covering the whole
// file. Otherwise it yields contiguous ranges of ChunkSize, except
// possibly the last which covers the remainder.
func (c *Chunker) Ranges(totalLength uint64) func(yield func(Range) bool) {
	return func(yield func(Range) bool) {
		if totalLength == 0 {
			return
		}

		if totalLength < c.MinChunkable {
			yield(Range{Offset: 0, Length: totalLength})
			return
		}

		var offset uint64
		for offset < totalLength {
			length := c.ChunkSize
			if remaining := totalLength - offset; remaining < length {
				length = remaining
			}
			if !yield(Range{Offset: offset, Length: length}) {
				return
			}
			offset += length
		}
	}
}

// IndexForOffset returns the chunk index containing the given file offset,
// assuming full-size chunking (not the MinChunkable bypass).
func (c *Chunker) IndexForOffset(offset uint64) uint64 {
	return offset / c.ChunkSize
}

// Bounds returns the file-level byte range [start, end) for a chunk index,
// assuming full-size chunking (not the MinChunkable bypass).
func (c *Chunker) Bounds(chunkIdx uint64) (start, end uint64) {
	start = chunkIdx * c.ChunkSize
	end = start + c.ChunkSize
	return start, end
}
