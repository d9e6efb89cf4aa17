// Package object defines the content-addressed object model: the three
// object kinds (tree, inode, blob) that make up a backup set's Merkle
// DAG, and the canonical codec that encodes them to and decodes them
// from the plaintext byte stream an OID is computed over.
package object

import "github.com/backupd/backupd/pkg/crypto"

// Kind identifies which of the three object variants a payload encodes.
type Kind byte

const (
	// KindTree is a directory: permission bits, owner/group, and a
	// sorted list of (name, child OID) entries.
	KindTree Kind = 0x74

	// KindInode is a regular file: stat metadata and a sorted list of
	// (offset, blob OID) data chunks.
	KindInode Kind = 0x69

	// KindBlob is a raw chunk of file content. No outgoing references.
	KindBlob Kind = 0x62
)

// String implements fmt.Stringer so Kind values are loggable and usable
// directly as a tracer attribute.
func (k Kind) String() string {
	switch k {
	case KindTree:
		return "tree"
	case KindInode:
		return "inode"
	case KindBlob:
		return "blob"
	default:
		return "unknown"
	}
}

// Entry is a single directory entry within a Tree: a name and the OID
// of the child object (an Inode or another Tree).
type Entry struct {
	Name  string
	Child crypto.OID
}

// Tree is the object kind for a directory.
type Tree struct {
	UID     int64
	GID     int64
	Mode    uint32
	Entries []Entry // sorted by Name, unsigned byte order
}

// Chunk is a single (offset, blob OID) pair within an Inode's data list.
type Chunk struct {
	Offset uint64
	Blob   crypto.OID
}

// Inode is the object kind for a regular file.
type Inode struct {
	UID         int64
	GID         int64
	Mode        uint32
	Size        uint64
	SourceInode uint64
	CtimeNs     int64
	MtimeNs     int64
	Chunks      []Chunk // sorted by Offset ascending
}

// Blob is the object kind for an opaque chunk of file content.
type Blob struct {
	Data []byte
}
