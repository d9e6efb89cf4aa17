package object

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/backupd/backupd/pkg/apperr"
	"github.com/backupd/backupd/pkg/crypto"
)

// Property tags, one byte except the two-byte ctime/mtime tags.
const (
	tagUID   = 'u'
	tagGID   = 'g'
	tagMode  = 'm'
	tagEntry = 'e'
	tagSize  = 's'
	tagInode = 'i'
	tagData  = 'd'
)

var (
	tagCtime = [2]byte{'c', 't'}
	tagMtime = [2]byte{'m', 't'}
)

// EncodeTree produces the canonical plaintext payload for a Tree: a type
// byte followed by its property records, entries sorted by name as an
// unsigned byte sequence.
func EncodeTree(t *Tree) []byte {
	entries := make([]Entry, len(t.Entries))
	copy(entries, t.Entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	var buf bytes.Buffer
	buf.WriteByte(byte(KindTree))
	writeIntRecord(&buf, tagUID, t.UID)
	writeIntRecord(&buf, tagGID, t.GID)
	writeIntRecord(&buf, tagMode, int64(t.Mode))
	for _, e := range entries {
		writeEntryRecord(&buf, e)
	}
	return buf.Bytes()
}

// EncodeInode produces the canonical plaintext payload for an Inode, data
// chunks sorted by offset ascending.
func EncodeInode(n *Inode) []byte {
	chunks := make([]Chunk, len(n.Chunks))
	copy(chunks, n.Chunks)
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Offset < chunks[j].Offset })

	var buf bytes.Buffer
	buf.WriteByte(byte(KindInode))
	writeIntRecord(&buf, tagSize, int64(n.Size))
	writeIntRecord(&buf, tagInode, int64(n.SourceInode))
	writeIntRecord(&buf, tagUID, n.UID)
	writeIntRecord(&buf, tagGID, n.GID)
	writeIntRecord(&buf, tagMode, int64(n.Mode))
	writeTwoByteIntRecord(&buf, tagCtime, n.CtimeNs)
	writeTwoByteIntRecord(&buf, tagMtime, n.MtimeNs)
	for _, c := range chunks {
		writeChunkRecord(&buf, c)
	}
	return buf.Bytes()
}

// EncodeBlob produces the canonical plaintext payload for a Blob: the
// type byte followed by the raw data record.
func EncodeBlob(b *Blob) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(KindBlob))
	buf.WriteByte(tagData)
	writeUvarint(&buf, uint64(len(b.Data)))
	buf.Write(b.Data)
	return buf.Bytes()
}

func writeIntRecord(buf *bytes.Buffer, tag byte, v int64) {
	buf.WriteByte(tag)
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeTwoByteIntRecord(buf *bytes.Buffer, tag [2]byte, v int64) {
	buf.Write(tag[:])
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeEntryRecord(buf *bytes.Buffer, e Entry) {
	buf.WriteByte(tagEntry)
	writeUvarint(buf, uint64(len(e.Name)))
	buf.WriteString(e.Name)
	buf.Write(e.Child[:])
}

func writeChunkRecord(buf *bytes.Buffer, c Chunk) {
	buf.WriteByte(tagData)
	writeUvarint(buf, c.Offset)
	buf.Write(c.Blob[:])
}

// Decode parses a canonical plaintext payload back into one of Tree,
// Inode, or Blob, dispatching on the leading type byte.
func Decode(payload []byte) (any, error) {
	if len(payload) == 0 {
		return nil, apperr.CacheCorruption("empty object payload")
	}

	switch Kind(payload[0]) {
	case KindTree:
		return decodeTree(payload[1:])
	case KindInode:
		return decodeInode(payload[1:])
	case KindBlob:
		return decodeBlob(payload[1:])
	default:
		return nil, apperr.CacheCorruption(fmt.Sprintf("unrecognized object type byte 0x%02x", payload[0]))
	}
}

func decodeTree(r []byte) (*Tree, error) {
	t := &Tree{}
	for len(r) > 0 {
		tag := r[0]
		r = r[1:]
		switch tag {
		case tagUID:
			v, n, err := readVarint(r)
			if err != nil {
				return nil, err
			}
			t.UID, r = v, r[n:]
		case tagGID:
			v, n, err := readVarint(r)
			if err != nil {
				return nil, err
			}
			t.GID, r = v, r[n:]
		case tagMode:
			v, n, err := readVarint(r)
			if err != nil {
				return nil, err
			}
			t.Mode, r = uint32(v), r[n:]
		case tagEntry:
			e, rest, err := readEntry(r)
			if err != nil {
				return nil, err
			}
			t.Entries = append(t.Entries, e)
			r = rest
		default:
			return nil, apperr.CacheCorruption(fmt.Sprintf("unrecognized tree tag 0x%02x", tag))
		}
	}
	return t, nil
}

func decodeInode(r []byte) (*Inode, error) {
	n := &Inode{}
	for len(r) > 0 {
		if len(r) >= 2 && r[0] == tagCtime[0] && r[1] == tagCtime[1] {
			v, m, err := readVarint(r[2:])
			if err != nil {
				return nil, err
			}
			n.CtimeNs, r = v, r[2+m:]
			continue
		}
		if len(r) >= 2 && r[0] == tagMtime[0] && r[1] == tagMtime[1] {
			v, m, err := readVarint(r[2:])
			if err != nil {
				return nil, err
			}
			n.MtimeNs, r = v, r[2+m:]
			continue
		}

		tag := r[0]
		r = r[1:]
		switch tag {
		case tagSize:
			v, m, err := readVarint(r)
			if err != nil {
				return nil, err
			}
			n.Size, r = uint64(v), r[m:]
		case tagInode:
			v, m, err := readVarint(r)
			if err != nil {
				return nil, err
			}
			n.SourceInode, r = uint64(v), r[m:]
		case tagUID:
			v, m, err := readVarint(r)
			if err != nil {
				return nil, err
			}
			n.UID, r = v, r[m:]
		case tagGID:
			v, m, err := readVarint(r)
			if err != nil {
				return nil, err
			}
			n.GID, r = v, r[m:]
		case tagMode:
			v, m, err := readVarint(r)
			if err != nil {
				return nil, err
			}
			n.Mode, r = uint32(v), r[m:]
		case tagData:
			c, rest, err := readChunk(r)
			if err != nil {
				return nil, err
			}
			n.Chunks = append(n.Chunks, c)
			r = rest
		default:
			return nil, apperr.CacheCorruption(fmt.Sprintf("unrecognized inode tag 0x%02x", tag))
		}
	}
	return n, nil
}

func decodeBlob(r []byte) (*Blob, error) {
	if len(r) == 0 || r[0] != tagData {
		return nil, apperr.CacheCorruption("blob payload missing data record")
	}
	r = r[1:]
	length, n, err := readUvarint(r)
	if err != nil {
		return nil, err
	}
	r = r[n:]
	if uint64(len(r)) < length {
		return nil, apperr.CacheCorruption("blob payload truncated")
	}
	data := make([]byte, length)
	copy(data, r[:length])
	return &Blob{Data: data}, nil
}

func readVarint(r []byte) (int64, int, error) {
	v, n := binary.Varint(r)
	if n <= 0 {
		return 0, 0, apperr.CacheCorruption("truncated varint in object payload")
	}
	return v, n, nil
}

func readUvarint(r []byte) (uint64, int, error) {
	v, n := binary.Uvarint(r)
	if n <= 0 {
		return 0, 0, apperr.CacheCorruption("truncated uvarint in object payload")
	}
	return v, n, nil
}

func readEntry(r []byte) (Entry, []byte, error) {
	nameLen, n, err := readUvarint(r)
	if err != nil {
		return Entry{}, nil, err
	}
	r = r[n:]
	if uint64(len(r)) < nameLen+crypto.OIDSize {
		return Entry{}, nil, apperr.CacheCorruption("truncated entry record in tree payload")
	}
	name := string(r[:nameLen])
	r = r[nameLen:]
	var oid crypto.OID
	copy(oid[:], r[:crypto.OIDSize])
	r = r[crypto.OIDSize:]
	return Entry{Name: name, Child: oid}, r, nil
}

func readChunk(r []byte) (Chunk, []byte, error) {
	offset, n, err := readUvarint(r)
	if err != nil {
		return Chunk{}, nil, err
	}
	r = r[n:]
	if uint64(len(r)) < crypto.OIDSize {
		return Chunk{}, nil, apperr.CacheCorruption("truncated data record in inode payload")
	}
	var oid crypto.OID
	copy(oid[:], r[:crypto.OIDSize])
	r = r[crypto.OIDSize:]
	return Chunk{Offset: offset, Blob: oid}, r, nil
}
