package object

import (
	"testing"

	"github.com/backupd/backupd/pkg/crypto"
)

func newTestProvider(t *testing.T) *crypto.Provider {
	t.Helper()
	macKey, err := crypto.GenerateMACKey()
	if err != nil {
		t.Fatalf("GenerateMACKey: %v", err)
	}
	kp, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	return crypto.NewProvider(macKey, kp)
}

func TestTreeOID_Deterministic(t *testing.T) {
	p := newTestProvider(t)
	tree := &Tree{Entries: []Entry{{Name: "a", Child: oidFor(1)}}}

	a, err := TreeOID(p, tree)
	if err != nil {
		t.Fatalf("TreeOID: %v", err)
	}
	b, err := TreeOID(p, tree)
	if err != nil {
		t.Fatalf("TreeOID: %v", err)
	}
	if a != b {
		t.Errorf("TreeOID is not deterministic")
	}
}

func TestTreeOID_InsertionOrderIndependent(t *testing.T) {
	p := newTestProvider(t)

	a := &Tree{Entries: []Entry{
		{Name: "z", Child: oidFor(1)},
		{Name: "a", Child: oidFor(2)},
	}}
	b := &Tree{Entries: []Entry{
		{Name: "a", Child: oidFor(2)},
		{Name: "z", Child: oidFor(1)},
	}}

	oidA, err := TreeOID(p, a)
	if err != nil {
		t.Fatalf("TreeOID: %v", err)
	}
	oidB, err := TreeOID(p, b)
	if err != nil {
		t.Fatalf("TreeOID: %v", err)
	}
	if oidA != oidB {
		t.Errorf("OIDs differ for same entries in different insertion order")
	}
}

func TestInodeOID_DifferentChunksDifferentOID(t *testing.T) {
	p := newTestProvider(t)

	a := &Inode{Chunks: []Chunk{{Offset: 0, Blob: oidFor(1)}}}
	b := &Inode{Chunks: []Chunk{{Offset: 0, Blob: oidFor(2)}}}

	oidA, _ := InodeOID(p, a)
	oidB, _ := InodeOID(p, b)
	if oidA == oidB {
		t.Errorf("expected distinct OIDs for distinct chunk contents")
	}
}

func TestBlobOID_SameContentSameOID(t *testing.T) {
	p := newTestProvider(t)

	a := &Blob{Data: []byte("hello")}
	b := &Blob{Data: []byte("hello")}

	oidA, _ := BlobOID(p, a)
	oidB, _ := BlobOID(p, b)
	if oidA != oidB {
		t.Errorf("expected identical OIDs for identical blob content (dedup)")
	}
}

func TestBlobOID_DifferentContentDifferentOID(t *testing.T) {
	p := newTestProvider(t)

	a := &Blob{Data: []byte("hello")}
	b := &Blob{Data: []byte("world")}

	oidA, _ := BlobOID(p, a)
	oidB, _ := BlobOID(p, b)
	if oidA == oidB {
		t.Errorf("expected distinct OIDs for distinct blob content")
	}
}
