package object

import (
	"bytes"
	"testing"
)

func TestSealOpen_RoundTrip(t *testing.T) {
	p := newTestProvider(t)
	tree := &Tree{Entries: []Entry{{Name: "a", Child: oidFor(1)}}}
	plaintext := EncodeTree(tree)

	ciphertext, err := Seal(p, plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	got, err := Open(p, ciphertext)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Errorf("Open(Seal(x)) = %q, want %q", got, plaintext)
	}
}

func TestSeal_CompressesPayload(t *testing.T) {
	p := newTestProvider(t)
	blob := &Blob{Data: bytes.Repeat([]byte("a"), 4096)}
	plaintext := EncodeBlob(blob)

	ciphertext, err := Seal(p, plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	if len(ciphertext) >= len(plaintext) {
		t.Errorf("expected compression to shrink a highly repetitive payload: sealed %d bytes, plaintext %d bytes", len(ciphertext), len(plaintext))
	}
}

func TestOpen_TamperedCiphertextFails(t *testing.T) {
	p := newTestProvider(t)
	plaintext := EncodeBlob(&Blob{Data: []byte("hello")})

	ciphertext, err := Seal(p, plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	ciphertext[len(ciphertext)-1] ^= 0xFF

	if _, err := Open(p, ciphertext); err == nil {
		t.Error("expected Open to fail on tampered ciphertext")
	}
}
