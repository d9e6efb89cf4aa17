package object

import "github.com/backupd/backupd/pkg/crypto"

// macer is the subset of crypto.Provider this package needs: computing an
// OID over a plaintext payload. Kept as an interface so callers can pass
// either a full Provider or a seal-only one built by NewSealer.
type macer interface {
	MAC(plaintext []byte) (crypto.OID, error)
}

// TreeOID computes the OID of a Tree's canonical plaintext payload.
func TreeOID(p macer, t *Tree) (crypto.OID, error) {
	return p.MAC(EncodeTree(t))
}

// InodeOID computes the OID of an Inode's canonical plaintext payload.
func InodeOID(p macer, n *Inode) (crypto.OID, error) {
	return p.MAC(EncodeInode(n))
}

// BlobOID computes the OID of a Blob's canonical plaintext payload.
func BlobOID(p macer, b *Blob) (crypto.OID, error) {
	return p.MAC(EncodeBlob(b))
}
