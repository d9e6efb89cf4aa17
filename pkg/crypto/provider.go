// Package crypto implements the engine's cryptographic provider: the keyed
// MAC used to derive object identifiers, and the asymmetric seal/open pair
// used to encrypt object payloads at rest.
//
// The MAC key and the sealing keypair are deliberately distinct secrets.
// Documentation for systems like this one sometimes suggests reusing the
// public key as an HMAC key; that is only safe if the "public" key in fact
// stays secret, which defeats the point of calling it public. This package
// keeps a dedicated MAC key instead.
package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/nacl/box"
)

// MACKeySize is the size, in bytes, of the keyed-MAC key and of the OID
// it produces.
const MACKeySize = blake2b.Size256

// OIDSize is the fixed width of an object identifier.
const OIDSize = blake2b.Size256

// OID is a fixed-width object identifier: the keyed MAC of an object's
// canonical plaintext payload.
type OID [OIDSize]byte

// String renders the OID as lowercase hex, the form used for storage keys
// and foreign references.
func (o OID) String() string {
	return fmt.Sprintf("%x", o[:])
}

// IsZero reports whether the OID is the zero value (never a valid MAC
// output; used as a sentinel for "no object").
func (o OID) IsZero() bool {
	return o == OID{}
}

// KeyPair is a Curve25519 keypair used for sealed-box encryption.
type KeyPair struct {
	Public  [32]byte
	Private [32]byte
}

// Provider exposes the engine's cryptographic operations over a long-lived
// key material triple: a MAC key, and a sealing keypair.
//
// Backup and prune run unattended and only ever need Seal and MAC, both of
// which require only the public key and the MAC key respectively. Restore
// and verify need the password-unlocked private key to Open. A Provider
// constructed without a private key (see NewSealer) supports the
// unattended path and returns ErrNoPrivateKey from Open.
type Provider struct {
	macKey  [MACKeySize]byte
	keyPair KeyPair
	canOpen bool
}

// NewProvider constructs a Provider with full key material, capable of
// both sealing and opening.
func NewProvider(macKey [MACKeySize]byte, keyPair KeyPair) *Provider {
	return &Provider{macKey: macKey, keyPair: keyPair, canOpen: true}
}

// NewSealer constructs a Provider that can compute MACs and seal payloads
// but cannot open them, because it was never given the private key. This
// is the shape an unattended backup or prune process should use.
func NewSealer(macKey [MACKeySize]byte, publicKey [32]byte) *Provider {
	return &Provider{
		macKey:  macKey,
		keyPair: KeyPair{Public: publicKey},
		canOpen: false,
	}
}

// GenerateKeyPair creates a new random Curve25519 keypair for sealed-box
// encryption.
func GenerateKeyPair() (KeyPair, error) {
	pub, priv, err := box.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("generate sealing keypair: %w", err)
	}
	return KeyPair{Public: *pub, Private: *priv}, nil
}

// GenerateMACKey creates a new random MAC key, distinct from any sealing
// keypair.
func GenerateMACKey() ([MACKeySize]byte, error) {
	var key [MACKeySize]byte
	if _, err := rand.Read(key[:]); err != nil {
		return key, fmt.Errorf("generate mac key: %w", err)
	}
	return key, nil
}

// MAC computes the deterministic keyed MAC of plaintext, used as the
// object's identifier. Equal plaintext under the same key always produces
// the same OID; this is the property the Backup Walker's dedup relies on.
func (p *Provider) MAC(plaintext []byte) (OID, error) {
	h, err := blake2b.New256(p.macKey[:])
	if err != nil {
		return OID{}, fmt.Errorf("init keyed blake2b: %w", err)
	}
	h.Write(plaintext)
	var oid OID
	copy(oid[:], h.Sum(nil))
	return oid, nil
}

// Seal encrypts plaintext into a self-authenticating ciphertext, using
// only the provider's public key. Safe to call from an unattended
// process with no access to the private key.
func (p *Provider) Seal(plaintext []byte) ([]byte, error) {
	sealed, err := box.SealAnonymous(nil, plaintext, &p.keyPair.Public, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("seal payload: %w", err)
	}
	return sealed, nil
}

// Open decrypts a ciphertext produced by Seal, requiring the private key.
// Returns ErrNoPrivateKey if this Provider was constructed without one,
// or an authentication failure if the ciphertext's integrity check fails.
func (p *Provider) Open(ciphertext []byte) ([]byte, error) {
	if !p.canOpen {
		return nil, ErrNoPrivateKey
	}
	plaintext, ok := box.OpenAnonymous(nil, ciphertext, &p.keyPair.Public, &p.keyPair.Private)
	if !ok {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// PublicKey returns the provider's sealing public key.
func (p *Provider) PublicKey() [32]byte {
	return p.keyPair.Public
}
