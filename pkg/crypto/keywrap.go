package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

// KDFParams are the Argon2id parameters used to derive a symmetric key from
// a repository password. Stored alongside the wrapped private key so a
// different engine version can still unwrap it.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultKDFParams returns conservative Argon2id parameters suitable for an
// interactively-entered repository password.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Time:    3,
		Memory:  64 * 1024,
		Threads: 4,
		KeyLen:  32,
	}
}

// WrappedPrivateKey is the at-rest representation of a sealing keypair's
// private half: the private key encrypted under a password-derived key,
// plus everything needed to re-derive that key. This is what meta/keys
// stores.
type WrappedPrivateKey struct {
	Params     KDFParams
	Salt       [16]byte
	Nonce      [24]byte
	Ciphertext []byte
}

// WrapPrivateKey encrypts a sealing keypair's private key under a key
// derived from password via Argon2id, so it can be stored at rest without
// exposing it to anyone who doesn't know the password.
func WrapPrivateKey(password string, priv [32]byte, params KDFParams) (*WrappedPrivateKey, error) {
	w := &WrappedPrivateKey{Params: params}

	if _, err := rand.Read(w.Salt[:]); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	if _, err := rand.Read(w.Nonce[:]); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	key := deriveKey(password, w.Salt[:], params)
	w.Ciphertext = secretbox.Seal(nil, priv[:], &w.Nonce, &key)
	return w, nil
}

// UnwrapPrivateKey recovers the private key from its wrapped form, given
// the same password used to wrap it. Returns ErrAuthenticationFailed if
// the password is wrong or the ciphertext has been tampered with.
func UnwrapPrivateKey(password string, w *WrappedPrivateKey) ([32]byte, error) {
	key := deriveKey(password, w.Salt[:], w.Params)

	plaintext, ok := secretbox.Open(nil, w.Ciphertext, &w.Nonce, &key)
	if !ok || len(plaintext) != 32 {
		return [32]byte{}, ErrAuthenticationFailed
	}

	var priv [32]byte
	copy(priv[:], plaintext)
	return priv, nil
}

// deriveKey runs Argon2id over password and salt, producing a key sized
// for nacl/secretbox (32 bytes) regardless of params.KeyLen if it differs.
func deriveKey(password string, salt []byte, params KDFParams) [32]byte {
	derived := argon2.IDKey([]byte(password), salt, params.Time, params.Memory, params.Threads, 32)
	var key [32]byte
	copy(key[:], derived)
	return key
}
