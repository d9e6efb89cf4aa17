package crypto

import "errors"

// ErrAuthenticationFailed is returned by Open when a ciphertext's
// authentication tag does not verify. Always fatal to the operation that
// encountered it.
var ErrAuthenticationFailed = errors.New("crypto: authentication failed")

// ErrNoPrivateKey is returned by Open when the Provider was constructed
// without the private key (the shape used by unattended backup/prune).
var ErrNoPrivateKey = errors.New("crypto: provider has no private key")
