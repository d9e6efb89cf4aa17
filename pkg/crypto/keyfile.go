package crypto

import (
	"encoding/json"
	"os"
)

// keyFileMode restricts the on-disk keyfile to owner read/write, since it
// holds the repository's MAC key and wrapped private key.
const keyFileMode = 0o600

// KeyFile is the on-disk representation of meta/keys: the repository's MAC
// key in the clear (it is not a secret an attacker can use to read
// ciphertext, only to forge OIDs), the sealing keypair's public half, and
// the password-wrapped private half.
type KeyFile struct {
	MACKey     [MACKeySize]byte   `json:"mac_key"`
	PublicKey  [32]byte           `json:"public_key"`
	PrivateKey *WrappedPrivateKey `json:"private_key"`
}

// SaveKeyFile writes kf to path as JSON, replacing any existing file.
func SaveKeyFile(path string, kf *KeyFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, keyFileMode)
}

// LoadKeyFile reads and parses the keyfile at path.
func LoadKeyFile(path string) (*KeyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, err
	}
	return &kf, nil
}

// NewProviderFromKeyFile unwraps kf's private key with password and
// constructs a fully-capable Provider, for attended operations (restore,
// verify) that need to open sealed objects.
func NewProviderFromKeyFile(kf *KeyFile, password string) (*Provider, error) {
	priv, err := UnwrapPrivateKey(password, kf.PrivateKey)
	if err != nil {
		return nil, err
	}
	return NewProvider(kf.MACKey, KeyPair{Public: kf.PublicKey, Private: priv}), nil
}

// NewSealerFromKeyFile constructs a Provider limited to MAC and Seal, for
// unattended operations (backup, scan, gc) that must never need the
// repository password.
func NewSealerFromKeyFile(kf *KeyFile) *Provider {
	return NewSealer(kf.MACKey, kf.PublicKey)
}
