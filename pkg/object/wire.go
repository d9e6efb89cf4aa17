package object

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/backupd/backupd/pkg/apperr"
)

// sealer is the subset of crypto.Provider this package needs to produce
// and consume on-repository ciphertext.
type sealer interface {
	macer
	Seal(plaintext []byte) ([]byte, error)
	Open(ciphertext []byte) ([]byte, error)
}

var (
	encoderOnce sync.Once
	encoder     *zstd.Encoder
	encoderErr  error

	decoderOnce sync.Once
	decoder     *zstd.Decoder
	decoderErr  error
)

func getEncoder() (*zstd.Encoder, error) {
	encoderOnce.Do(func() {
		encoder, encoderErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	return encoder, encoderErr
}

func getDecoder() (*zstd.Decoder, error) {
	decoderOnce.Do(func() {
		decoder, decoderErr = zstd.NewReader(nil)
	})
	return decoder, decoderErr
}

// Seal produces the on-repository wire form of a canonical plaintext
// payload: zstd-compress, then seal under the provider's public key. The
// OID is computed by the caller over plaintext, before this function
// runs, per the codec's dedup-must-be-semantic rule.
func Seal(s sealer, plaintext []byte) ([]byte, error) {
	enc, err := getEncoder()
	if err != nil {
		return nil, fmt.Errorf("init zstd encoder: %w", err)
	}
	compressed := enc.EncodeAll(plaintext, nil)

	ciphertext, err := s.Seal(compressed)
	if err != nil {
		return nil, fmt.Errorf("seal object payload: %w", err)
	}
	return ciphertext, nil
}

// Open reverses Seal: authenticate and decrypt, then decompress, yielding
// the canonical plaintext payload Decode expects.
func Open(s sealer, ciphertext []byte) ([]byte, error) {
	compressed, err := s.Open(ciphertext)
	if err != nil {
		return nil, err
	}

	dec, err := getDecoder()
	if err != nil {
		return nil, fmt.Errorf("init zstd decoder: %w", err)
	}
	plaintext, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, apperr.CacheCorruption(fmt.Sprintf("decompress object payload: %v", err))
	}
	return plaintext, nil
}
