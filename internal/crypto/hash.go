package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Algorithm names a 256-bit digest used for block hashing.
type Algorithm string

const (
	SHA256     Algorithm = "sha256"
	BLAKE2b256 Algorithm = "blake2b-256"
)

// ParseAlgorithm accepts the config spelling of an algorithm. Empty means SHA256.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sha256", "sha-256":
		return SHA256, nil
	case "blake2b-256", "blake2b256", "blake2b":
		return BLAKE2b256, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm: %q", s)
	}
}

func (a Algorithm) String() string {
	if a == "" {
		return string(SHA256)
	}
	return string(a)
}

// Sum returns the 32-byte digest of data. The zero Algorithm is SHA256.
func (a Algorithm) Sum(data []byte) [32]byte {
	if a == BLAKE2b256 {
		return blake2b.Sum256(data)
	}
	return Sha256(data)
}

// SumHex is Sum hex-encoded.
func (a Algorithm) SumHex(data []byte) string {
	return Hex32(a.Sum(data))
}

func Sha256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func Hex32(h [32]byte) string {
	return hex.EncodeToString(h[:])
}
