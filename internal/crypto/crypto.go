package crypto

import (
	"crypto/subtle"
)

func ConstantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// EqualHex compares two hex digests without short-circuiting on the first differing byte.
func EqualHex(a, b string) bool {
	return ConstantTimeEqual([]byte(a), []byte(b))
}
