// Package hashutil provides the single content-hashing primitive shared by
// the NAS sync engine and its HTTP endpoints: a hex-encoded SHA-256.
package hashutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hex returns the hex-encoded SHA-256 digest of data.
func Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HexString is a convenience wrapper over Hex for string input.
func HexString(s string) string {
	return Hex([]byte(s))
}
