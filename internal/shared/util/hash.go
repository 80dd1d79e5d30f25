package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash returns the hex sha256 of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortHash returns the first n hex characters of ContentHash(data).
func ShortHash(data []byte, n int) string {
	h := ContentHash(data)
	if n <= 0 || n >= len(h) {
		return h
	}
	return h[:n]
}
