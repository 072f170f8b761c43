package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashKey returns the hex SHA-256 of an API key, used as the identity cache key
// so raw keys never sit in memory longer than a request.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(key)))
	return hex.EncodeToString(sum[:])
}
