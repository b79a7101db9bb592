package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the first 16 hex chars of sha256(key). Used to keep origin
// paths out of logs and metric labels.
func Digest(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}
