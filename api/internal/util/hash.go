package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex: ключ картинки для истории решений.
func SHA256Hex(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}
