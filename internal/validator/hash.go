package validator

import (
	"crypto/sha256"
	"encoding/hex"
)

// Content hashes on the wire are hex encoded SHA-256 digests.
func ValidateContentHash(value string) bool {
	if len(value) != hex.EncodedLen(sha256.Size) {
		return false
	}

	_, err := hex.DecodeString(value)
	return err == nil
}

// ensures a mbox payload stays under the maximum size the fixture loader
// accepts
func ValidateMboxSize(dataLen int) bool {
	return dataLen <= 1<<20*5
}
