package validator

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContentHash(t *testing.T) {
	digest := sha256.Sum256([]byte("From dummy\n\nbody\n"))
	good := hex.EncodeToString(digest[:])

	assert.True(t, ValidateContentHash(good))
	assert.False(t, ValidateContentHash(""), "empty is not a digest")
	assert.False(t, ValidateContentHash(good[:40]), "truncated digest")
	assert.False(t, ValidateContentHash(strings.Replace(good, good[:1], "x", 1)),
		"non-hex characters")
}

func TestSha256hexTag(t *testing.T) {
	type fixture struct {
		Hash string `json:"hash" validate:"omitempty,sha256hex"`
	}

	valid := Create()

	digest := sha256.Sum256([]byte("payload"))
	require.NoError(t, valid.Validate(&fixture{Hash: hex.EncodeToString(digest[:])}))
	require.NoError(t, valid.Validate(&fixture{}), "omitempty lets the blank through")
	require.Error(t, valid.Validate(&fixture{Hash: "nope"}))
}

func TestValidateMboxSize(t *testing.T) {
	assert.True(t, ValidateMboxSize(1024))
	assert.False(t, ValidateMboxSize(1<<20*5+1))
}
