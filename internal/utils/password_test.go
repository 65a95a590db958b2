package utils

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSalt(t *testing.T) {
	a, err := GenerateSalt()
	require.NoError(t, err)
	b, err := GenerateSalt()
	require.NoError(t, err)

	assert.Len(t, a, 24)
	assert.Len(t, b, 24)
	assert.NotEqual(t, a, b)

	raw, err := base64.StdEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, SaltSize)
}

func TestHashPasswordIsSaltedSHA256(t *testing.T) {
	sum := sha256.Sum256([]byte("pw1" + "c2FsdA=="))
	want := base64.StdEncoding.EncodeToString(sum[:])

	assert.Equal(t, want, HashPassword("pw1", "c2FsdA=="))
	assert.Equal(t, HashPassword("pw1", "c2FsdA=="), HashPassword("pw1", "c2FsdA=="))
	assert.NotEqual(t, HashPassword("pw1", "c2FsdA=="), HashPassword("pw1", "b3RoZXI="))
}

func TestVerifyLegacyHashAsksForRehash(t *testing.T) {
	stored := HashPassword("Admin", "salt")

	ok, rehash := VerifyPassword("Admin", "salt", stored)
	assert.True(t, ok)
	assert.True(t, rehash)

	ok, rehash = VerifyPassword("admin", "salt", stored)
	assert.False(t, ok)
	assert.False(t, rehash)
}

func TestVerifyArgon2Hash(t *testing.T) {
	stored := HashPasswordArgon2("pw1", "salt")
	require.True(t, strings.HasPrefix(stored, argon2idPrefix))
	assert.Equal(t, stored, HashPasswordArgon2("pw1", "salt"))

	ok, rehash := VerifyPassword("pw1", "salt", stored)
	assert.True(t, ok)
	assert.False(t, rehash)

	ok, _ = VerifyPassword("pw2", "salt", stored)
	assert.False(t, ok)
}
