package utils

import (
	"crypto/rand"     // Cryptographically secure random bytes
	"crypto/sha256"   // Legacy hash primitive
	"crypto/subtle"   // Constant-time comparison
	"encoding/base64" // Stored encoding of salts and hashes
	"strings"         // Prefix handling

	"golang.org/x/crypto/argon2" // Memory-hard KDF
)

// SaltSize is the number of random bytes in a salt (24 base64 characters).
const SaltSize = 16

// argon2idPrefix marks hashes produced by HashPasswordArgon2. Unprefixed
// hashes are legacy SHA-256.
const argon2idPrefix = "argon2id$"

// argon2id parameters
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// GenerateSalt returns 16 cryptographically random bytes, base64-encoded.
func GenerateSalt() (string, error) {
	b := make([]byte, SaltSize)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// HashPassword returns base64(SHA256(utf8(password + salt))). This is the
// legacy scheme; it is kept so existing records remain verifiable.
func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// HashPasswordArgon2 derives an argon2id key from the password using the
// stored salt and returns it in the versioned stored format.
func HashPasswordArgon2(password, salt string) string {
	key := argon2.IDKey([]byte(password), []byte(salt), argonTime, argonMemory, argonThreads, argonKeyLen)
	return argon2idPrefix + base64.StdEncoding.EncodeToString(key)
}

// VerifyPassword checks password against a stored {salt, hash} pair.
// needsRehash is true when the stored hash uses the legacy scheme.
func VerifyPassword(password, salt, stored string) (ok bool, needsRehash bool) {
	var computed string
	if strings.HasPrefix(stored, argon2idPrefix) {
		computed = HashPasswordArgon2(password, salt)
	} else {
		computed = HashPassword(password, salt)
		needsRehash = true
	}
	ok = subtle.ConstantTimeCompare([]byte(computed), []byte(stored)) == 1
	return ok, ok && needsRehash
}
