// Package token implements the agent bearer-token codec: cryptographically
// random raw tokens and self-describing salted PBKDF2 digests for storage.
//
// The persisted digest format is stable across versions:
//
//	pbkdf2_sha256$<iterations>$<base64url-salt-no-padding>$<base64url-digest-no-padding>
//
// The iteration count is parsed back out of the digest at verify time, so it
// can be raised for new hashes without breaking verification of old ones.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	algorithm  = "pbkdf2_sha256"
	iterations = 200_000
	saltBytes  = 16
	tokenBytes = 32
	keyLen     = sha256.Size
)

// Generate returns a new URL-safe raw bearer token with 256 bits of entropy.
func Generate() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Hash derives a salted digest of the raw token for persistence.
func Hash(raw string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}
	digest := pbkdf2.Key([]byte(raw), salt, iterations, keyLen, sha256.New)
	return strings.Join([]string{
		algorithm,
		strconv.Itoa(iterations),
		base64.RawURLEncoding.EncodeToString(salt),
		base64.RawURLEncoding.EncodeToString(digest),
	}, "$"), nil
}

// Verify reports whether raw matches the stored digest. It fails closed:
// malformed digests, unknown algorithm tags, and non-numeric iteration
// counts all return false, never an error. Comparison is constant time.
func Verify(raw, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 4 {
		return false
	}
	if parts[0] != algorithm {
		return false
	}
	iter, err := strconv.Atoi(parts[1])
	if err != nil || iter <= 0 {
		return false
	}
	salt, err := decodeB64(parts[2])
	if err != nil {
		return false
	}
	expected, err := decodeB64(parts[3])
	if err != nil || len(expected) == 0 {
		return false
	}
	candidate := pbkdf2.Key([]byte(raw), salt, iter, len(expected), sha256.New)
	return subtle.ConstantTimeCompare(candidate, expected) == 1
}

// decodeB64 accepts url-safe base64 with or without padding, matching
// digests written by earlier backend versions.
func decodeB64(s string) ([]byte, error) {
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.URLEncoding.DecodeString(s)
}
