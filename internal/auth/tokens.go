// Package auth implements the credential lifecycle: opaque single-use tokens,
// password policy, signed session tokens, and the orchestrating service.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// secureTokenBytes is the entropy of verification/reset/refresh lookup
// tokens. 32 bytes = 256 bits.
const secureTokenBytes = 32

// GenerateSecureToken returns a uniformly random opaque token suitable to
// email to a user. The raw value is never persisted; callers store only
// HashToken(token).
func GenerateSecureToken() (string, error) {
	buf := make([]byte, secureTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the hex-encoded SHA-256 digest of a token. Stores hold
// the digest instead of the raw token, so a database read alone cannot be
// replayed as a valid token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ConstantTimeEquals compares two hashes in time independent of where they
// differ. A length mismatch is reported as unequal.
func ConstantTimeEquals(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
