package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the adaptive hashing cost factor.
const bcryptCost = 12

// allowedSymbols is the symbol set counted toward password strength.
const allowedSymbols = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?~`"

// WeakPasswordMessage lists the unmet requirement categories. Reused by every
// call site that rejects a weak password so the user-visible text is stable.
const WeakPasswordMessage = "password must be at least 8 characters and contain a lowercase letter, an uppercase letter, a digit, and a symbol"

// IsStrongPassword reports whether a password satisfies the policy:
// length >= 8 with at least one lowercase, one uppercase, one digit, and one
// symbol. Empty passwords are rejected immediately.
func IsStrongPassword(password string) bool {
	if len(password) < 8 {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, c := range password {
		switch {
		case c >= 'a' && c <= 'z':
			lower = true
		case c >= 'A' && c <= 'Z':
			upper = true
		case c >= '0' && c <= '9':
			digit = true
		case strings.ContainsRune(allowedSymbols, c):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

// HashPassword hashes a password with bcrypt. Inputs longer than bcrypt's
// 72-byte limit are truncated before hashing, matching verification.
func HashPassword(password string) (string, error) {
	b := []byte(password)
	if len(b) > 72 {
		b = b[:72]
	}
	hash, err := bcrypt.GenerateFromPassword(b, bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
// A malformed hash is treated as a mismatch, never an error.
func VerifyPassword(password, hash string) bool {
	b := []byte(password)
	if len(b) > 72 {
		b = b[:72]
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), b) == nil
}
