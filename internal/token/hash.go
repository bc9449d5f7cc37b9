package token

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// Refresh tokens are persisted only as a salted bcrypt hash. bcrypt caps
// its input at 72 bytes and signed tokens are longer, so the token is
// first reduced to its SHA-256 digest and the digest is what gets
// bcrypt'd. Matching goes through bcrypt's own constant-time comparison.

// HashRefresh returns the at-rest hash of a raw refresh token.
func HashRefresh(raw string, cost int) (string, error) {
	sum := sha256.Sum256([]byte(raw))
	b, err := bcrypt.GenerateFromPassword(sum[:], cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MatchRefresh reports whether raw hashes to the stored value.
func MatchRefresh(stored, raw string) bool {
	sum := sha256.Sum256([]byte(raw))
	return bcrypt.CompareHashAndPassword([]byte(stored), sum[:]) == nil
}
