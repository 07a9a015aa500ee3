package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	usecase "taskaty/backend/internal/usecase/auth"
)

// ResetTokenLength is the number of random bytes in a reset token.
const ResetTokenLength = 32

// ResetTokens generates password reset secrets and their storage digests.
type ResetTokens struct{}

var _ usecase.ResetTokenGenerator = ResetTokens{}

// Generate returns a hex plaintext for the client and its SHA-256 hex digest for storage.
func (ResetTokens) Generate() (string, string, error) {
	buf := make([]byte, ResetTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	plaintext := hex.EncodeToString(buf)
	return plaintext, HashResetToken(plaintext), nil
}

// Hash digests a presented plaintext for lookup.
func (ResetTokens) Hash(plaintext string) string {
	return HashResetToken(plaintext)
}

// HashResetToken returns the SHA-256 hex digest of plaintext.
func HashResetToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
