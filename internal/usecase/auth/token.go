package auth

import "time"

// SessionClaims are the verified contents of a session token.
type SessionClaims struct {
	UserID   string
	IssuedAt time.Time
}

// TokenManager abstracts session token issuance and verification.
type TokenManager interface {
	Issue(userID string) (string, error)
	// Verify returns jwt errors unchanged so expiry can be told apart from tampering.
	Verify(token string) (*SessionClaims, error)
}

// ResetTokenGenerator produces single-use reset secrets. Only the hash is persisted.
type ResetTokenGenerator interface {
	Generate() (plaintext, hash string, err error)
	Hash(plaintext string) string
}

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	// Verify reports a mismatch as false. An error means the stored hash is unusable.
	Verify(hash, password string) (bool, error)
}
