package auth

import (
	"context"
	"time"
)

// UserRepository defines persistence operations for auth users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, filter UserFilter) ([]*User, error)
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) (int64, error)

	// UpdatePassword writes the hash and passwordChangedAt together.
	UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error

	// SetResetToken stores a reset token hash and its absolute expiry.
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	// ClearResetToken removes any reset token pair from the user.
	ClearResetToken(ctx context.Context, id string) error
	// ConsumeResetToken atomically swaps in a new password, stamps changedAt and
	// clears the reset pair, provided tokenHash still matches and has not expired
	// at now. It returns ErrResetTokenNotFound and leaves the record untouched otherwise.
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, changedAt, now time.Time) (*User, error)
	// PurgeExpiredResetTokens clears reset pairs whose expiry is at or before now.
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// UserFilter allows narrowing user queries.
type UserFilter struct {
	Role UserRole
}
