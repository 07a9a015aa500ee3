package auth

import (
	"errors"
	"time"
)

var (
	// ErrUserNotFound indicates missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrResetTokenNotFound means no user holds an unexpired reset token with the given hash.
	ErrResetTokenNotFound = errors.New("reset token not found or expired")
	// ErrInvalidRole indicates the provided role is not supported.
	ErrInvalidRole = errors.New("invalid role")
	// ErrPasswordRequired is raised when a user without an external identity has no password hash.
	ErrPasswordRequired = errors.New("password hash required without an oauth provider")
	// ErrResetPairIncomplete is raised when only one of the reset token fields is set.
	ErrResetPairIncomplete = errors.New("reset token hash and expiry must be set together")
)

// UserRole identifies the privileges assigned to a user.
type UserRole string

const (
	// RoleUser represents a standard application user.
	RoleUser UserRole = "user"
	// RoleAdmin represents an administrative user.
	RoleAdmin UserRole = "admin"
)

// Valid reports whether the role is one of the known roles.
func (r UserRole) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// OAuthProvider names an external identity provider. Stored only; no login flow uses it.
type OAuthProvider string

const (
	ProviderGoogle   OAuthProvider = "google"
	ProviderFacebook OAuthProvider = "facebook"
	ProviderGithub   OAuthProvider = "github"
)

// OAuthIdentity references an account at an external identity provider.
type OAuthIdentity struct {
	Provider OAuthProvider `json:"provider"`
	ID       string        `json:"id,omitempty"`
}

// DefaultPhotoURL is assigned when signup carries no photo.
const DefaultPhotoURL = "default.jpg"

// User models the authentication entity persisted in storage.
type User struct {
	ID        string         `json:"id"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Age       int            `json:"age"`
	PhotoURL  string         `json:"photoUrl"`
	Email     string         `json:"email"`
	Role      UserRole       `json:"role"`
	OAuth     *OAuthIdentity `json:"oauth,omitempty"`

	PasswordHash           *string    `json:"-"`
	PasswordChangedAt      *time.Time `json:"-"`
	PasswordResetTokenHash *string    `json:"-"`
	PasswordResetExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate enforces the record rules the store relies on.
func (u *User) Validate() error {
	if u.PasswordHash == nil && (u.OAuth == nil || u.OAuth.Provider == "") {
		return ErrPasswordRequired
	}
	if (u.PasswordResetTokenHash == nil) != (u.PasswordResetExpiresAt == nil) {
		return ErrResetPairIncomplete
	}
	return nil
}

// HasPassword reports whether the user can authenticate with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// ChangedPasswordAfter reports whether the password was changed after a
// session issued at issuedAt. Both sides are compared at whole-second
// precision, the resolution of JWT timestamps.
func (u *User) ChangedPasswordAfter(issuedAt time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return issuedAt.Truncate(time.Second).Before(u.PasswordChangedAt.Truncate(time.Second))
}
