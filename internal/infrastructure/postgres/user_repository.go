package postgres

import (
	"context"
	stderrors "errors"
	"time"

	domain "taskaty/backend/internal/domain/auth"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pkg/errors"
)

const userColumns = `id, first_name, last_name, age, photo_url, email, role, password_hash,
oauth_provider, oauth_id, password_changed_at, password_reset_token_hash,
password_reset_expires_at, created_at, updated_at`

// UserRepository persists users in PostgreSQL.
type UserRepository struct {
	db DBTX
}

// NewUserRepository constructs a repository.
func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

var _ domain.UserRepository = (*UserRepository)(nil)

// Create inserts a new user record. Duplicate emails surface as the raw
// unique violation so the error normalizer can report the field.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	const query = `
INSERT INTO users (id, first_name, last_name, age, photo_url, email, role, password_hash,
	oauth_provider, oauth_id, password_changed_at, password_reset_token_hash,
	password_reset_expires_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
`
	provider, oauthID := oauthColumns(user.OAuth)
	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Age,
		user.PhotoURL,
		user.Email,
		string(user.Role),
		user.PasswordHash,
		provider,
		oauthID,
		user.PasswordChangedAt,
		user.PasswordResetTokenHash,
		user.PasswordResetExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// GetByEmail fetches a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

// GetByID retrieves a user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// List returns users filtered by the provided criteria.
func (r *UserRepository) List(ctx context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users `
	var args []any
	if filter.Role != "" {
		query += "WHERE role = $1 "
		args = append(args, string(filter.Role))
	}
	query += "ORDER BY created_at DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	return users, nil
}

// Update modifies profile fields and role. Credential columns are written only
// through UpdatePassword and the reset token methods.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
UPDATE users
SET first_name = $2, last_name = $3, age = $4, photo_url = $5, email = $6, role = $7, updated_at = $8
WHERE id = $1
`
	ct, err := r.db.Exec(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Age,
		user.PhotoURL,
		user.Email,
		string(user.Role),
		user.UpdatedAt,
	)
	if err != nil {
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete removes a user by id.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// DeleteAll removes every user and returns how many were deleted.
func (r *UserRepository) DeleteAll(ctx context.Context) (int64, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM users`)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return ct.RowsAffected(), nil
}

// UpdatePassword stores a new hash together with its change timestamp.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string, changedAt time.Time) error {
	const query = `
UPDATE users
SET password_hash = $2, password_changed_at = $3, updated_at = $3
WHERE id = $1
`
	ct, err := r.db.Exec(ctx, query, id, passwordHash, changedAt)
	if err != nil {
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SetResetToken replaces any outstanding reset token of the user.
func (r *UserRepository) SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error {
	const query = `
UPDATE users
SET password_reset_token_hash = $2, password_reset_expires_at = $3
WHERE id = $1
`
	ct, err := r.db.Exec(ctx, query, id, tokenHash, expiresAt)
	if err != nil {
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ClearResetToken drops the reset token pair.
func (r *UserRepository) ClearResetToken(ctx context.Context, id string) error {
	const query = `
UPDATE users
SET password_reset_token_hash = NULL, password_reset_expires_at = NULL
WHERE id = $1
`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// ConsumeResetToken performs the match, expiry check, password write and
// token clear in one statement, so a token can be used at most once.
func (r *UserRepository) ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string, changedAt, now time.Time) (*domain.User, error) {
	query := `
UPDATE users
SET password_hash = $2,
    password_changed_at = $3,
    password_reset_token_hash = NULL,
    password_reset_expires_at = NULL,
    updated_at = $3
WHERE password_reset_token_hash = $1 AND password_reset_expires_at > $4
RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, tokenHash, passwordHash, changedAt, now))
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrResetTokenNotFound
		}
		return nil, errors.WithStack(err)
	}
	return user, nil
}

// PurgeExpiredResetTokens clears reset pairs that expired at or before now.
func (r *UserRepository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	const query = `
UPDATE users
SET password_reset_token_hash = NULL, password_reset_expires_at = NULL
WHERE password_reset_expires_at IS NOT NULL AND password_reset_expires_at <= $1
`
	ct, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return ct.RowsAffected(), nil
}

func oauthColumns(id *domain.OAuthIdentity) (*string, *string) {
	if id == nil || id.Provider == "" {
		return nil, nil
	}
	provider := string(id.Provider)
	var oauthID *string
	if id.ID != "" {
		v := id.ID
		oauthID = &v
	}
	return &provider, oauthID
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u                                          domain.User
		role                                       string
		passwordHash, provider, oauthID, resetHash pgtype.Text
		changedAt, resetExpiresAt                  pgtype.Timestamptz
	)
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Age,
		&u.PhotoURL,
		&u.Email,
		&role,
		&passwordHash,
		&provider,
		&oauthID,
		&changedAt,
		&resetHash,
		&resetExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.Role = domain.UserRole(role)
	u.PasswordHash = textPtr(passwordHash)
	u.PasswordResetTokenHash = textPtr(resetHash)
	u.PasswordChangedAt = timestamptzPtr(changedAt)
	u.PasswordResetExpiresAt = timestamptzPtr(resetExpiresAt)
	if provider.Valid {
		u.OAuth = &domain.OAuthIdentity{Provider: domain.OAuthProvider(provider.String), ID: oauthID.String}
	}
	return &u, nil
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	v := t.String
	return &v
}

func timestamptzPtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
