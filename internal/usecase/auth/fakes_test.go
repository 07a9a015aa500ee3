package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	domain "taskaty/backend/internal/domain/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	err   error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func clone(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	if err := user.Validate(); err != nil {
		return err
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return uniqueEmailViolation(user.Email)
		}
	}
	r.users[user.ID] = clone(user)
	return nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *fakeUserRepo) List(_ context.Context, filter domain.UserFilter) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if filter.Role == "" || u.Role == filter.Role {
			out = append(out, clone(u))
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	r.users[user.ID] = clone(user)
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) DeleteAll(context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.users))
	r.users = make(map[string]*domain.User)
	return n, nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id, passwordHash string, changedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = &passwordHash
	u.PasswordChangedAt = &changedAt
	return nil
}

func (r *fakeUserRepo) SetResetToken(_ context.Context, id, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordResetTokenHash = &tokenHash
	u.PasswordResetExpiresAt = &expiresAt
	return nil
}

func (r *fakeUserRepo) ClearResetToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.PasswordResetTokenHash = nil
		u.PasswordResetExpiresAt = nil
	}
	return nil
}

func (r *fakeUserRepo) ConsumeResetToken(_ context.Context, tokenHash, passwordHash string, changedAt, now time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.PasswordResetTokenHash == nil || *u.PasswordResetTokenHash != tokenHash || !u.PasswordResetExpiresAt.After(now) {
			continue
		}
		u.PasswordHash = &passwordHash
		u.PasswordChangedAt = &changedAt
		u.PasswordResetTokenHash = nil
		u.PasswordResetExpiresAt = nil
		return clone(u), nil
	}
	return nil, domain.ErrResetTokenNotFound
}

func (r *fakeUserRepo) PurgeExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.PasswordResetExpiresAt != nil && !u.PasswordResetExpiresAt.After(now) {
			u.PasswordResetTokenHash = nil
			u.PasswordResetExpiresAt = nil
			n++
		}
	}
	return n, nil
}

func (r *fakeUserRepo) get(id string) *domain.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.users[id])
}

// fakeHasher prefixes instead of hashing so tests stay fast.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (fakeHasher) Verify(hash, password string) (bool, error) {
	if !strings.HasPrefix(hash, "hashed:") {
		return false, errors.New("malformed hash")
	}
	return hash == "hashed:"+password, nil
}

// fakeTokens encodes "userID|issuedAtUnix|expiresAtUnix".
type fakeTokens struct {
	clock *fakeClock
	ttl   time.Duration
}

func (f fakeTokens) Issue(userID string) (string, error) {
	now := f.clock.Now()
	return fmt.Sprintf("%s|%d|%d", userID, now.Unix(), now.Add(f.ttl).Unix()), nil
}

func (f fakeTokens) Verify(token string) (*SessionClaims, error) {
	parts := strings.Split(token, "|")
	if len(parts) != 3 {
		return nil, jwt.ErrTokenMalformed
	}
	iat, err1 := strconv.ParseInt(parts[1], 10, 64)
	exp, err2 := strconv.ParseInt(parts[2], 10, 64)
	if err1 != nil || err2 != nil {
		return nil, jwt.ErrTokenMalformed
	}
	if !f.clock.Now().Before(time.Unix(exp, 0)) {
		return nil, fmt.Errorf("token has invalid claims: %w", jwt.ErrTokenExpired)
	}
	return &SessionClaims{UserID: parts[0], IssuedAt: time.Unix(iat, 0).UTC()}, nil
}

type fakeResetTokens struct {
	mu sync.Mutex
	n  int
}

func (f *fakeResetTokens) Generate() (string, string, error) {
	f.mu.Lock()
	f.n++
	plain := fmt.Sprintf("reset-%d", f.n)
	f.mu.Unlock()
	return plain, f.Hash(plain), nil
}

func (f *fakeResetTokens) Hash(plaintext string) string { return "digest:" + plaintext }

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last() Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}

type fakeEvents struct {
	mu     sync.Mutex
	events []Event
}

func (f *fakeEvents) Publish(_ context.Context, e Event) {
	f.mu.Lock()
	f.events = append(f.events, e)
	f.mu.Unlock()
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

// uniqueEmailViolation is what the users_email_key constraint reports.
func uniqueEmailViolation(email string) error {
	return &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "users_email_key",
		Detail:         "Key (email)=(" + email + ") already exists.",
	}
}
