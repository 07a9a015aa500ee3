package httpserver

import (
	"context"
	"sync"
	"time"

	authdomain "taskaty/backend/internal/domain/auth"
	projectdomain "taskaty/backend/internal/domain/project"
	authusecase "taskaty/backend/internal/usecase/auth"

	"github.com/jackc/pgx/v5/pgconn"
)

type memUsers struct {
	mu    sync.Mutex
	items map[string]authdomain.User
}

func newMemUsers() *memUsers {
	return &memUsers{items: map[string]authdomain.User{}}
}

func (m *memUsers) Create(_ context.Context, u *authdomain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.Email == u.Email {
			return uniqueEmailViolation(u.Email)
		}
	}
	m.items[u.ID] = *u
	return nil
}

func (m *memUsers) find(match func(authdomain.User) bool) (*authdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if match(u) {
			c := u
			return &c, nil
		}
	}
	return nil, authdomain.ErrUserNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*authdomain.User, error) {
	return m.find(func(u authdomain.User) bool { return u.Email == email })
}

func (m *memUsers) GetByID(_ context.Context, id string) (*authdomain.User, error) {
	return m.find(func(u authdomain.User) bool { return u.ID == id })
}

func (m *memUsers) List(_ context.Context, f authdomain.UserFilter) ([]*authdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*authdomain.User{}
	for _, u := range m.items {
		if f.Role == "" || u.Role == f.Role {
			c := u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memUsers) Update(_ context.Context, u *authdomain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.items[u.ID]
	if !ok {
		return authdomain.ErrUserNotFound
	}
	existing.FirstName, existing.LastName, existing.Age = u.FirstName, u.LastName, u.Age
	existing.PhotoURL, existing.Email, existing.Role, existing.UpdatedAt = u.PhotoURL, u.Email, u.Role, u.UpdatedAt
	m.items[u.ID] = existing
	return nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return authdomain.ErrUserNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memUsers) DeleteAll(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.items))
	m.items = map[string]authdomain.User{}
	return n, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string, changedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return authdomain.ErrUserNotFound
	}
	u.PasswordHash, u.PasswordChangedAt = &hash, &changedAt
	m.items[id] = u
	return nil
}

func (m *memUsers) SetResetToken(_ context.Context, id, hash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return authdomain.ErrUserNotFound
	}
	u.PasswordResetTokenHash, u.PasswordResetExpiresAt = &hash, &expiresAt
	m.items[id] = u
	return nil
}

func (m *memUsers) ClearResetToken(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.items[id]
	u.PasswordResetTokenHash, u.PasswordResetExpiresAt = nil, nil
	m.items[id] = u
	return nil
}

func (m *memUsers) ConsumeResetToken(_ context.Context, tokenHash, hash string, changedAt, now time.Time) (*authdomain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, u := range m.items {
		if u.PasswordResetTokenHash == nil || *u.PasswordResetTokenHash != tokenHash {
			continue
		}
		if u.PasswordResetExpiresAt == nil || !u.PasswordResetExpiresAt.After(now) {
			return nil, authdomain.ErrResetTokenNotFound
		}
		u.PasswordHash, u.PasswordChangedAt = &hash, &changedAt
		u.PasswordResetTokenHash, u.PasswordResetExpiresAt = nil, nil
		m.items[id] = u
		c := u
		return &c, nil
	}
	return nil, authdomain.ErrResetTokenNotFound
}

func (m *memUsers) PurgeExpiredResetTokens(context.Context, time.Time) (int64, error) {
	return 0, nil
}

type memProjects struct {
	mu    sync.Mutex
	items map[string]projectdomain.Project
}

func newMemProjects() *memProjects {
	return &memProjects{items: map[string]projectdomain.Project{}}
}

func (m *memProjects) Create(_ context.Context, p *projectdomain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.ID] = *p
	return nil
}

func (m *memProjects) GetByID(_ context.Context, ownerID, id string) (*projectdomain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.OwnerID != ownerID {
		return nil, projectdomain.ErrNotFound
	}
	return &p, nil
}

func (m *memProjects) List(_ context.Context, q projectdomain.ListQuery) ([]*projectdomain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*projectdomain.Project{}
	for _, p := range m.items {
		if p.OwnerID == q.OwnerID && (q.Status == nil || p.Status == *q.Status) {
			c := p
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memProjects) Update(_ context.Context, p *projectdomain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.ID] = *p
	return nil
}

func (m *memProjects) Delete(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok || p.OwnerID != ownerID {
		return projectdomain.ErrNotFound
	}
	delete(m.items, id)
	return nil
}

type outbox struct {
	mu   sync.Mutex
	sent []authusecase.Message
}

func (o *outbox) Send(_ context.Context, msg authusecase.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) last() authusecase.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		return authusecase.Message{}
	}
	return o.sent[len(o.sent)-1]
}

// uniqueEmailViolation is what the users_email_key constraint reports.
func uniqueEmailViolation(email string) error {
	return &pgconn.PgError{
		Code:           "23505",
		ConstraintName: "users_email_key",
		Detail:         "Key (email)=(" + email + ") already exists.",
	}
}
