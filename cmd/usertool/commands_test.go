package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	authdomain "taskaty/backend/internal/domain/auth"
	userusecase "taskaty/backend/internal/usecase/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdmin struct {
	created []userusecase.CreateInput
	deleted bool
}

func (f *fakeAdmin) Create(_ context.Context, in userusecase.CreateInput) (*authdomain.User, error) {
	f.created = append(f.created, in)
	return &authdomain.User{ID: "u-1", Email: in.Email, Role: authdomain.UserRole(in.Role)}, nil
}

func (f *fakeAdmin) DeleteAll(context.Context) (int64, error) {
	f.deleted = true
	return 4, nil
}

type fakePasswords struct {
	email, password string
	err             error
}

func (f *fakePasswords) SetPassword(_ context.Context, email, password string) (*authdomain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.email, f.password = email, password
	return &authdomain.User{ID: "u-7", Email: email}, nil
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := readPassword
	t.Cleanup(func() { readPassword = orig })
	readPassword = func(int) ([]byte, error) {
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}
}

func TestCreateAdmin(t *testing.T) {
	stubPasswords(t, "Abcd1234", "Abcd1234")
	admin := &fakeAdmin{}
	var out bytes.Buffer

	err := execute(context.Background(), []string{"create-admin", "-email", "ops@example.com"}, services{users: admin}, &out)
	require.NoError(t, err)

	require.Len(t, admin.created, 1)
	assert.Equal(t, "admin", admin.created[0].Role)
	assert.Equal(t, "Abcd1234", admin.created[0].Password)
	assert.Contains(t, out.String(), "Created admin ops@example.com")
}

func TestCreateAdmin_PasswordMismatch(t *testing.T) {
	stubPasswords(t, "Abcd1234", "Abcd12345")
	admin := &fakeAdmin{}

	err := execute(context.Background(), []string{"create-admin", "-email", "ops@example.com"}, services{users: admin}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "do not match")
	assert.Empty(t, admin.created)
}

func TestCreateAdmin_RequiresEmail(t *testing.T) {
	err := execute(context.Background(), []string{"create-admin"}, services{users: &fakeAdmin{}}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "-email is required")
}

func TestSetPassword(t *testing.T) {
	stubPasswords(t, "Newpass123", "Newpass123")
	passwords := &fakePasswords{}
	var out bytes.Buffer

	err := execute(context.Background(), []string{"set-password", "-email", "ops@example.com"}, services{passwords: passwords}, &out)
	require.NoError(t, err)

	assert.Equal(t, "ops@example.com", passwords.email)
	assert.Equal(t, "Newpass123", passwords.password)
	assert.Contains(t, out.String(), "Password updated for ops@example.com (u-7)")
}

func TestSetPassword_Failures(t *testing.T) {
	err := execute(context.Background(), []string{"set-password"}, services{passwords: &fakePasswords{}}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "-email is required")

	stubPasswords(t, "Newpass123", "Other1234")
	passwords := &fakePasswords{}
	err = execute(context.Background(), []string{"set-password", "-email", "ops@example.com"}, services{passwords: passwords}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "do not match")
	assert.Empty(t, passwords.password)

	stubPasswords(t, "Newpass123", "Newpass123")
	notFound := errors.New("no user found with that email")
	err = execute(context.Background(), []string{"set-password", "-email", "ghost@example.com"}, services{passwords: &fakePasswords{err: notFound}}, &bytes.Buffer{})
	assert.ErrorIs(t, err, notFound)
}

func TestDeleteAllUsers(t *testing.T) {
	admin := &fakeAdmin{}

	err := execute(context.Background(), []string{"delete-all-users"}, services{users: admin}, &bytes.Buffer{})
	assert.ErrorContains(t, err, "-yes")
	assert.False(t, admin.deleted)

	var out bytes.Buffer
	require.NoError(t, execute(context.Background(), []string{"delete-all-users", "-yes"}, services{users: admin}, &out))
	assert.True(t, admin.deleted)
	assert.Equal(t, "Deleted 4 users\n", out.String())
}

func TestExecute_Usage(t *testing.T) {
	assert.ErrorIs(t, execute(context.Background(), nil, services{users: &fakeAdmin{}}, &bytes.Buffer{}), errUsage)
	assert.ErrorIs(t, execute(context.Background(), []string{"drop"}, services{users: &fakeAdmin{}}, &bytes.Buffer{}), errUsage)
}
