package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Kinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"application error passes through", New(KindForbidden), KindForbidden},
		{"wrapped application error", fmt.Errorf("gate: %w", New(KindTokenMissing)), KindTokenMissing},
		{"expired jwt", fmt.Errorf("parse: %w", jwt.ErrTokenExpired), KindTokenExpired},
		{"bad signature", fmt.Errorf("parse: %w", jwt.ErrTokenSignatureInvalid), KindTokenInvalid},
		{"malformed jwt", jwt.ErrTokenMalformed, KindTokenInvalid},
		{"unique violation", &pgconn.PgError{Code: "23505"}, KindDuplicateValue},
		{"not null violation", &pgconn.PgError{Code: "23502", ColumnName: "email"}, KindMissingField},
		{"invalid uuid text", &pgconn.PgError{Code: "22P02"}, KindTypeMismatch},
		{"check violation", &pgconn.PgError{Code: "23514", ConstraintName: "users_age_check"}, KindInvalidInput},
		{"unknown pg error", &pgconn.PgError{Code: "40001"}, KindInternal},
		{"no rows", fmt.Errorf("find: %w", pgx.ErrNoRows), KindResourceNotFound},
		{"validation errors", validation.Errors{"email": errors.New("must be a valid email address")}, KindInvalidInput},
		{"json type error", &json.UnmarshalTypeError{Field: "age", Value: "string", Type: reflect.TypeOf(0)}, KindTypeMismatch},
		{"body too large", &http.MaxBytesError{Limit: 32}, KindInvalidInput},
		{"anything else", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.Kind())
		})
	}
}

func TestNormalize_Nil(t *testing.T) {
	assert.Nil(t, Normalize(nil))
}

func TestNormalize_UniqueViolationDetails(t *testing.T) {
	err := &pgconn.PgError{
		Code:           "23505",
		TableName:      "users",
		ConstraintName: "users_email_key",
		Detail:         "Key (email)=(jane@example.com) already exists.",
	}

	got := Normalize(err)
	require.Equal(t, KindDuplicateValue, got.Kind())
	assert.Equal(t, []Detail{{Field: "email", Value: "jane@example.com"}}, got.Details())
	assert.Equal(t, http.StatusConflict, got.Status())
}

func TestNormalize_UniqueViolationFallsBackToConstraint(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", TableName: "users", ConstraintName: "users_email_key"}

	got := Normalize(err)
	assert.Equal(t, []Detail{{Field: "email"}}, got.Details())
}

func TestNormalize_ValidationDetailsSortedAndFlattened(t *testing.T) {
	err := validation.Errors{
		"password":        errors.New("the length must be between 8 and 100"),
		"passwordConfirm": errors.New("passwords do not match"),
		"oauth": validation.Errors{
			"provider": errors.New("must be a valid value"),
		},
	}

	got := Normalize(err)
	assert.Equal(t, []Detail{
		{Field: "oauth.provider", Message: "must be a valid value"},
		{Field: "password", Message: "the length must be between 8 and 100"},
		{Field: "passwordConfirm", Message: "passwords do not match"},
	}, got.Details())
}

func TestResponse_UniformShape(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name       string
		err        *Error
		dev        bool
		wantStatus string
		wantCode   string
		wantMsg    string
	}{
		{"operational auth error", New(KindInvalidCredentials), false, StatusFail, "INVALID_CREDENTIALS", "Incorrect email or password"},
		{"internal masked in production", Internal(errors.New("db exploded")), false, StatusError, "INTERNAL_ERROR", "Something went wrong"},
		{"internal revealed in development", Internal(errors.New("db exploded")), true, StatusError, "INTERNAL_ERROR", "db exploded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.err.Response(now, tt.dev)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			assert.Equal(t, tt.wantMsg, body.Error.Message)
			assert.Equal(t, "2026-01-02T03:04:05Z", body.Error.Timestamp)
			assert.NotNil(t, body.Error.Details)

			raw, err := json.Marshal(body)
			require.NoError(t, err)
			var decoded map[string]map[string]any
			require.NoError(t, json.Unmarshal(raw, &decoded))
			for _, field := range []string{"message", "type", "code", "details", "timestamp"} {
				assert.Contains(t, decoded["error"], field)
			}
		})
	}
}

func TestResponse_ProductionHidesStack(t *testing.T) {
	body := Internal(errors.New("secret detail")).Response(time.Now(), false)
	assert.Empty(t, body.Error.Stack)
	assert.NotContains(t, body.Error.Message, "secret")

	dev := Internal(errors.New("secret detail")).Response(time.Now(), true)
	assert.NotEmpty(t, dev.Error.Stack)
}

func TestError_ImmutableCopies(t *testing.T) {
	base := New(KindInvalidInput)
	withDetail := base.WithDetails(Detail{Field: "email"})
	withMsg := base.WithMessage("custom %d", 1)

	assert.Empty(t, base.Details())
	assert.Len(t, withDetail.Details(), 1)
	assert.Equal(t, "Invalid input data", base.Message())
	assert.Equal(t, "custom 1", withMsg.Message())
	assert.True(t, errors.Is(withDetail, New(KindInvalidInput)))
	assert.False(t, errors.Is(withDetail, New(KindForbidden)))
}

func TestKind_StatusClasses(t *testing.T) {
	for kind := range definitions {
		status := kind.Status()
		switch kind.Type() {
		case TypeAuth:
			assert.Contains(t, []int{401, 403}, status, kind.Code())
		case TypeValidation:
			assert.Contains(t, []int{400, 409}, status, kind.Code())
		case TypeNotFound:
			assert.Equal(t, 404, status, kind.Code())
		}
	}
	assert.False(t, New(KindInternal).Operational())
	assert.True(t, New(KindResetTokenInvalid).Operational())
}
