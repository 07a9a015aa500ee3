package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskaty/backend/internal/apperror"
	domain "taskaty/backend/internal/domain/auth"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultResetTokenTTL bounds how long a reset token stays usable.
const DefaultResetTokenTTL = 10 * time.Minute

// forgotPasswordMessage is returned whether or not the account exists.
const forgotPasswordMessage = "If an account with that email exists, a password reset link has been sent."

// Dependencies groups the collaborators of the auth service.
type Dependencies struct {
	Users         domain.UserRepository
	Hasher        PasswordHasher
	Tokens        TokenManager
	ResetTokens   ResetTokenGenerator
	Mailer        Mailer
	Events        EventPublisher
	Logger        *zap.Logger
	ResetTokenTTL time.Duration
}

// Service coordinates authentication workflows between domain and infrastructure.
type Service struct {
	users    domain.UserRepository
	hasher   PasswordHasher
	tokens   TokenManager
	resets   ResetTokenGenerator
	mailer   Mailer
	events   EventPublisher
	logger   *zap.Logger
	resetTTL time.Duration
	nowFunc  func() time.Time
}

// NewService constructs an auth service.
func NewService(deps Dependencies) *Service {
	ttl := deps.ResetTokenTTL
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		users:    deps.Users,
		hasher:   deps.Hasher,
		tokens:   deps.Tokens,
		resets:   deps.ResetTokens,
		mailer:   deps.Mailer,
		events:   deps.Events,
		logger:   logger,
		resetTTL: ttl,
		nowFunc:  time.Now,
	}
}

// Session is the outcome of every flow that signs a user in.
type Session struct {
	Token string
	User  *domain.User
}

// Signup creates a user and opens a session for it.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	in.normalize()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, apperror.New(apperror.KindDuplicateValue, apperror.Detail{Field: "email", Value: in.Email})
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, changedAt, err := s.newCredential(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.nowFunc().UTC()
	photo := in.PhotoURL
	if photo == "" {
		photo = domain.DefaultPhotoURL
	}
	user := &domain.User{
		ID:                uuid.NewString(),
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Age:               in.Age,
		PhotoURL:          photo,
		Email:             in.Email,
		Role:              domain.RoleUser,
		OAuth:             in.OAuth,
		PasswordHash:      &hash,
		PasswordChangedAt: &changedAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.sendBestEffort(ctx, Message{
		To:      user.Email,
		Subject: "Welcome to Taskaty",
		Text:    fmt.Sprintf("Hi %s,\n\nYour account is ready. Welcome aboard!\n", user.FirstName),
	}, "welcome")
	s.publish(ctx, EventSignedUp, user.ID)

	return s.openSession(user)
}

// Login validates credentials and opens a session. Unknown emails and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperror.New(apperror.KindInvalidCredentials)
		}
		return nil, err
	}

	if err := s.checkPassword(user, in.Password); err != nil {
		return nil, err
	}

	s.publish(ctx, EventLoggedIn, user.ID)
	return s.openSession(user)
}

// ForgotPassword issues a reset token for a known email and mails resetURL(token)
// to it. The outcome is the same message for known and unknown emails. A token
// that cannot be delivered is revoked.
func (s *Service) ForgotPassword(ctx context.Context, in ForgotPasswordInput, resetURL func(token string) string) (string, error) {
	in.Email = NormalizeEmail(in.Email)
	if err := in.Validate(); err != nil {
		return "", err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Debug("Password reset requested for unknown email")
			return forgotPasswordMessage, nil
		}
		return "", err
	}

	plaintext, hash, err := s.resets.Generate()
	if err != nil {
		return "", err
	}
	expiresAt := s.nowFunc().UTC().Add(s.resetTTL)
	if err := s.users.SetResetToken(ctx, user.ID, hash, expiresAt); err != nil {
		return "", err
	}

	msg := Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Your password reset token (valid for %s)", humanDuration(s.resetTTL)),
		Text: fmt.Sprintf("Forgot your password? Submit a request with your new password and passwordConfirm to:\n%s\n\n"+
			"If you didn't forget your password, please ignore this email.\n", resetURL(plaintext)),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("Failed to deliver password reset email, revoking token",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		// The request may already be cancelled; revocation must still run.
		if err := s.users.ClearResetToken(context.WithoutCancel(ctx), user.ID); err != nil {
			s.logger.Error("Failed to revoke undeliverable reset token",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
		}
		return forgotPasswordMessage, nil
	}

	s.publish(ctx, EventPasswordResetRequested, user.ID)
	return forgotPasswordMessage, nil
}

// ResetPassword consumes a reset token and sets a new password in one step.
// Unknown, used and expired tokens are indistinguishable to the caller, and a
// failed attempt leaves the stored token untouched.
func (s *Service) ResetPassword(ctx context.Context, plaintext string, in ResetPasswordInput) (*Session, error) {
	plaintext = strings.TrimSpace(plaintext)
	if plaintext == "" {
		return nil, apperror.New(apperror.KindResetTokenInvalid)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	hash, changedAt, err := s.newCredential(in.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.ConsumeResetToken(ctx, s.resets.Hash(plaintext), hash, changedAt, s.nowFunc().UTC())
	if err != nil {
		if errors.Is(err, domain.ErrResetTokenNotFound) {
			return nil, apperror.New(apperror.KindResetTokenInvalid)
		}
		return nil, err
	}

	s.publish(ctx, EventPasswordResetCompleted, user.ID)
	return s.openSession(user)
}

// UpdatePassword changes the password of a signed-in user after checking the
// current one, and opens a fresh session. Sessions issued before the change stop working.
func (s *Service) UpdatePassword(ctx context.Context, userID string, in UpdatePasswordInput) (*Session, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperror.New(apperror.KindUserNoLongerExist)
		}
		return nil, err
	}

	if err := s.checkPassword(user, in.CurrentPassword); err != nil {
		return nil, err
	}
	if err := s.changePassword(ctx, user, in.NewPassword); err != nil {
		return nil, err
	}

	s.publish(ctx, EventPasswordUpdated, user.ID)
	return s.openSession(user)
}

// SetPassword replaces the password of the account registered under email
// without checking the old one. Existing sessions stop working.
func (s *Service) SetPassword(ctx context.Context, email, password string) (*domain.User, error) {
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperror.New(apperror.KindResourceNotFound).WithMessage("No user found with that email")
		}
		return nil, err
	}
	if err := s.changePassword(ctx, user, password); err != nil {
		return nil, err
	}
	s.publish(ctx, EventPasswordUpdated, user.ID)
	return user, nil
}

// Authenticate resolves the user behind a session token. It rejects missing,
// invalid and expired tokens, deleted users and tokens issued before the
// user's last password change.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperror.New(apperror.KindTokenMissing)
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperror.Normalize(err)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, apperror.New(apperror.KindUserNoLongerExist)
		}
		return nil, err
	}

	if user.ChangedPasswordAfter(claims.IssuedAt) {
		return nil, apperror.New(apperror.KindTokenExpired).
			WithMessage("Password was changed recently. Please log in again.")
	}
	return user, nil
}

// RestrictTo fails closed with FORBIDDEN unless the user holds one of roles.
func RestrictTo(user *domain.User, roles ...domain.UserRole) error {
	if user != nil {
		for _, role := range roles {
			if user.Role == role {
				return nil
			}
		}
	}
	return apperror.New(apperror.KindForbidden).WithMessage("You do not have permission to perform this action")
}

// ForgotPasswordMessage is the fixed response to every forgot-password request.
func ForgotPasswordMessage() string { return forgotPasswordMessage }

// changePassword is the only path that writes a password hash for an existing
// user; hash and change timestamp are always stored together.
func (s *Service) changePassword(ctx context.Context, user *domain.User, password string) error {
	hash, changedAt, err := s.newCredential(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash, changedAt); err != nil {
		return err
	}
	user.PasswordHash = &hash
	user.PasswordChangedAt = &changedAt
	user.UpdatedAt = changedAt
	return nil
}

// newCredential hashes password and returns the change timestamp at the
// whole-second precision of session token timestamps.
func (s *Service) newCredential(password string) (string, time.Time, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", time.Time{}, apperror.Internal(err)
	}
	return hash, s.nowFunc().UTC().Truncate(time.Second), nil
}

func (s *Service) checkPassword(user *domain.User, password string) error {
	if !user.HasPassword() {
		return apperror.New(apperror.KindInvalidCredentials)
	}
	ok, err := s.hasher.Verify(*user.PasswordHash, password)
	if err != nil {
		return apperror.Internal(fmt.Errorf("stored password hash for user %s is unusable: %w", user.ID, err))
	}
	if !ok {
		return apperror.New(apperror.KindInvalidCredentials)
	}
	return nil
}

func (s *Service) openSession(user *domain.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &Session{Token: token, User: user}, nil
}

func (s *Service) sendBestEffort(ctx context.Context, msg Message, kind string) {
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.logger.Warn("Failed to deliver email", zap.String("kind", kind), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, eventType, userID string) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, Event{Type: eventType, UserID: userID, OccurredAt: s.nowFunc().UTC()})
}

func validatePassword(password string) error {
	return validation.Errors{"password": validation.Validate(password, PasswordRules...)}.Filter()
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d min", int(d/time.Minute))
	}
	return d.String()
}
