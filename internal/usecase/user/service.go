package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskaty/backend/internal/apperror"
	domain "taskaty/backend/internal/domain/auth"
	authusecase "taskaty/backend/internal/usecase/auth"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

// Service provides profile and administrative user management use cases.
type Service struct {
	repo    domain.UserRepository
	hasher  authusecase.PasswordHasher
	nowFunc func() time.Time
}

// NewService constructs a user service around the provided repository.
func NewService(repo domain.UserRepository, hasher authusecase.PasswordHasher) *Service {
	return &Service{
		repo:    repo,
		hasher:  hasher,
		nowFunc: time.Now,
	}
}

// Filter captures supported filters for listing users.
type Filter struct {
	Role string
}

// CreateInput defines the payload to create a user with a chosen role.
type CreateInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// Validate checks the create payload.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, authusecase.NameRules...),
		validation.Field(&in.LastName, authusecase.NameRules...),
		validation.Field(&in.Age, authusecase.AgeRules...),
		validation.Field(&in.Email, authusecase.EmailRules...),
		validation.Field(&in.Password, authusecase.PasswordRules...),
		validation.Field(&in.Role, validation.In(string(domain.RoleUser), string(domain.RoleAdmin))),
	)
}

// ProfileInput carries the self-service profile fields. Nil fields are left unchanged.
type ProfileInput struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Age       *int    `json:"age"`
	PhotoURL  *string `json:"photoUrl"`
}

// Validate checks the profile payload.
func (in ProfileInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, validation.NilOrNotEmpty, validation.Length(2, 50)),
		validation.Field(&in.LastName, validation.NilOrNotEmpty, validation.Length(2, 50)),
		validation.Field(&in.Age, authusecase.AgeRules...),
		validation.Field(&in.PhotoURL, authusecase.PhotoURLRules...),
	)
}

// UpdateInput defines the administrative update payload.
type UpdateInput struct {
	ProfileInput
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// Validate checks the administrative update payload.
func (in UpdateInput) Validate() error {
	if err := in.ProfileInput.Validate(); err != nil {
		return err
	}
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.NilOrNotEmpty, validation.Length(5, 255), is.Email),
		validation.Field(&in.Role, validation.NilOrNotEmpty, validation.In(string(domain.RoleUser), string(domain.RoleAdmin))),
	)
}

// List returns users matching the supplied filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*domain.User, error) {
	domainFilter := domain.UserFilter{}
	if trimmed := strings.TrimSpace(strings.ToLower(filter.Role)); trimmed != "" {
		role, err := ensureRole(trimmed, false)
		if err != nil {
			return nil, err
		}
		domainFilter.Role = role
	}

	users, err := s.repo.List(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	return sanitizeUsers(users), nil
}

// Get retrieves a single user by its identifier.
func (s *Service) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// Create persists a new user with the provided details.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.User, error) {
	input.Email = authusecase.NormalizeEmail(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	input.Role = strings.TrimSpace(strings.ToLower(input.Role))
	if err := input.Validate(); err != nil {
		return nil, err
	}

	role, err := ensureRole(input.Role, true)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperror.New(apperror.KindDuplicateValue, apperror.Detail{Field: "email", Value: input.Email})
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	now := s.nowFunc().UTC()
	changedAt := now.Truncate(time.Second)
	user := &domain.User{
		ID:                uuid.NewString(),
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Age:               input.Age,
		PhotoURL:          domain.DefaultPhotoURL,
		Email:             input.Email,
		Role:              role,
		PasswordHash:      &hashed,
		PasswordChangedAt: &changedAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return sanitizeUser(user), nil
}

// UpdateProfile applies self-service profile changes.
func (s *Service) UpdateProfile(ctx context.Context, id string, input ProfileInput) (*domain.User, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	applyProfile(user, input)

	user.UpdatedAt = s.nowFunc().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, mapNotFound(err)
	}
	return sanitizeUser(user), nil
}

// Update modifies the persisted user, including email and role.
func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*domain.User, error) {
	if input.Email != nil {
		email := authusecase.NormalizeEmail(*input.Email)
		input.Email = &email
	}
	if input.Role != nil {
		role := strings.TrimSpace(strings.ToLower(*input.Role))
		input.Role = &role
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	applyProfile(user, input.ProfileInput)
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Role != nil {
		role, err := ensureRole(*input.Role, true)
		if err != nil {
			return nil, err
		}
		user.Role = role
	}

	user.UpdatedAt = s.nowFunc().UTC()
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, mapNotFound(err)
	}

	return sanitizeUser(user), nil
}

// SetRole changes only the role of a user.
func (s *Service) SetRole(ctx context.Context, id, role string) (*domain.User, error) {
	return s.Update(ctx, id, UpdateInput{Role: &role})
}

// Delete removes the target user.
func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperror.New(apperror.KindMissingField, apperror.Detail{Field: "id"})
	}
	return mapNotFound(s.repo.Delete(ctx, id))
}

// DeleteAll removes every user and reports how many were removed.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	return s.repo.DeleteAll(ctx)
}

func (s *Service) load(ctx context.Context, id string) (*domain.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.New(apperror.KindMissingField, apperror.Detail{Field: "id"})
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return user, nil
}

func applyProfile(user *domain.User, in ProfileInput) {
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Age != nil {
		user.Age = *in.Age
	}
	if in.PhotoURL != nil {
		photo := strings.TrimSpace(*in.PhotoURL)
		if photo == "" {
			photo = domain.DefaultPhotoURL
		}
		user.PhotoURL = photo
	}
}

func mapNotFound(err error) error {
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperror.New(apperror.KindResourceNotFound).WithMessage("No user found with that ID")
	}
	return err
}

func ensureRole(raw string, defaultToUser bool) (domain.UserRole, error) {
	role := domain.UserRole(strings.TrimSpace(strings.ToLower(raw)))
	if role == "" {
		if defaultToUser {
			return domain.RoleUser, nil
		}
		return "", nil
	}
	if !role.Valid() {
		return "", apperror.Wrap(domain.ErrInvalidRole, apperror.KindInvalidInput, apperror.Detail{Field: "role", Value: raw})
	}
	return role, nil
}

func sanitizeUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	copy := *u
	copy.PasswordHash = nil
	copy.PasswordResetTokenHash = nil
	copy.PasswordResetExpiresAt = nil
	return &copy
}

func sanitizeUsers(items []*domain.User) []*domain.User {
	out := make([]*domain.User, 0, len(items))
	for _, item := range items {
		out = append(out, sanitizeUser(item))
	}
	return out
}
