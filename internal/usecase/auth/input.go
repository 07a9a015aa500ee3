package auth

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	domain "taskaty/backend/internal/domain/auth"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

var (
	hasLower = regexp.MustCompile(`[a-z]`)
	hasUpper = regexp.MustCompile(`[A-Z]`)
	hasDigit = regexp.MustCompile(`[0-9]`)
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// PasswordRules apply to every password a user chooses.
var PasswordRules = []validation.Rule{
	validation.Required,
	validation.Length(8, 100),
	validation.By(maxBytes(MaxPasswordBytes)),
	validation.Match(hasLower).Error("must contain at least one lowercase letter"),
	validation.Match(hasUpper).Error("must contain at least one uppercase letter"),
	validation.Match(hasDigit).Error("must contain at least one number"),
}

// EmailRules apply to addresses stored on an account.
var EmailRules = []validation.Rule{
	validation.Required,
	validation.Length(5, 255),
	is.Email,
}

// PhotoURLRules apply to an optional profile photo.
var PhotoURLRules = []validation.Rule{
	validation.Length(0, 255),
	is.URL,
}

// NameRules apply to first and last names.
var NameRules = []validation.Rule{
	validation.Required,
	validation.Length(2, 50),
}

// AgeRules bound the age field.
var AgeRules = []validation.Rule{
	validation.Min(0),
	validation.Max(120),
}

// maxBytes bounds the encoded size, which Length does not since it counts runes.
func maxBytes(limit int) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if len(s) > limit {
			return fmt.Errorf("cannot exceed %d bytes", limit)
		}
		return nil
	}
}

func matches(other string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s != other {
			return errors.New("passwords do not match")
		}
		return nil
	}
}

func validOAuth(value interface{}) error {
	id, _ := value.(*domain.OAuthIdentity)
	if id == nil {
		return nil
	}
	return validation.Errors{
		"provider": validation.Validate(string(id.Provider), validation.Required,
			validation.In(string(domain.ProviderGoogle), string(domain.ProviderFacebook), string(domain.ProviderGithub))),
	}.Filter()
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignupInput contains the payload for account creation.
type SignupInput struct {
	FirstName       string                `json:"firstName"`
	LastName        string                `json:"lastName"`
	Age             int                   `json:"age"`
	Email           string                `json:"email"`
	PhotoURL        string                `json:"photoUrl"`
	Password        string                `json:"password"`
	PasswordConfirm string                `json:"passwordConfirm"`
	OAuth           *domain.OAuthIdentity `json:"oauth"`
}

func (in *SignupInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = NormalizeEmail(in.Email)
	in.PhotoURL = strings.TrimSpace(in.PhotoURL)
}

// Validate checks the signup payload.
func (in SignupInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.FirstName, NameRules...),
		validation.Field(&in.LastName, NameRules...),
		validation.Field(&in.Age, AgeRules...),
		validation.Field(&in.Email, EmailRules...),
		validation.Field(&in.PhotoURL, PhotoURLRules...),
		validation.Field(&in.Password, PasswordRules...),
		validation.Field(&in.PasswordConfirm, validation.Required, validation.By(matches(in.Password))),
		validation.Field(&in.OAuth, validation.By(validOAuth)),
	)
}

// LoginInput carries login credentials.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login payload.
func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
		validation.Field(&in.Password, validation.Required),
	)
}

// ForgotPasswordInput names the account to recover.
type ForgotPasswordInput struct {
	Email string `json:"email"`
}

// Validate checks the forgot-password payload.
func (in ForgotPasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Email, validation.Required, is.Email),
	)
}

// ResetPasswordInput carries the new password for a reset.
type ResetPasswordInput struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Validate checks the reset payload.
func (in ResetPasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Password, PasswordRules...),
		validation.Field(&in.PasswordConfirm, validation.Required, validation.By(matches(in.Password))),
	)
}

// UpdatePasswordInput carries a password change for a signed-in user.
type UpdatePasswordInput struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	PasswordConfirm string `json:"passwordConfirm"`
}

// Validate checks the update payload.
func (in UpdatePasswordInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.CurrentPassword, validation.Required),
		validation.Field(&in.NewPassword, PasswordRules...),
		validation.Field(&in.PasswordConfirm, validation.Required, validation.By(matches(in.NewPassword))),
	)
}
