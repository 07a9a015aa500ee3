// Package apperror defines the closed set of application error kinds and the
// single normalization step every failure passes through before it reaches a
// client.
package apperror

import (
	"fmt"
	"net/http"
)

// Kind enumerates every error the API can emit. Each kind is bound to exactly
// one status, type and code.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidCredentials
	KindTokenMissing
	KindTokenInvalid
	KindTokenExpired
	KindUserNoLongerExist
	KindForbidden
	KindResetTokenInvalid
	KindTypeMismatch
	KindDuplicateValue
	KindMissingField
	KindInvalidInput
	KindRouteNotFound
	KindResourceNotFound
	KindRateLimited
)

const (
	TypeAuth       = "auth_error"
	TypeValidation = "validation_error"
	TypeNotFound   = "not_found_error"
	TypeRateLimit  = "rate_limit_error"
	TypeServer     = "server_error"
)

type definition struct {
	status  int
	typ     string
	code    string
	message string
}

var definitions = map[Kind]definition{
	KindInternal:           {http.StatusInternalServerError, TypeServer, "INTERNAL_ERROR", "Something went wrong"},
	KindInvalidCredentials: {http.StatusUnauthorized, TypeAuth, "INVALID_CREDENTIALS", "Incorrect email or password"},
	KindTokenMissing:       {http.StatusUnauthorized, TypeAuth, "TOKEN_MISSING", "Authentication required"},
	KindTokenInvalid:       {http.StatusUnauthorized, TypeAuth, "TOKEN_INVALID", "Authentication failed"},
	KindTokenExpired:       {http.StatusUnauthorized, TypeAuth, "TOKEN_EXPIRED", "Authentication expired"},
	KindUserNoLongerExist:  {http.StatusUnauthorized, TypeAuth, "USER_NO_LONGER_EXIST", "Account no longer exists"},
	KindForbidden:          {http.StatusForbidden, TypeAuth, "FORBIDDEN", "Access denied"},
	KindResetTokenInvalid:  {http.StatusBadRequest, TypeValidation, "RESET_TOKEN_INVALID", "Password reset token is invalid or expired"},
	KindTypeMismatch:       {http.StatusBadRequest, TypeValidation, "TYPE_MISSMATCH", "Invalid data type provided"},
	KindDuplicateValue:     {http.StatusConflict, TypeValidation, "DUPLICATE_VALUE", "Duplicate value for a unique field. Please use a different value."},
	KindMissingField:       {http.StatusBadRequest, TypeValidation, "MISSING_FIELD", "Required field is missing"},
	KindInvalidInput:       {http.StatusBadRequest, TypeValidation, "INVALID_INPUT", "Invalid input data"},
	KindRouteNotFound:      {http.StatusNotFound, TypeNotFound, "ROUTE_NOT_FOUND", "The requested endpoint does not exist"},
	KindResourceNotFound:   {http.StatusNotFound, TypeNotFound, "RESOURCE_NOT_FOUND", "The requested resource not found"},
	KindRateLimited:        {http.StatusTooManyRequests, TypeRateLimit, "TOO_MANY_REQUESTS", "Too many requests from this IP, please try again in an hour"},
}

func (k Kind) def() definition {
	if d, ok := definitions[k]; ok {
		return d
	}
	return definitions[KindInternal]
}

// Status returns the HTTP status bound to the kind.
func (k Kind) Status() int { return k.def().status }

// Type returns the error family reported on the wire.
func (k Kind) Type() string { return k.def().typ }

// Code returns the machine-readable code.
func (k Kind) Code() string { return k.def().code }

// String implements fmt.Stringer.
func (k Kind) String() string { return k.def().code }

// Detail is one field-level entry attached to an error.
type Detail struct {
	Field   string `json:"field,omitempty"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message,omitempty"`
}

// Error is the typed application error. Values are immutable once built;
// the With* helpers return modified copies.
type Error struct {
	kind    Kind
	message string
	details []Detail
	cause   error
}

// New builds an error of the given kind with its default message.
func New(kind Kind, details ...Detail) *Error {
	return &Error{
		kind:    kind,
		message: kind.def().message,
		details: append([]Detail(nil), details...),
	}
}

// Wrap builds an error of the given kind that keeps cause for logging and
// development responses.
func Wrap(cause error, kind Kind, details ...Detail) *Error {
	e := New(kind, details...)
	e.cause = cause
	return e
}

// Internal wraps an unexpected failure.
func Internal(cause error) *Error {
	return Wrap(cause, KindInternal)
}

// WithMessage returns a copy carrying a custom message.
func (e *Error) WithMessage(format string, args ...any) *Error {
	c := e.clone()
	c.message = fmt.Sprintf(format, args...)
	return c
}

// WithDetails returns a copy with details appended.
func (e *Error) WithDetails(details ...Detail) *Error {
	c := e.clone()
	c.details = append(c.details, details...)
	return c
}

func (e *Error) clone() *Error {
	c := *e
	c.details = append([]Detail(nil), e.details...)
	return &c
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind.Code(), e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind.Code(), e.message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches another *Error of the same kind, so errors.Is(err, New(KindX))
// works regardless of message or details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.kind == e.kind
}

func (e *Error) Kind() Kind        { return e.kind }
func (e *Error) Status() int       { return e.kind.Status() }
func (e *Error) Code() string      { return e.kind.Code() }
func (e *Error) Type() string      { return e.kind.Type() }
func (e *Error) Message() string   { return e.message }
func (e *Error) Cause() error      { return e.cause }
func (e *Error) Details() []Detail { return append([]Detail(nil), e.details...) }

// Operational reports whether the error was anticipated and is safe to
// describe to the client verbatim.
func (e *Error) Operational() bool { return e.kind != KindInternal }
