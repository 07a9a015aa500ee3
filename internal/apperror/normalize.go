package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes the normalizer understands.
const (
	pgUniqueViolation  = "23505"
	pgNotNullViolation = "23502"
	pgCheckViolation   = "23514"
	pgStringTooLong    = "22001"
	pgInvalidTextRepr  = "22P02"
	pgInvalidDatetime  = "22007"
	pgDatetimeOverflow = "22008"
)

var uniqueDetailPattern = regexp.MustCompile(`Key \((.+?)\)=\((.*)\) already exists`)

// Normalize maps any failure onto the closed set of kinds. It never returns
// nil for a non-nil err; unknown failures become KindInternal.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return Wrap(err, KindTokenExpired)
	}
	if isJWTFailure(err) {
		return Wrap(err, KindTokenInvalid)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromPgError(err, pgErr)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return Wrap(err, KindResourceNotFound)
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return Wrap(err, KindInvalidInput, ValidationDetails(verrs)...)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return Wrap(err, KindTypeMismatch, Detail{
			Field:   typeErr.Field,
			Value:   typeErr.Value,
			Message: fmt.Sprintf("expected %s", typeErr.Type),
		})
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return Wrap(err, KindInvalidInput).
			WithMessage("Request body exceeds %d bytes", maxBytesErr.Limit)
	}

	return Internal(err)
}

func isJWTFailure(err error) bool {
	for _, target := range []error{
		jwt.ErrTokenMalformed,
		jwt.ErrTokenUnverifiable,
		jwt.ErrTokenSignatureInvalid,
		jwt.ErrTokenInvalidClaims,
		jwt.ErrTokenNotValidYet,
		jwt.ErrTokenUsedBeforeIssued,
		jwt.ErrTokenInvalidIssuer,
		jwt.ErrTokenInvalidSubject,
		jwt.ErrTokenInvalidAudience,
		jwt.ErrTokenInvalidId,
		jwt.ErrTokenRequiredClaimMissing,
		jwt.ErrInvalidType,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func fromPgError(err error, pgErr *pgconn.PgError) *Error {
	switch pgErr.Code {
	case pgUniqueViolation:
		field, value := parseUniqueDetail(pgErr)
		return Wrap(err, KindDuplicateValue, Detail{Field: field, Value: value})
	case pgNotNullViolation:
		return Wrap(err, KindMissingField, Detail{
			Field:   pgErr.ColumnName,
			Message: fmt.Sprintf("%s is required", pgErr.ColumnName),
		})
	case pgInvalidTextRepr, pgInvalidDatetime, pgDatetimeOverflow:
		return Wrap(err, KindTypeMismatch, Detail{
			Field:   pgErr.ColumnName,
			Message: pgErr.Message,
		})
	case pgCheckViolation, pgStringTooLong:
		field := pgErr.ColumnName
		if field == "" {
			field = pgErr.ConstraintName
		}
		return Wrap(err, KindInvalidInput, Detail{Field: field, Message: pgErr.Message})
	default:
		return Internal(err)
	}
}

func parseUniqueDetail(pgErr *pgconn.PgError) (string, any) {
	if m := uniqueDetailPattern.FindStringSubmatch(pgErr.Detail); m != nil {
		return m[1], m[2]
	}
	// users_email_key -> email
	field := strings.TrimSuffix(pgErr.ConstraintName, "_key")
	if pgErr.TableName != "" {
		field = strings.TrimPrefix(field, pgErr.TableName+"_")
	}
	return field, nil
}

// ValidationDetails flattens ozzo validation errors into field details,
// sorted by field path.
func ValidationDetails(errs validation.Errors) []Detail {
	details := make([]Detail, 0, len(errs))
	flattenValidation("", errs, &details)
	sort.SliceStable(details, func(i, j int) bool {
		return details[i].Field < details[j].Field
	})
	return details
}

func flattenValidation(prefix string, errs validation.Errors, out *[]Detail) {
	for field, fieldErr := range errs {
		if fieldErr == nil {
			continue
		}
		path := field
		if prefix != "" {
			path = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(fieldErr, &nested) {
			flattenValidation(path, nested, out)
			continue
		}
		*out = append(*out, Detail{Field: path, Message: fieldErr.Error()})
	}
}
