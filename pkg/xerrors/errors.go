package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
)

// Registration / Login
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrPhoneAlreadyInUse  = errors.New("phone already registered")
	ErrEmailAlreadyInUse  = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("incorrect phone or PIN")
	ErrInvalidPhone       = errors.New("invalid Kenyan phone number")
	ErrInvalidPIN         = errors.New("PIN must be 4 digits")
	ErrPINMismatch        = errors.New("PINs do not match")
)

// Verification / OTP / tokens
var (
	ErrInvalidOTP         = errors.New("invalid or expired code")
	ErrTooManyOTPRequests = errors.New("too many OTP requests")
	ErrOTPCooldown        = errors.New("please wait before requesting another code")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrEmailNotVerified   = errors.New("email not verified")
)

// Upstream providers (SMS gateway, SMTP)
var ErrUpstream = errors.New("upstream provider failure")

// PG error code for unique_violation.
const PGUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a Postgres duplicate-key failure.
// Registration relies on this instead of check-then-insert.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == PGUniqueViolation
}

// ConstraintName extracts the violated constraint, "" when not a pg error.
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
