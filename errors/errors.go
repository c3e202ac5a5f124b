package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an error into one of the terminal, user-facing
// conditions the CLI reports. Every kind has a manual remediation.
type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindNotFound          Kind = "not_found"
	KindInternal          Kind = "internal"
	KindAuthDenied        Kind = "auth_denied"
	KindUnauthenticated   Kind = "unauthenticated"
	KindTokenExpired      Kind = "token_expired"
	KindQuotaExceeded     Kind = "quota_exceeded"
	KindChannelUnverified Kind = "channel_unverified"
)

type AppError struct {
	Kind    Kind   `json:"-"`
	Message string `json:"error"`
	Op      string `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, op string, err error, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Op:      op,
		Err:     err,
	}
}

func InvalidInput(op string, err error, message string) *AppError {
	return newError(KindInvalidInput, op, err, message)
}

func NotFound(op string, err error, message string) *AppError {
	return newError(KindNotFound, op, err, message)
}

func Internal(op string, err error, message string) *AppError {
	return newError(KindInternal, op, err, message)
}

func AuthDenied(op string, err error, message string) *AppError {
	return newError(KindAuthDenied, op, err, message)
}

func Unauthenticated(op string, err error, message string) *AppError {
	return newError(KindUnauthenticated, op, err, message)
}

func TokenExpired(op string, err error, message string) *AppError {
	return newError(KindTokenExpired, op, err, message)
}

func QuotaExceeded(op string, err error, message string) *AppError {
	return newError(KindQuotaExceeded, op, err, message)
}

func ChannelUnverified(op string, err error, message string) *AppError {
	return newError(KindChannelUnverified, op, err, message)
}

// KindOf walks the error chain and returns the kind of the first
// AppError found, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// Remediation returns the manual action a user should take for a
// given error kind, for display alongside the error message.
func Remediation(kind Kind) string {
	switch kind {
	case KindAuthDenied:
		return "Add your account as a test user in the OAuth consent screen and run --auth again."
	case KindUnauthenticated:
		return "Run with --auth to complete the interactive consent flow."
	case KindTokenExpired:
		return "The stored refresh token was revoked. Delete the token file or run --revoke, then run --auth."
	case KindQuotaExceeded:
		return "Daily API quota exhausted. Wait for the quota window to reset or request an increase."
	case KindChannelUnverified:
		return "Custom thumbnails require a verified channel. Verify at https://www.youtube.com/verify."
	default:
		return ""
	}
}
