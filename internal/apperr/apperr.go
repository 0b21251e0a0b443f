// Package apperr holds the error taxonomy shared by the token engine, the
// verification manager and the credential service.
//
// Every kind is a sentinel *Error. Callers compare with errors.Is and the
// transport edge resolves the outermost kind with From. The Key doubles as
// the localization key, so renumbering Code never breaks translations.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Error struct {
	Key    string
	Code   int
	Status int
}

func (e *Error) Error() string {
	return e.Key
}

func newKind(key string, code, status int) *Error {
	return &Error{Key: key, Code: code, Status: status}
}

var (
	ErrEmailAlreadyInUse           = newKind("email_already_in_use", 1001, http.StatusConflict)
	ErrPasswordMismatch            = newKind("password_mismatch", 1002, http.StatusBadRequest)
	ErrUserNotFound                = newKind("user_not_found", 1003, http.StatusNotFound)
	ErrUserDisabled                = newKind("user_disabled", 1004, http.StatusForbidden)
	ErrUserNotActivated            = newKind("user_not_activated", 1005, http.StatusForbidden)
	ErrWrongPassword               = newKind("wrong_password", 1006, http.StatusUnauthorized)
	ErrExpiredPassword             = newKind("expired_password", 1007, http.StatusConflict)
	ErrTwoFactorRequired           = newKind("two_factor_required", 1008, http.StatusForbidden)
	ErrCodeInvalid                 = newKind("code_invalid", 1009, http.StatusBadRequest)
	ErrTokenInvalidForVerification = newKind("token_invalid_for_verification", 1010, http.StatusBadRequest)
	ErrVerificationExpired         = newKind("verification_expired", 1011, http.StatusUnprocessableEntity)
	ErrUserAlreadyVerified         = newKind("user_already_verified", 1012, http.StatusBadRequest)
	ErrMalformedToken              = newKind("malformed_token", 1013, http.StatusUnauthorized)
	ErrInvalidSignature            = newKind("invalid_signature", 1014, http.StatusUnauthorized)
	ErrTokenExpired                = newKind("token_expired", 1015, http.StatusUnauthorized)
	ErrTokenRevoked                = newKind("token_revoked", 1016, http.StatusUnauthorized)
	ErrTokenBlacklisted            = newKind("token_blacklisted", 1017, http.StatusUnauthorized)
	ErrInvalidToken                = newKind("invalid_token", 1018, http.StatusBadRequest)
	ErrWeakPassword                = newKind("weak_password", 1019, http.StatusBadRequest)
	ErrInvalidRequest              = newKind("invalid_request", 1020, http.StatusBadRequest)
	ErrInfrastructure              = newKind("infrastructure_error", 1500, http.StatusInternalServerError)
)

// Kinds lists every kind in code order.
var Kinds = []*Error{
	ErrEmailAlreadyInUse,
	ErrPasswordMismatch,
	ErrUserNotFound,
	ErrUserDisabled,
	ErrUserNotActivated,
	ErrWrongPassword,
	ErrExpiredPassword,
	ErrTwoFactorRequired,
	ErrCodeInvalid,
	ErrTokenInvalidForVerification,
	ErrVerificationExpired,
	ErrUserAlreadyVerified,
	ErrMalformedToken,
	ErrInvalidSignature,
	ErrTokenExpired,
	ErrTokenRevoked,
	ErrTokenBlacklisted,
	ErrInvalidToken,
	ErrWeakPassword,
	ErrInvalidRequest,
	ErrInfrastructure,
}

// Infra marks err as an infrastructure failure (store or cache unreachable,
// timeout) so it is never mistaken for a validation outcome.
func Infra(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrInfrastructure, err)
}

// From returns the outermost kind in err's chain. Errors carrying no kind
// are reported as ErrInfrastructure.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}

	return ErrInfrastructure
}

// IsInfra reports whether err should be retried rather than treated as a
// verdict about the user or token.
func IsInfra(err error) bool {
	return err != nil && From(err) == ErrInfrastructure
}
