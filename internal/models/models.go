package models

import "time"

type User struct {
	ID        string
	Email     string
	PassHash  []byte
	Enabled   bool
	FirstName string
	LastName  string
	Bio       string
	CreatedAt time.Time
}

type VerificationType string

const (
	VerifyEmailByCode   VerificationType = "VERIFY_EMAIL_BY_CODE"
	VerifyEmailByToken  VerificationType = "VERIFY_EMAIL_BY_TOKEN"
	VerifyEmailWithBoth VerificationType = "VERIFY_EMAIL_WITH_BOTH"
	ResetPassword       VerificationType = "RESET_PASSWORD"
)

// ParseVerificationType accepts only the four known tags.
func ParseVerificationType(s string) (VerificationType, bool) {
	switch t := VerificationType(s); t {
	case VerifyEmailByCode, VerifyEmailByToken, VerifyEmailWithBoth, ResetPassword:
		return t, true
	}

	return "", false
}

// Activates reports whether completing a verification of this type enables
// the owning account.
func (t VerificationType) Activates() bool {
	return t == VerifyEmailByCode || t == VerifyEmailByToken || t == VerifyEmailWithBoth
}

// Verification is one pending action for one user. ID doubles as the
// one-time token sent in links and returned by the forgot-password step.
type Verification struct {
	ID        string
	Code      string
	Type      VerificationType
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// * IsExpired проверяет, истек ли срок действия
func (v *Verification) IsExpired(now time.Time) bool {
	return v.ExpiresAt.Before(now)
}

type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
