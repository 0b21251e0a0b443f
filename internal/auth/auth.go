// Package auth is the credential service: sign-up, sign-in, token rotation,
// sign-out, introspection and the email verification and password reset
// flows. It owns no state of its own; every collaborator is injected.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"identity_service/internal/apperr"
	"identity_service/internal/auth/token"
	sl "identity_service/internal/lib/logger/sl"
	"identity_service/internal/models"
	"identity_service/internal/storage"

	"github.com/google/uuid"
)

type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, u models.User) error
}

type PasswordHasher interface {
	Hash(plain string) ([]byte, error)
	Matches(plain string, digest []byte) bool
}

type TokenEngine interface {
	Issue(userID string, kind token.Kind) (string, error)
	Verify(ctx context.Context, tokenString string, kind token.Kind) (*token.Claims, error)
	Parse(tokenString string) (*token.Claims, error)
	Revoke(ctx context.Context, claims *token.Claims) error
	Consume(ctx context.Context, claims *token.Claims) error
}

type VerificationManager interface {
	Start(ctx context.Context, userID string, t models.VerificationType) (models.Verification, error)
	ConsumeByCode(ctx context.Context, code string) (models.Verification, error)
	ConsumeByToken(ctx context.Context, token string) (models.Verification, error)
	Complete(ctx context.Context, v models.Verification) error
}

type MessageSender interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

type Auth struct {
	log           *slog.Logger
	users         UserRepository
	hasher        PasswordHasher
	tokens        TokenEngine
	verifications VerificationManager
	sender        MessageSender
}

func New(
	log *slog.Logger,
	users UserRepository,
	hasher PasswordHasher,
	tokens TokenEngine,
	verifications VerificationManager,
	sender MessageSender,
) *Auth {
	return &Auth{
		log:           log,
		users:         users,
		hasher:        hasher,
		tokens:        tokens,
		verifications: verifications,
		sender:        sender,
	}
}

type SignUpInput struct {
	Email        string
	Password     string
	Confirmation string
	FirstName    string
	LastName     string
}

// * SignUp создает нового пользователя в отключенном состоянии
// Письмо с подтверждением не отправляется, его запрашивают отдельно
func (a *Auth) SignUp(ctx context.Context, in SignUpInput) (models.User, error) {
	const op = "auth.SignUp"

	log := a.log.With(slog.String("op", op))

	exists, err := a.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		log.Error("failed to check email", sl.Err(err))
		return models.User{}, apperr.Infra(op, err)
	}

	if exists {
		log.Warn("email already in use")
		return models.User{}, fmt.Errorf("%s: %w", op, apperr.ErrEmailAlreadyInUse)
	}

	if in.Password != in.Confirmation {
		return models.User{}, fmt.Errorf("%s: %w", op, apperr.ErrPasswordMismatch)
	}

	passHash, err := a.hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return models.User{}, apperr.Infra(op, err)
	}

	user := models.User{
		ID:        uuid.NewString(),
		Email:     in.Email,
		PassHash:  passHash,
		Enabled:   false,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	if err := a.users.Save(ctx, user); err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists")
			return models.User{}, fmt.Errorf("%s: %w", op, apperr.ErrEmailAlreadyInUse)
		}

		log.Error("failed to save user", sl.Err(err))
		return models.User{}, apperr.Infra(op, err)
	}

	log.Info("user registered", slog.String("user_id", user.ID))

	return user, nil
}

// * SignIn проверяет учетные данные
// Пароль проверяется раньше активации, чтобы не раскрывать статус аккаунта
func (a *Auth) SignIn(ctx context.Context, email, password string) (models.User, error) {
	const op = "auth.SignIn"

	log := a.log.With(slog.String("op", op))

	user, err := a.findByEmail(ctx, op, email)
	if err != nil {
		return models.User{}, err
	}

	switch {
	case a.isPasswordExpired(user):
		return models.User{}, fmt.Errorf("%s: %w", op, apperr.ErrExpiredPassword)
	case a.isTwoFactorRequired(user):
		return models.User{}, fmt.Errorf("%s: %w", op, apperr.ErrTwoFactorRequired)
	case a.isUserDisabled(user):
		return models.User{}, fmt.Errorf("%s: %w", op, apperr.ErrUserDisabled)
	}

	if !a.hasher.Matches(password, user.PassHash) {
		log.Info("invalid credentials", slog.String("user_id", user.ID))
		return models.User{}, fmt.Errorf("%s: %w", op, apperr.ErrWrongPassword)
	}

	if !user.Enabled {
		return models.User{}, fmt.Errorf("%s: %w", op, apperr.ErrUserNotActivated)
	}

	log.Info("user signed in", slog.String("user_id", user.ID))

	return user, nil
}

// Policy hooks. They hold their place in the sign-in order and report false
// until a policy exists.
func (a *Auth) isPasswordExpired(models.User) bool   { return false }
func (a *Auth) isTwoFactorRequired(models.User) bool { return false }
func (a *Auth) isUserDisabled(models.User) bool      { return false }
func (a *Auth) isWeakPassword(string) bool           { return false }

func (a *Auth) GenerateTokenPair(user models.User) (models.TokenPair, error) {
	const op = "auth.GenerateTokenPair"

	access, err := a.tokens.Issue(user.ID, token.Access)
	if err != nil {
		return models.TokenPair{}, apperr.Infra(op, err)
	}

	refresh, err := a.tokens.Issue(user.ID, token.Refresh)
	if err != nil {
		return models.TokenPair{}, apperr.Infra(op, err)
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates a refresh token. The presented refresh token is consumed
// before the new pair is minted, so a crash in between strands the session
// rather than leaving two usable refresh tokens.
func (a *Auth) Refresh(ctx context.Context, refreshToken, accessToken string) (models.TokenPair, error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	claims, err := a.tokens.Verify(ctx, refreshToken, token.Refresh)
	if err != nil {
		log.Warn("refresh token rejected", sl.Err(err))
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	user, err := a.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.TokenPair{}, fmt.Errorf("%s: %w", op, apperr.ErrInvalidToken)
		}

		log.Error("failed to load user", sl.Err(err))
		return models.TokenPair{}, apperr.Infra(op, err)
	}

	if accessToken != "" {
		accessClaims, err := a.tokens.Parse(accessToken)
		if err != nil {
			return models.TokenPair{}, fmt.Errorf("%s: %w: %w", op, apperr.ErrInvalidToken, err)
		}

		if accessClaims.Subject != claims.Subject {
			log.Warn("access token subject mismatch", slog.String("user_id", user.ID))
			return models.TokenPair{}, fmt.Errorf("%s: %w", op, apperr.ErrInvalidToken)
		}

		// only a token this service signed may put its jti on the denylist
		live, err := a.tokens.Verify(ctx, accessToken, token.Access)
		switch {
		case err == nil:
			if err := a.tokens.Revoke(ctx, live); err != nil {
				log.Error("failed to revoke access token", sl.Err(err))
				return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
			}
		case apperr.IsInfra(err):
			log.Error("failed to check access token", sl.Err(err))
			return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
		default:
			log.Debug("access token left as is", sl.Err(err))
		}
	}

	if err := a.tokens.Consume(ctx, claims); err != nil {
		log.Warn("refresh token already used", sl.Err(err))
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	pair, err := a.GenerateTokenPair(user)
	if err != nil {
		log.Error("failed to issue tokens", sl.Err(err))
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("tokens rotated", slog.String("user_id", user.ID))

	return pair, nil
}

// SignOut revokes whichever of the two tokens still verifies. Failures are
// logged and never returned; one token failing does not stop the other.
func (a *Auth) SignOut(ctx context.Context, accessToken, refreshToken string) {
	const op = "auth.SignOut"

	log := a.log.With(slog.String("op", op))

	a.revokeQuietly(ctx, log, accessToken, token.Access)
	a.revokeQuietly(ctx, log, refreshToken, token.Refresh)
}

func (a *Auth) revokeQuietly(ctx context.Context, log *slog.Logger, tok string, kind token.Kind) {
	log = log.With(slog.String("kind", kind.String()))

	if tok == "" {
		return
	}

	claims, err := a.tokens.Verify(ctx, tok, kind)
	if err == nil {
		err = a.tokens.Revoke(ctx, claims)
	}

	switch {
	case err == nil:
		log.Info("token revoked", slog.String("user_id", claims.Subject))
	case apperr.IsInfra(err):
		log.Error("failed to revoke token", sl.Err(err))
	default:
		log.Warn("token not revoked", sl.Err(err))
	}
}

// Introspect reports whether tok is a live access token. Only a failure to
// check is returned as an error.
func (a *Auth) Introspect(ctx context.Context, tok string) (bool, error) {
	const op = "auth.Introspect"

	if _, err := a.tokens.Verify(ctx, tok, token.Access); err != nil {
		if apperr.IsInfra(err) {
			a.log.Error("introspection failed", slog.String("op", op), sl.Err(err))
			return false, fmt.Errorf("%s: %w", op, err)
		}

		return false, nil
	}

	return true, nil
}

func (a *Auth) SendEmailVerification(ctx context.Context, email string, t models.VerificationType, lang string) error {
	const op = "auth.SendEmailVerification"

	return a.dispatch(ctx, op, email, t, lang)
}

func (a *Auth) SendForgotPassword(ctx context.Context, email, lang string) error {
	const op = "auth.SendForgotPassword"

	return a.dispatch(ctx, op, email, models.ResetPassword, lang)
}

func (a *Auth) dispatch(ctx context.Context, op, email string, t models.VerificationType, lang string) error {
	log := a.log.With(slog.String("op", op), slog.String("type", string(t)))

	user, err := a.findByEmail(ctx, op, email)
	if err != nil {
		return err
	}

	if t.Activates() && user.Enabled {
		return fmt.Errorf("%s: %w", op, apperr.ErrUserAlreadyVerified)
	}

	msg := models.Message{
		Type:     t,
		Email:    user.Email,
		Language: lang,
	}

	// checked before Start so a refused payload leaves no live record
	if err := msg.Validate(); err != nil {
		log.Warn("message cannot be encoded", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, apperr.ErrInvalidRequest, err)
	}

	v, err := a.verifications.Start(ctx, user.ID, t)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg.Token, msg.Code = v.ID, v.Code

	if err := a.sender.SendMessage(ctx, msg); err != nil {
		log.Error("failed to publish message", sl.Err(err))
		return apperr.Infra(op, err)
	}

	log.Info("verification sent", slog.String("user_id", user.ID))

	return nil
}

// VerifyEmail activates the account behind a code or a token. When email is
// set, the verification must belong to that user.
func (a *Auth) VerifyEmail(ctx context.Context, email, code, tok string) error {
	const op = "auth.VerifyEmail"

	log := a.log.With(slog.String("op", op))

	var (
		v   models.Verification
		err error
	)

	switch {
	case code != "":
		v, err = a.verifications.ConsumeByCode(ctx, code)
	case tok != "":
		v, err = a.verifications.ConsumeByToken(ctx, tok)
	default:
		return fmt.Errorf("%s: %w", op, apperr.ErrCodeInvalid)
	}
	if err != nil {
		if errors.Is(err, apperr.ErrVerificationExpired) {
			return fmt.Errorf("%s: %w: %w", op, apperr.ErrCodeInvalid, err)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !v.Type.Activates() {
		return fmt.Errorf("%s: %w", op, apperr.ErrCodeInvalid)
	}

	if email != "" {
		owner, err := a.findByEmail(ctx, op, email)
		if err != nil {
			return err
		}

		if owner.ID != v.UserID {
			log.Warn("verification owner mismatch", slog.String("user_id", owner.ID))
			return fmt.Errorf("%s: %w", op, apperr.ErrCodeInvalid)
		}
	}

	user, err := a.findByID(ctx, op, v.UserID)
	if err != nil {
		return err
	}

	user.Enabled = true

	if err := a.users.Save(ctx, user); err != nil {
		log.Error("failed to activate user", sl.Err(err))
		return apperr.Infra(op, err)
	}

	if err := a.verifications.Complete(ctx, v); err != nil {
		log.Error("failed to delete verification", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email verified", slog.String("user_id", user.ID))

	return nil
}

// ForgotPassword trades a reset code for the reset token. The verification
// stays in place until ResetPassword completes it.
func (a *Auth) ForgotPassword(ctx context.Context, email, code string) (string, error) {
	const op = "auth.ForgotPassword"

	user, err := a.findByEmail(ctx, op, email)
	if err != nil {
		return "", err
	}

	v, err := a.verifications.ConsumeByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperr.ErrVerificationExpired) {
			return "", fmt.Errorf("%s: %w: %w", op, apperr.ErrCodeInvalid, err)
		}

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if v.Type != models.ResetPassword || v.UserID != user.ID {
		a.log.Warn("reset code rejected", slog.String("op", op), slog.String("user_id", user.ID))
		return "", fmt.Errorf("%s: %w", op, apperr.ErrCodeInvalid)
	}

	return v.ID, nil
}

func (a *Auth) ResetPassword(ctx context.Context, tok, password, confirmation string) error {
	const op = "auth.ResetPassword"

	log := a.log.With(slog.String("op", op))

	v, err := a.verifications.ConsumeByToken(ctx, tok)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrTokenInvalidForVerification):
			return fmt.Errorf("%s: %w: %w", op, apperr.ErrTokenRevoked, err)
		case errors.Is(err, apperr.ErrVerificationExpired):
			return fmt.Errorf("%s: %w: %w", op, apperr.ErrTokenExpired, err)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if v.Type != models.ResetPassword {
		return fmt.Errorf("%s: %w", op, apperr.ErrTokenRevoked)
	}

	if password != confirmation {
		return fmt.Errorf("%s: %w", op, apperr.ErrPasswordMismatch)
	}

	if a.isWeakPassword(password) {
		return fmt.Errorf("%s: %w", op, apperr.ErrWeakPassword)
	}

	user, err := a.findByID(ctx, op, v.UserID)
	if err != nil {
		return err
	}

	passHash, err := a.hasher.Hash(password)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))
		return apperr.Infra(op, err)
	}

	user.PassHash = passHash

	if err := a.users.Save(ctx, user); err != nil {
		log.Error("failed to save password", sl.Err(err))
		return apperr.Infra(op, err)
	}

	if err := a.verifications.Complete(ctx, v); err != nil {
		log.Error("failed to delete verification", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password reset", slog.String("user_id", user.ID))

	return nil
}

// UserInfo returns the public profile behind a user id.
func (a *Auth) UserInfo(ctx context.Context, userID string) (models.User, error) {
	const op = "auth.UserInfo"

	return a.findByID(ctx, op, userID)
}

func (a *Auth) findByEmail(ctx context.Context, op, email string) (models.User, error) {
	user, err := a.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			a.log.Warn("user not found", slog.String("op", op))
			return models.User{}, fmt.Errorf("%s: %w", op, apperr.ErrUserNotFound)
		}

		a.log.Error("failed to get user", slog.String("op", op), sl.Err(err))
		return models.User{}, apperr.Infra(op, err)
	}

	return user, nil
}

func (a *Auth) findByID(ctx context.Context, op, id string) (models.User, error) {
	user, err := a.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, fmt.Errorf("%s: %w", op, apperr.ErrUserNotFound)
		}

		a.log.Error("failed to get user", slog.String("op", op), sl.Err(err))
		return models.User{}, apperr.Infra(op, err)
	}

	return user, nil
}
