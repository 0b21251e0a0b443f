// Package token mints and verifies the platform's signed bearer tokens.
//
// Access and refresh tokens are structurally identical HS256 JWTs signed with
// two unrelated secrets, so one kind never verifies as the other. Every
// verification consults the revocation cache by jti; revocation entries live
// exactly as long as the token they deny.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"identity_service/internal/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}

	return "access"
}

// Revocation markers stored under a jti. Anything other than MarkerRevoked
// found in the cache means the token was blacklisted by another party.
const (
	MarkerRevoked     = "revoked"
	MarkerBlacklisted = "blacklisted"
)

// Keys is the signing key material. It is built once at startup and copied
// into the engine; the engine never mutates it.
type Keys struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	AccessInfo    string
}

type Claims struct {
	jwt.RegisteredClaims
	// MoreInfo is the extensibility slot carried by access tokens only.
	MoreInfo string `json:"more-info,omitempty"`
}

// RevocationCache is the denylist keyed by jti.
type RevocationCache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	SetWithExpiration(ctx context.Context, key, value string, ttl time.Duration) error
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
}

type Engine struct {
	keys  Keys
	cache RevocationCache
	now   func() time.Time
}

type Option func(*Engine)

// WithClock replaces time.Now for issuing, expiry checks and revocation TTLs.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func New(keys Keys, cache RevocationCache, opts ...Option) *Engine {
	keys.AccessSecret = append([]byte(nil), keys.AccessSecret...)
	keys.RefreshSecret = append([]byte(nil), keys.RefreshSecret...)

	e := &Engine{
		keys:  keys,
		cache: cache,
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *Engine) secret(kind Kind) []byte {
	if kind == Refresh {
		return e.keys.RefreshSecret
	}

	return e.keys.AccessSecret
}

func (e *Engine) lifetime(kind Kind) time.Duration {
	if kind == Refresh {
		return e.keys.RefreshTTL
	}

	return e.keys.AccessTTL
}

// Issue mints a token of the given kind for userID.
func (e *Engine) Issue(userID string, kind Kind) (string, error) {
	const op = "token.Engine.Issue"

	now := e.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    e.keys.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(e.lifetime(kind))),
			ID:        uuid.NewString(),
		},
	}

	if kind == Access {
		claims.MoreInfo = e.keys.AccessInfo
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(e.secret(kind))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// Verify runs, in order: structure, signature, expiry, the refresh-only
// strict decode, and the revocation lookup. Claims are returned only when
// all of them pass.
func (e *Engine) Verify(ctx context.Context, tokenString string, kind Kind) (*Claims, error) {
	const op = "token.Engine.Verify"

	claims := &Claims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return e.secret(kind), nil
	})
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrMalformedToken)
	default:
		// wrong secret, wrong kind, or an alg outside HS256
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrInvalidSignature)
	}

	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(e.now()) {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrTokenExpired)
	}

	if kind == Refresh {
		if err := e.strictDecode(tokenString); err != nil {
			return nil, fmt.Errorf("%s: %w: %w", op, apperr.ErrInvalidSignature, err)
		}
	}

	if err := e.checkRevocation(ctx, claims.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return claims, nil
}

// strictDecode is an independent second pass over refresh tokens using the
// library's full claim validation.
func (e *Engine) strictDecode(tokenString string) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(e.keys.Issuer),
		jwt.WithTimeFunc(e.now),
	)

	t, err := parser.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return e.keys.RefreshSecret, nil
	})
	if err != nil {
		return err
	}

	if !t.Valid {
		return errors.New("token invalid")
	}

	return nil
}

func (e *Engine) checkRevocation(ctx context.Context, jti string) error {
	const op = "token.Engine.checkRevocation"

	if jti == "" {
		return apperr.ErrMalformedToken
	}

	marker, found, err := e.cache.Get(ctx, jti)
	if err != nil {
		return apperr.Infra(op, err)
	}

	if !found {
		return nil
	}

	if marker == MarkerRevoked {
		return apperr.ErrTokenRevoked
	}

	return apperr.ErrTokenBlacklisted
}

// Parse reads claims without checking the signature. Only for tokens whose
// claims are compared against an already verified token.
func (e *Engine) Parse(tokenString string) (*Claims, error) {
	const op = "token.Engine.Parse"

	claims := &Claims{}

	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, apperr.ErrMalformedToken)
	}

	return claims, nil
}

// Revoke denylists the token until its own expiry. Already expired tokens
// need no entry.
func (e *Engine) Revoke(ctx context.Context, claims *Claims) error {
	const op = "token.Engine.Revoke"

	ttl, ok := e.remaining(claims)
	if !ok {
		return nil
	}

	if err := e.cache.SetWithExpiration(ctx, claims.ID, MarkerRevoked, ttl); err != nil {
		return apperr.Infra(op, err)
	}

	return nil
}

// Consume revokes the token only if nobody revoked it first. Two callers
// racing on the same token get exactly one success; the other sees
// ErrTokenRevoked.
func (e *Engine) Consume(ctx context.Context, claims *Claims) error {
	const op = "token.Engine.Consume"

	ttl, ok := e.remaining(claims)
	if !ok {
		return fmt.Errorf("%s: %w", op, apperr.ErrTokenExpired)
	}

	set, err := e.cache.SetIfAbsent(ctx, claims.ID, MarkerRevoked, ttl)
	if err != nil {
		return apperr.Infra(op, err)
	}

	if !set {
		return fmt.Errorf("%s: %w", op, apperr.ErrTokenRevoked)
	}

	return nil
}

func (e *Engine) remaining(claims *Claims) (time.Duration, bool) {
	if claims == nil || claims.ExpiresAt == nil || claims.ID == "" {
		return 0, false
	}

	ttl := claims.ExpiresAt.Sub(e.now())
	if ttl <= 0 {
		return 0, false
	}

	return ttl, true
}
