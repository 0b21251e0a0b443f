// Package verification owns the lifecycle of short-lived verification
// records: email confirmation codes and tokens, and password-reset flows.
//
// A record goes Pending -> Consumed (deleted by Complete) or
// Pending -> Expired (inert, deleted on the next lookup). Records are never
// updated in place.
package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"identity_service/internal/apperr"
	sl "identity_service/internal/lib/logger/sl"
	"identity_service/internal/models"
	"identity_service/internal/storage"

	"github.com/google/uuid"
)

const (
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	maxCodeAttempts = 3
)

type Repository interface {
	FindByCode(ctx context.Context, code string) (models.Verification, error)
	FindByID(ctx context.Context, id string) (models.Verification, error)
	FindByUserAndType(ctx context.Context, userID string, t models.VerificationType) ([]models.Verification, error)
	Save(ctx context.Context, v models.Verification) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context, ids []string) error
}

// Replacer is implemented by stores that can drop a user's pending records
// of one type and insert the new one as a single serialized step.
type Replacer interface {
	Replace(ctx context.Context, v models.Verification) error
}

type Manager struct {
	log        *slog.Logger
	repo       Repository
	ttl        time.Duration
	codeLength int
	now        func() time.Time
	locks      keyedMutex
}

type Option func(*Manager)

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func New(log *slog.Logger, repo Repository, ttl time.Duration, codeLength int, opts ...Option) *Manager {
	m := &Manager{
		log:        log,
		repo:       repo,
		ttl:        ttl,
		codeLength: codeLength,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start supersedes every pending record of type t for the user with a new
// one and returns it for dispatch.
func (m *Manager) Start(ctx context.Context, userID string, t models.VerificationType) (models.Verification, error) {
	const op = "verification.Manager.Start"

	log := m.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.String("type", string(t)),
	)

	unlock := m.locks.Lock(userID + "|" + string(t))
	defer unlock()

	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		v, err := m.newVerification(userID, t)
		if err != nil {
			return models.Verification{}, apperr.Infra(op, err)
		}

		err = m.replace(ctx, v)
		if err == nil {
			log.Info("verification started", slog.String("verification_id", v.ID))

			return v, nil
		}

		if !errors.Is(err, storage.ErrVerificationExists) {
			log.Error("failed to store verification", sl.Err(err))

			return models.Verification{}, apperr.Infra(op, err)
		}

		log.Warn("verification code collision, regenerating", slog.Int("attempt", attempt))
	}

	return models.Verification{}, apperr.Infra(op, storage.ErrVerificationExists)
}

func (m *Manager) replace(ctx context.Context, v models.Verification) error {
	if r, ok := m.repo.(Replacer); ok {
		return r.Replace(ctx, v)
	}

	existing, err := m.repo.FindByUserAndType(ctx, v.UserID, v.Type)
	if err != nil {
		return err
	}

	if len(existing) > 0 {
		ids := make([]string, 0, len(existing))
		for _, e := range existing {
			ids = append(ids, e.ID)
		}

		if err := m.repo.DeleteAll(ctx, ids); err != nil {
			return err
		}
	}

	return m.repo.Save(ctx, v)
}

func (m *Manager) newVerification(userID string, t models.VerificationType) (models.Verification, error) {
	code, err := generateCode(m.codeLength)
	if err != nil {
		return models.Verification{}, err
	}

	now := m.now()

	return models.Verification{
		ID:        uuid.NewString(),
		Code:      code,
		Type:      t,
		UserID:    userID,
		ExpiresAt: now.Add(m.ttl),
		CreatedAt: now,
	}, nil
}

// ConsumeByCode resolves a live record by its code. The record stays in
// place until Complete so the caller can apply its side effects first.
func (m *Manager) ConsumeByCode(ctx context.Context, code string) (models.Verification, error) {
	const op = "verification.Manager.ConsumeByCode"

	v, err := m.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, storage.ErrVerificationNotFound) {
			return models.Verification{}, fmt.Errorf("%s: %w", op, apperr.ErrCodeInvalid)
		}

		return models.Verification{}, apperr.Infra(op, err)
	}

	return m.live(ctx, op, v)
}

// ConsumeByToken resolves a live record by its identifier.
func (m *Manager) ConsumeByToken(ctx context.Context, token string) (models.Verification, error) {
	const op = "verification.Manager.ConsumeByToken"

	if _, err := uuid.Parse(token); err != nil {
		return models.Verification{}, fmt.Errorf("%s: %w", op, apperr.ErrTokenInvalidForVerification)
	}

	v, err := m.repo.FindByID(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrVerificationNotFound) {
			return models.Verification{}, fmt.Errorf("%s: %w", op, apperr.ErrTokenInvalidForVerification)
		}

		return models.Verification{}, apperr.Infra(op, err)
	}

	return m.live(ctx, op, v)
}

func (m *Manager) live(ctx context.Context, op string, v models.Verification) (models.Verification, error) {
	if !v.IsExpired(m.now()) {
		return v, nil
	}

	if err := m.repo.Delete(ctx, v.ID); err != nil && !errors.Is(err, storage.ErrVerificationNotFound) {
		m.log.Warn("failed to delete expired verification",
			slog.String("op", op),
			slog.String("verification_id", v.ID),
			sl.Err(err),
		)
	}

	return models.Verification{}, fmt.Errorf("%s: %w", op, apperr.ErrVerificationExpired)
}

// Complete deletes a consumed record. Deleting one that is already gone is
// not an error.
func (m *Manager) Complete(ctx context.Context, v models.Verification) error {
	const op = "verification.Manager.Complete"

	if err := m.repo.Delete(ctx, v.ID); err != nil && !errors.Is(err, storage.ErrVerificationNotFound) {
		return apperr.Infra(op, err)
	}

	return nil
}

func generateCode(length int) (string, error) {
	base := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, length)

	for i := range code {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}

		code[i] = codeAlphabet[n.Int64()]
	}

	return string(code), nil
}

// keyedMutex serializes work per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyLock)
	}

	l, ok := k.locks[key]
	if !ok {
		l = &keyLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()

	return func() {
		l.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
