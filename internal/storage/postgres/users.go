package postgres

import (
	"context"
	"errors"
	"fmt"

	"identity_service/internal/models"
	"identity_service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type UserRepo struct {
	db DB
}

func NewUserRepo(db DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id::text, email, password_hash, enabled, first_name, last_name, bio, created_at`

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgres.FindByEmail"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1;`

	u, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, err
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *UserRepo) FindByID(ctx context.Context, id string) (models.User, error) {
	const op = "storage.postgres.FindUserByID"

	if _, err := uuid.Parse(id); err != nil {
		return models.User{}, storage.ErrUserNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1;`

	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, err
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const op = "storage.postgres.ExistsByEmail"

	var exists bool

	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1);`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

// * Save создает пользователя или обновляет существующего по id
// Возвращает storage.ErrUserExists, если email занят другим пользователем
func (r *UserRepo) Save(ctx context.Context, u models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (id, email, password_hash, enabled, first_name, last_name, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			enabled = EXCLUDED.enabled,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			bio = EXCLUDED.bio;
	`

	_, err := r.db.Exec(ctx, query, u.ID, u.Email, u.PassHash, u.Enabled, u.FirstName, u.LastName, u.Bio)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrUserExists
		}

		return fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteUser"

	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PassHash,
		&u.Enabled,
		&u.FirstName,
		&u.LastName,
		&u.Bio,
		&u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, err
	}

	return u, nil
}
