package postgres

import (
	"context"
	"errors"
	"fmt"

	"identity_service/internal/models"
	"identity_service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type VerificationRepo struct {
	db DB
}

func NewVerificationRepo(db DB) *VerificationRepo {
	return &VerificationRepo{db: db}
}

const verificationColumns = `id::text, code, type, user_id::text, expires_at, created_at`

func (r *VerificationRepo) FindByCode(ctx context.Context, code string) (models.Verification, error) {
	const op = "storage.postgres.FindVerificationByCode"

	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE code = $1;`

	v, err := scanVerification(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, storage.ErrVerificationNotFound) {
			return models.Verification{}, err
		}

		return models.Verification{}, fmt.Errorf("%s: %w", op, err)
	}

	return v, nil
}

func (r *VerificationRepo) FindByID(ctx context.Context, id string) (models.Verification, error) {
	const op = "storage.postgres.FindVerificationByID"

	if _, err := uuid.Parse(id); err != nil {
		return models.Verification{}, storage.ErrVerificationNotFound
	}

	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE id = $1;`

	v, err := scanVerification(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, storage.ErrVerificationNotFound) {
			return models.Verification{}, err
		}

		return models.Verification{}, fmt.Errorf("%s: %w", op, err)
	}

	return v, nil
}

func (r *VerificationRepo) FindByUserAndType(
	ctx context.Context,
	userID string,
	t models.VerificationType,
) ([]models.Verification, error) {
	const op = "storage.postgres.FindVerificationsByUserAndType"

	query := `SELECT ` + verificationColumns + ` FROM verifications WHERE user_id = $1 AND type = $2;`

	rows, err := r.db.Query(ctx, query, userID, string(t))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.Verification

	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

const insertVerification = `
	INSERT INTO verifications (id, code, type, user_id, expires_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6);
`

func (r *VerificationRepo) Save(ctx context.Context, v models.Verification) error {
	const op = "storage.postgres.SaveVerification"

	return saveVerification(ctx, r.db, op, v)
}

// * Replace удаляет ожидающие записи того же типа и сохраняет новую в одной транзакции
// Advisory lock на пару (пользователь, тип) сериализует конкурентные запросы
func (r *VerificationRepo) Replace(ctx context.Context, v models.Verification) (err error) {
	const op = "storage.postgres.ReplaceVerification"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to begin tx: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1));`, v.UserID+"|"+string(v.Type)); err != nil {
		return fmt.Errorf("%s: failed to take lock: %w", op, err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM verifications WHERE user_id = $1 AND type = $2;`, v.UserID, string(v.Type)); err != nil {
		return fmt.Errorf("%s: failed to delete pending: %w", op, err)
	}

	if err = saveVerification(ctx, tx, op, v); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit: %w", op, err)
	}

	return nil
}

func (r *VerificationRepo) Delete(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteVerification"

	tag, err := r.db.Exec(ctx, `DELETE FROM verifications WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrVerificationNotFound
	}

	return nil
}

func (r *VerificationRepo) DeleteAll(ctx context.Context, ids []string) error {
	const op = "storage.postgres.DeleteVerifications"

	if len(ids) == 0 {
		return nil
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM verifications WHERE id = ANY($1);`, ids); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func saveVerification(ctx context.Context, db execer, op string, v models.Verification) error {
	_, err := db.Exec(ctx, insertVerification, v.ID, v.Code, string(v.Type), v.UserID, v.ExpiresAt, v.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrVerificationExists
		}

		return fmt.Errorf("%s: failed to save verification: %w", op, err)
	}

	return nil
}

func scanVerification(row pgx.Row) (models.Verification, error) {
	var (
		v   models.Verification
		typ string
	)

	err := row.Scan(&v.ID, &v.Code, &typ, &v.UserID, &v.ExpiresAt, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Verification{}, storage.ErrVerificationNotFound
		}

		return models.Verification{}, err
	}

	v.Type = models.VerificationType(typ)

	return v, nil
}
