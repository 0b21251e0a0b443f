package postgres

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"
	"time"

	"identity_service/internal/config"
	"identity_service/internal/models"
	"identity_service/internal/storage"
	"identity_service/internal/storage/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	return mock
}

var userCols = []string{"id", "email", "password_hash", "enabled", "first_name", "last_name", "bio", "created_at"}

func TestUserRepo_FindByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepo(mock)
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("a@b.com").
		WillReturnRows(mock.NewRows(userCols).
			AddRow("u-1", "a@b.com", []byte("hash"), false, "Ann", "Lee", "", created))

	u, err := repo.FindByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)

	assert.Equal(t, models.User{
		ID:        "u-1",
		Email:     "a@b.com",
		PassHash:  []byte("hash"),
		FirstName: "Ann",
		LastName:  "Lee",
		CreatedAt: created,
	}, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_FindMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepo(mock)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("nobody@b.com").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs("6f1f0c52-8c4e-4a53-9a55-4b3f2f6f0404").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@b.com")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	_, err = repo.FindByID(context.Background(), "6f1f0c52-8c4e-4a53-9a55-4b3f2f6f0404")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_FindFailureIsNotAMiss(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepo(mock)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs("6f1f0c52-8c4e-4a53-9a55-4b3f2f6f0001").
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByID(context.Background(), "6f1f0c52-8c4e-4a53-9a55-4b3f2f6f0001")
	require.Error(t, err)
	assert.NotErrorIs(t, err, storage.ErrUserNotFound)
}

func TestUserRepo_FindByIDMalformedIsAMiss(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepo(mock)

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_ExistsByEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepo(mock)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("a@b.com").
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Save(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepo(mock)
	u := models.User{ID: "u-1", Email: "a@b.com", PassHash: []byte("hash"), Enabled: true}

	mock.ExpectExec(`INSERT INTO users .+ ON CONFLICT \(id\) DO UPDATE`).
		WithArgs(u.ID, u.Email, u.PassHash, u.Enabled, u.FirstName, u.LastName, u.Bio).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, repo.Save(context.Background(), u))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_SaveDuplicateEmail(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepo(mock)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	err := repo.Save(context.Background(), models.User{ID: "u-2", Email: "a@b.com"})
	assert.ErrorIs(t, err, storage.ErrUserExists)
}

func TestUserRepo_DeleteMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewUserRepo(mock)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs("u-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "u-1"), storage.ErrUserNotFound)
}

var verificationCols = []string{"id", "code", "type", "user_id", "expires_at", "created_at"}

func TestVerificationRepo_FindByCode(t *testing.T) {
	mock := newMock(t)
	repo := NewVerificationRepo(mock)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM verifications WHERE code = \$1`).
		WithArgs("ABC123").
		WillReturnRows(mock.NewRows(verificationCols).
			AddRow("v-1", "ABC123", "VERIFY_EMAIL_BY_CODE", "u-1", now.Add(3*time.Minute), now))

	v, err := repo.FindByCode(context.Background(), "ABC123")
	require.NoError(t, err)

	assert.Equal(t, models.Verification{
		ID:        "v-1",
		Code:      "ABC123",
		Type:      models.VerifyEmailByCode,
		UserID:    "u-1",
		ExpiresAt: now.Add(3 * time.Minute),
		CreatedAt: now,
	}, v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepo_FindByIDMissing(t *testing.T) {
	mock := newMock(t)
	repo := NewVerificationRepo(mock)

	mock.ExpectQuery(`SELECT .+ FROM verifications WHERE id = \$1`).
		WithArgs("0b7e2d6a-1c55-4d0e-8f0e-7a1d3c9e0404").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "0b7e2d6a-1c55-4d0e-8f0e-7a1d3c9e0404")
	assert.ErrorIs(t, err, storage.ErrVerificationNotFound)

	_, err = repo.FindByID(context.Background(), "v-404")
	assert.ErrorIs(t, err, storage.ErrVerificationNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepo_FindByUserAndType(t *testing.T) {
	mock := newMock(t)
	repo := NewVerificationRepo(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM verifications WHERE user_id = \$1 AND type = \$2`).
		WithArgs("u-1", "RESET_PASSWORD").
		WillReturnRows(mock.NewRows(verificationCols).
			AddRow("v-1", "AAAAAA", "RESET_PASSWORD", "u-1", now, now).
			AddRow("v-2", "BBBBBB", "RESET_PASSWORD", "u-1", now, now))

	list, err := repo.FindByUserAndType(context.Background(), "u-1", models.ResetPassword)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "v-2", list[1].ID)
	assert.Equal(t, models.ResetPassword, list[0].Type)
}

func TestVerificationRepo_SaveCodeCollision(t *testing.T) {
	mock := newMock(t)
	repo := NewVerificationRepo(mock)

	mock.ExpectExec(`INSERT INTO verifications`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "verifications_code_key"})

	err := repo.Save(context.Background(), models.Verification{ID: "v-1", Code: "AAAAAA"})
	assert.ErrorIs(t, err, storage.ErrVerificationExists)
}

func TestVerificationRepo_Replace(t *testing.T) {
	mock := newMock(t)
	repo := NewVerificationRepo(mock)
	now := time.Now().UTC()
	v := models.Verification{
		ID:        "v-2",
		Code:      "XYZ789",
		Type:      models.VerifyEmailWithBoth,
		UserID:    "u-1",
		ExpiresAt: now.Add(3 * time.Minute),
		CreatedAt: now,
	}

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WithArgs("u-1|VERIFY_EMAIL_WITH_BOTH").
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(`DELETE FROM verifications WHERE user_id = \$1 AND type = \$2`).
		WithArgs("u-1", "VERIFY_EMAIL_WITH_BOTH").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`INSERT INTO verifications`).
		WithArgs(v.ID, v.Code, "VERIFY_EMAIL_WITH_BOTH", v.UserID, v.ExpiresAt, v.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Replace(context.Background(), v))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepo_ReplaceRollsBackOnCollision(t *testing.T) {
	mock := newMock(t)
	repo := NewVerificationRepo(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(`DELETE FROM verifications`).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO verifications`).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), models.Verification{ID: "v-1", UserID: "u-1", Type: models.ResetPassword})
	assert.ErrorIs(t, err, storage.ErrVerificationExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerificationRepo_Delete(t *testing.T) {
	mock := newMock(t)
	repo := NewVerificationRepo(mock)

	mock.ExpectExec(`DELETE FROM verifications WHERE id = \$1`).
		WithArgs("v-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM verifications WHERE id = \$1`).
		WithArgs("v-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, repo.Delete(context.Background(), "v-1"))
	assert.ErrorIs(t, repo.Delete(context.Background(), "v-1"), storage.ErrVerificationNotFound)
}

func TestVerificationRepo_DeleteAll(t *testing.T) {
	mock := newMock(t)
	repo := NewVerificationRepo(mock)

	mock.ExpectExec(`DELETE FROM verifications WHERE id = ANY\(\$1\)`).
		WithArgs([]string{"v-1", "v-2"}).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	require.NoError(t, repo.DeleteAll(context.Background(), []string{"v-1", "v-2"}))
	require.NoError(t, repo.DeleteAll(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrations_Embedded(t *testing.T) {
	files, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"00001_users.sql", "00002_verifications.sql"}, files)
}

func TestApplyMigrations(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}

	require.NoError(t, applyMigrations(context.Background(), nil))
	assert.Equal(t, ".", gotDir)

	gooseUp = func(context.Context, *sql.DB, string) error {
		return errors.New("boom")
	}
	assert.EqualError(t, applyMigrations(context.Background(), nil), "boom")
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{}
	cfg.Postgres = config.Postgres{
		Host:     "db",
		Port:     5432,
		User:     "identity",
		Password: "secret",
		DBName:   "identity",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=db port=5432 user=identity password=secret database=identity sslmode=disable", dsn(cfg))
}
