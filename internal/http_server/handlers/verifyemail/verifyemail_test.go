package verifyemail

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"identity_service/internal/apperr"
	"identity_service/internal/lib/i18n"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	email, code, token string
	err                error
}

func (f *fakeVerifier) VerifyEmail(_ context.Context, email, code, token string) error {
	f.email, f.code, f.token = email, code, token
	return f.err
}

func newTranslator(t *testing.T) *i18n.Translator {
	t.Helper()
	tr, err := i18n.New()
	require.NoError(t, err)
	return tr
}

func TestByCode(t *testing.T) {
	v := &fakeVerifier{}

	req := httptest.NewRequest(http.MethodPost, "/identity/verify-email-by-code",
		strings.NewReader(`{"email":"a@b.com","code":"AB12CD"}`))
	rec := httptest.NewRecorder()

	ByCode(slog.New(slog.DiscardHandler), validator.New(), newTranslator(t), v).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.com", v.email)
	assert.Equal(t, "AB12CD", v.code)
	assert.Empty(t, v.token)
}

func TestByCode_InvalidCode(t *testing.T) {
	v := &fakeVerifier{err: apperr.ErrCodeInvalid}

	req := httptest.NewRequest(http.MethodPost, "/identity/verify-email-by-code",
		strings.NewReader(`{"code":"AB12CD"}`))
	rec := httptest.NewRecorder()

	ByCode(slog.New(slog.DiscardHandler), validator.New(), newTranslator(t), v).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "The code is invalid")
}

func TestByToken(t *testing.T) {
	v := &fakeVerifier{}

	req := httptest.NewRequest(http.MethodGet,
		"/identity/verify-email-by-token?token=0f8fad5b-d9cb-469f-a165-70867728950e", nil)
	rec := httptest.NewRecorder()

	ByToken(slog.New(slog.DiscardHandler), validator.New(), newTranslator(t), v).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0f8fad5b-d9cb-469f-a165-70867728950e", v.token)
	assert.Empty(t, v.code)
}

func TestByToken_NotAUUID(t *testing.T) {
	v := &fakeVerifier{}

	req := httptest.NewRequest(http.MethodGet, "/identity/verify-email-by-token?token=abc", nil)
	rec := httptest.NewRecorder()

	ByToken(slog.New(slog.DiscardHandler), validator.New(), newTranslator(t), v).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, v.token)
}
