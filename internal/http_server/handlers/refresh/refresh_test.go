package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"identity_service/internal/apperr"
	"identity_service/internal/lib/i18n"
	"identity_service/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRotator struct {
	refresh, access string
	err             error
}

func (f *fakeRotator) Refresh(_ context.Context, refreshToken, accessToken string) (models.TokenPair, error) {
	f.refresh, f.access = refreshToken, accessToken
	if f.err != nil {
		return models.TokenPair{}, f.err
	}
	return models.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
}

func do(t *testing.T, rot TokenRotator, body, authz string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	tr, err := i18n.New()
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/identity/refresh-token", strings.NewReader(body))
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}

	rec := httptest.NewRecorder()
	New(slog.New(slog.DiscardHandler), validator.New(), tr, rot).ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))

	return rec, out
}

func TestRefresh_PassesBearerAccessToken(t *testing.T) {
	rot := &fakeRotator{}

	rec, out := do(t, rot, `{"refresh_token":"old-refresh"}`, "Bearer old-access")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new-access", out["access_token"])
	assert.Equal(t, "new-refresh", out["refresh_token"])
	assert.Equal(t, "old-refresh", rot.refresh)
	assert.Equal(t, "old-access", rot.access)
}

func TestRefresh_WithoutHeader(t *testing.T) {
	rot := &fakeRotator{}

	rec, _ := do(t, rot, `{"refresh_token":"old-refresh"}`, "Basic abc")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rot.access)
}

func TestRefresh_ReusedToken(t *testing.T) {
	rot := &fakeRotator{err: fmt.Errorf("auth.Refresh: %w", apperr.ErrTokenRevoked)}

	rec, out := do(t, rot, `{"refresh_token":"old-refresh"}`, "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.EqualValues(t, apperr.ErrTokenRevoked.Code, out["code"])
	assert.Equal(t, "The token has been revoked", out["error"])
}

func TestRefresh_UnknownErrorIsInfrastructure(t *testing.T) {
	rot := &fakeRotator{err: errors.New("boom")}

	rec, out := do(t, rot, `{"refresh_token":"old-refresh"}`, "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.EqualValues(t, apperr.ErrInfrastructure.Code, out["code"])
}

func TestRefresh_MissingToken(t *testing.T) {
	rot := &fakeRotator{}

	rec, _ := do(t, rot, `{}`, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, rot.refresh)
}
