package signout

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"identity_service/internal/lib/i18n"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloser struct {
	access, refresh string
	calls           int
}

func (f *fakeCloser) SignOut(_ context.Context, accessToken, refreshToken string) {
	f.calls++
	f.access, f.refresh = accessToken, refreshToken
}

func TestSignOut(t *testing.T) {
	tr, err := i18n.New()
	require.NoError(t, err)

	tests := []struct {
		name       string
		body       string
		authz      string
		wantCode   int
		wantAccess string
		wantCalls  int
	}{
		{"header wins", `{"refresh_token":"r","access_token":"body"}`, "Bearer header", http.StatusOK, "header", 1},
		{"body fallback", `{"refresh_token":"r","access_token":"body"}`, "", http.StatusOK, "body", 1},
		{"refresh only", `{"refresh_token":"r"}`, "", http.StatusOK, "", 1},
		{"missing refresh", `{"access_token":"a"}`, "", http.StatusBadRequest, "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closer := &fakeCloser{}

			req := httptest.NewRequest(http.MethodPost, "/identity/sign-out", strings.NewReader(tt.body))
			if tt.authz != "" {
				req.Header.Set("Authorization", tt.authz)
			}
			rec := httptest.NewRecorder()

			New(slog.New(slog.DiscardHandler), validator.New(), tr, closer).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantCalls, closer.calls)
			assert.Equal(t, tt.wantAccess, closer.access)
		})
	}
}
