package signout

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"identity_service/internal/lib/api/request"
	resp "identity_service/internal/lib/api/response"
	"identity_service/internal/lib/i18n"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type SessionCloser interface {
	SignOut(ctx context.Context, accessToken, refreshToken string)
}

// New always answers OK once the body is valid: sign-out is best effort and
// token failures are only logged by the service.
func New(
	log *slog.Logger,
	validate *validator.Validate,
	loc resp.Localizer,
	closer SessionCloser,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.signout.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if !request.Decode(w, r, log, validate, loc, &req) {
			return
		}

		access := request.BearerToken(r)
		if access == "" {
			access = req.AccessToken
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		closer.SignOut(ctx, access, req.RefreshToken)

		log.Info("user signed out")

		render.JSON(w, r, resp.Success(r, loc, i18n.SignOutSuccess))
	}
}
