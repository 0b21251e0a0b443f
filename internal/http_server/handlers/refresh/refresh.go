package refresh

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"identity_service/internal/lib/api/request"
	resp "identity_service/internal/lib/api/response"
	sl "identity_service/internal/lib/logger/sl"
	"identity_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type Response struct {
	resp.Response
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type TokenRotator interface {
	Refresh(ctx context.Context, refreshToken, accessToken string) (models.TokenPair, error)
}

// New rotates the refresh token from the body. An access token in the
// Authorization header is revoked along the way.
func New(
	log *slog.Logger,
	validate *validator.Validate,
	loc resp.Localizer,
	rotator TokenRotator,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if !request.Decode(w, r, log, validate, loc, &req) {
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		pair, err := rotator.Refresh(ctx, req.RefreshToken, request.BearerToken(r))
		if err != nil {
			log.Warn("failed to refresh tokens", sl.Err(err))

			resp.Fail(w, r, loc, err)

			return
		}

		log.Info("tokens refreshed")

		render.JSON(w, r, Response{
			Response:     resp.OK(),
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		})
	}
}
