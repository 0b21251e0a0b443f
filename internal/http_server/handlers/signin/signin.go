package signin

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
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (models.User, error)
	GenerateTokenPair(user models.User) (models.TokenPair, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	loc resp.Localizer,
	authenticator Authenticator,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.signin.New"

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

		user, err := authenticator.SignIn(ctx, req.Email, req.Password)
		if err != nil {
			log.Warn("failed to sign in", sl.Err(err))

			resp.Fail(w, r, loc, err)

			return
		}

		pair, err := authenticator.GenerateTokenPair(user)
		if err != nil {
			log.Error("failed to issue tokens", sl.Err(err))

			resp.Fail(w, r, loc, err)

			return
		}

		log.Info("user signed in", slog.String("user_id", user.ID))

		ResponseOK(w, r, pair)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, pair models.TokenPair) {
	render.JSON(w, r, Response{
		Response:     resp.OK(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}
