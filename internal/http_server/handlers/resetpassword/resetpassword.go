package resetpassword

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"identity_service/internal/lib/api/request"
	resp "identity_service/internal/lib/api/response"
	"identity_service/internal/lib/i18n"
	sl "identity_service/internal/lib/logger/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Token        string `json:"token" validate:"required"`
	Password     string `json:"password" validate:"required,max=72"`
	Confirmation string `json:"confirmation" validate:"required"`
}

type PasswordResetter interface {
	ResetPassword(ctx context.Context, token, password, confirmation string) error
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	loc resp.Localizer,
	resetter PasswordResetter,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resetpassword.New"

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

		if err := resetter.ResetPassword(ctx, req.Token, req.Password, req.Confirmation); err != nil {
			log.Warn("failed to reset password", sl.Err(err))

			resp.Fail(w, r, loc, err)

			return
		}

		log.Info("password reset")

		render.JSON(w, r, resp.Success(r, loc, i18n.ResetPasswordSuccess))
	}
}
