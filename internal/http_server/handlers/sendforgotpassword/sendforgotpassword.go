package sendforgotpassword

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
	Email string `json:"email" validate:"required,email"`
}

type ResetMailer interface {
	SendForgotPassword(ctx context.Context, email, lang string) error
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	loc resp.Localizer,
	mailer ResetMailer,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sendforgotpassword.New"

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

		if err := mailer.SendForgotPassword(ctx, req.Email, resp.Language(r, loc)); err != nil {
			log.Warn("failed to send reset mail", sl.Err(err))

			resp.Fail(w, r, loc, err)

			return
		}

		render.JSON(w, r, resp.Success(r, loc, i18n.SendForgotPasswordSuccess))
	}
}
