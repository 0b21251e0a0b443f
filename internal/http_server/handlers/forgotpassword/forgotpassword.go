package forgotpassword

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
	Code  string `json:"code" validate:"required,alphanum"`
}

type Response struct {
	resp.Response
	Token string `json:"token"`
}

type CodeExchanger interface {
	ForgotPassword(ctx context.Context, email, code string) (string, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	loc resp.Localizer,
	exchanger CodeExchanger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.forgotpassword.New"

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

		token, err := exchanger.ForgotPassword(ctx, req.Email, req.Code)
		if err != nil {
			log.Warn("failed to accept reset code", sl.Err(err))

			resp.Fail(w, r, loc, err)

			return
		}

		render.JSON(w, r, Response{
			Response: resp.Success(r, loc, i18n.ForgotPasswordSuccess),
			Token:    token,
		})
	}
}
