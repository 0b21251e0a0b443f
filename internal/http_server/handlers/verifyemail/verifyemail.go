package verifyemail

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

type CodeRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Code  string `json:"code" validate:"required,alphanum"`
}

type TokenRequest struct {
	Token string `validate:"required,uuid"`
}

type EmailVerifier interface {
	VerifyEmail(ctx context.Context, email, code, token string) error
}

// ByCode handles POST with a code typed in by the user.
func ByCode(
	log *slog.Logger,
	validate *validator.Validate,
	loc resp.Localizer,
	verifier EmailVerifier,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verifyemail.ByCode"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req CodeRequest

		if !request.Decode(w, r, log, validate, loc, &req) {
			return
		}

		verify(w, r, log, loc, verifier, req.Email, req.Code, "")
	}
}

// ByToken handles GET from the link in the verification mail.
func ByToken(
	log *slog.Logger,
	validate *validator.Validate,
	loc resp.Localizer,
	verifier EmailVerifier,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verifyemail.ByToken"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		req := TokenRequest{Token: r.URL.Query().Get("token")}

		if !request.Validate(w, r, log, validate, req) {
			return
		}

		verify(w, r, log, loc, verifier, "", "", req.Token)
	}
}

func verify(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
	loc resp.Localizer,
	verifier EmailVerifier,
	email, code, token string,
) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := verifier.VerifyEmail(ctx, email, code, token); err != nil {
		log.Warn("failed to verify email", sl.Err(err))

		resp.Fail(w, r, loc, err)

		return
	}

	log.Info("email verified")

	render.JSON(w, r, resp.Success(r, loc, i18n.VerifyEmailSuccess))
}
