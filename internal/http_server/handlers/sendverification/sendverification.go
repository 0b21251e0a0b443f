package sendverification

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"identity_service/internal/lib/api/request"
	resp "identity_service/internal/lib/api/response"
	"identity_service/internal/lib/i18n"
	sl "identity_service/internal/lib/logger/sl"
	"identity_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
	Type  string `json:"type" validate:"required,oneof=VERIFY_EMAIL_BY_CODE VERIFY_EMAIL_BY_TOKEN VERIFY_EMAIL_WITH_BOTH"`
}

type VerificationSender interface {
	SendEmailVerification(ctx context.Context, email string, t models.VerificationType, lang string) error
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	loc resp.Localizer,
	sender VerificationSender,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.sendverification.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		if !request.Decode(w, r, log, validate, loc, &req) {
			return
		}

		// oneof above only admits known tags
		t, _ := models.ParseVerificationType(req.Type)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if err := sender.SendEmailVerification(ctx, req.Email, t, resp.Language(r, loc)); err != nil {
			log.Warn("failed to send verification", sl.Err(err))

			resp.Fail(w, r, loc, err)

			return
		}

		render.JSON(w, r, resp.Success(r, loc, i18n.SendEmailVerificationSuccess))
	}
}
