package signup

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"identity_service/internal/auth"
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
	Email        string `json:"email" validate:"required,email,excludes=:"`
	Password     string `json:"password" validate:"required,min=6,max=72"`
	Confirmation string `json:"confirmation" validate:"required"`
	FirstName    string `json:"first_name" validate:"max=100"`
	LastName     string `json:"last_name" validate:"max=100"`
}

type Response struct {
	resp.Response
	UserID string `json:"user_id"`
}

type UserRegistrar interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (models.User, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	loc resp.Localizer,
	registrar UserRegistrar,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.signup.New"

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

		user, err := registrar.SignUp(ctx, auth.SignUpInput{
			Email:        req.Email,
			Password:     req.Password,
			Confirmation: req.Confirmation,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
		})
		if err != nil {
			log.Warn("failed to sign up", sl.Err(err))

			resp.Fail(w, r, loc, err)

			return
		}

		log.Info("user signed up", slog.String("user_id", user.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.Success(r, loc, i18n.SignUpSuccess),
			UserID:   user.ID,
		})
	}
}
