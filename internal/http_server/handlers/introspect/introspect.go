package introspect

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"identity_service/internal/lib/api/request"
	resp "identity_service/internal/lib/api/response"
	sl "identity_service/internal/lib/logger/sl"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Token string `json:"token" validate:"required"`
}

type Response struct {
	resp.Response
	Valid bool `json:"valid"`
}

type TokenInspector interface {
	Introspect(ctx context.Context, token string) (bool, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	loc resp.Localizer,
	inspector TokenInspector,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.introspect.New"

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

		valid, err := inspector.Introspect(ctx, req.Token)
		if err != nil {
			log.Error("failed to introspect token", sl.Err(err))

			resp.Fail(w, r, loc, err)

			return
		}

		render.JSON(w, r, Response{
			Response: resp.OK(),
			Valid:    valid,
		})
	}
}
