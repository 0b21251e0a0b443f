package request

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	resp "identity_service/internal/lib/api/response"
	"identity_service/internal/lib/i18n"
	sl "identity_service/internal/lib/logger/sl"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// Decode reads and validates a JSON body into dst. On failure it writes the
// 400 response itself and returns false.
func Decode(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
	validate *validator.Validate,
	loc resp.Localizer,
	dst any,
) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		log.Error("Failed to decode request body", sl.Err(err))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error(loc.T(resp.Language(r, loc), i18n.InvalidRequest)))

		return false
	}

	return Validate(w, r, log, validate, dst)
}

func Validate(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, v any) bool {
	err := validate.Struct(v)
	if err == nil {
		return true
	}

	log.Error("Invalid request", sl.Err(err))

	render.Status(r, http.StatusBadRequest)

	var validateErr validator.ValidationErrors
	if errors.As(err, &validateErr) {
		render.JSON(w, r, resp.ValidationError(validateErr))
	} else {
		render.JSON(w, r, resp.Error(err.Error()))
	}

	return false
}

// BearerToken returns the token from an "Authorization: Bearer ..." header,
// or "" when there is none.
func BearerToken(r *http.Request) string {
	const prefix = "Bearer "

	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(h[len(prefix):])
}
