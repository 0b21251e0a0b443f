package response

import (
	"fmt"
	"net/http"
	"strings"

	"identity_service/internal/apperr"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status  string `json:"status"`
	Code    int    `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// Localizer picks the caller's language and renders message keys in it.
type Localizer interface {
	Resolve(header string) string
	T(lang, key string, params ...string) string
}

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "oneof":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s must be one of [%s]", err.Field(), err.Param()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMsgs, ", "),
	}
}

// Language resolves the request's Accept-Language header.
func Language(r *http.Request, loc Localizer) string {
	return loc.Resolve(r.Header.Get("Accept-Language"))
}

// Success is OK with a localized message.
func Success(r *http.Request, loc Localizer, key string) Response {
	res := OK()
	res.Message = loc.T(Language(r, loc), key)

	return res
}

// Fail writes err as its kind's status, code and localized message. Errors
// without a kind are reported as infrastructure errors.
func Fail(w http.ResponseWriter, r *http.Request, loc Localizer, err error) {
	kind := apperr.From(err)

	render.Status(r, kind.Status)
	render.JSON(w, r, Response{
		Status: StatusError,
		Code:   kind.Code,
		Error:  loc.T(Language(r, loc), kind.Key),
	})
}
