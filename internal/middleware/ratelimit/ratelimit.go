package ratelimit

import (
	"net/http"
	"time"

	resp "identity_service/internal/lib/api/response"
	"identity_service/internal/lib/i18n"

	"github.com/go-chi/httprate"
	"github.com/go-chi/render"
)

// Limiter builds per-route limits keyed by client IP. Rejections use the
// same JSON envelope as the handlers.
type Limiter struct {
	loc resp.Localizer
}

func New(loc resp.Localizer) *Limiter {
	return &Limiter{loc: loc}
}

func (l *Limiter) SignIn() func(http.Handler) http.Handler {
	return l.limitByIP(10, 5*time.Minute)
}

func (l *Limiter) SignUp() func(http.Handler) http.Handler {
	return l.limitByIP(5, time.Hour)
}

func (l *Limiter) Refresh() func(http.Handler) http.Handler {
	return l.limitByIP(30, 10*time.Minute)
}

func (l *Limiter) SignOut() func(http.Handler) http.Handler {
	return l.limitByIP(20, 10*time.Minute)
}

func (l *Limiter) Verify() func(http.Handler) http.Handler {
	return l.limitByIP(10, 10*time.Minute)
}

// SendMail covers every route that ends in an outbound email.
func (l *Limiter) SendMail() func(http.Handler) http.Handler {
	return l.limitByIP(3, time.Hour)
}

func (l *Limiter) PasswordReset() func(http.Handler) http.Handler {
	return l.limitByIP(10, 10*time.Minute)
}

func (l *Limiter) Introspect() func(http.Handler) http.Handler {
	return l.limitByIP(600, time.Minute)
}

func (l *Limiter) limitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(l.tooManyRequests),
	)
}

func (l *Limiter) tooManyRequests(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusTooManyRequests)
	render.JSON(w, r, resp.Error(l.loc.T(resp.Language(r, l.loc), i18n.TooManyRequests)))
}
