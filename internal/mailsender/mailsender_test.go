package mailsender

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"identity_service/internal/lib/i18n"
	"identity_service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func newTestMailer(t *testing.T, d Dialer) *Mailer {
	t.Helper()

	tr, err := i18n.New()
	require.NoError(t, err)

	return New(slog.New(slog.DiscardHandler), d, tr, "no-reply@identity.local", "http://localhost:8080/")
}

func TestCompose_PerType(t *testing.T) {
	m := newTestMailer(t, &fakeDialer{})

	tests := []struct {
		name    string
		msg     models.Message
		subject string
		body    string
	}{
		{
			name:    "code",
			msg:     models.Message{Type: models.VerifyEmailByCode, Email: "a@b.com", Code: "ABC123", Language: "en"},
			subject: "Confirm your email",
			body:    "Your verification code is ABC123. It expires in 3 minutes.",
		},
		{
			name:    "token",
			msg:     models.Message{Type: models.VerifyEmailByToken, Email: "a@b.com", Token: "t-1", Language: "en"},
			subject: "Confirm your email",
			body:    "Open this link to confirm your email: http://localhost:8080/identity/verify-email-by-token?token=t-1",
		},
		{
			name:    "both in vietnamese",
			msg:     models.Message{Type: models.VerifyEmailWithBoth, Email: "a@b.com", Token: "t-1", Code: "XYZ", Language: "vi"},
			subject: "Xác minh email của bạn",
			body:    "Mã xác minh của bạn là XYZ. Bạn cũng có thể mở liên kết: http://localhost:8080/identity/verify-email-by-token?token=t-1",
		},
		{
			name:    "reset with unknown language",
			msg:     models.Message{Type: models.ResetPassword, Email: "a@b.com", Code: "RST999", Language: "fr"},
			subject: "Reset your password",
			body:    "Your password reset code is RST999. It expires in 3 minutes.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mail, err := m.Compose(tt.msg)
			require.NoError(t, err)

			assert.Equal(t, "a@b.com", mail.To)
			assert.Equal(t, tt.subject, mail.Subject)
			assert.Equal(t, tt.body, mail.Body)
		})
	}
}

func TestCompose_UnknownType(t *testing.T) {
	m := newTestMailer(t, &fakeDialer{})

	_, err := m.Compose(models.Message{Type: "SOMETHING", Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestHandle_Sends(t *testing.T) {
	d := &fakeDialer{}
	m := newTestMailer(t, d)

	err := m.Handle(context.Background(), models.Message{
		Type: models.ResetPassword, Email: "a@b.com", Code: "RST999", Language: "en",
	})
	require.NoError(t, err)

	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"a@b.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"no-reply@identity.local"}, d.sent[0].GetHeader("From"))
	assert.Equal(t, []string{"Reset your password"}, d.sent[0].GetHeader("Subject"))
}

func TestHandle_Failures(t *testing.T) {
	smtpErr := errors.New("smtp down")
	m := newTestMailer(t, &fakeDialer{err: smtpErr})

	msg := models.Message{Type: models.VerifyEmailByCode, Email: "a@b.com", Code: "ABC123"}

	assert.ErrorIs(t, m.Handle(context.Background(), msg), smtpErr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Handle(ctx, msg), context.Canceled)
}
