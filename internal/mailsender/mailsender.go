// Package mailsender turns dispatch messages into localized emails and sends
// them over SMTP.
package mailsender

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"identity_service/internal/lib/i18n"
	"identity_service/internal/models"

	"gopkg.in/gomail.v2"
)

const verifyPath = "/identity/verify-email-by-token"

var ErrUnknownType = errors.New("unknown verification type")

type Localizer interface {
	Resolve(header string) string
	T(lang, key string, params ...string) string
}

type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mail struct {
	To      string
	Subject string
	Body    string
}

type Mailer struct {
	log      *slog.Logger
	dialer   Dialer
	loc      Localizer
	from     string
	linkBase string
}

func New(log *slog.Logger, dialer Dialer, loc Localizer, from, linkBase string) *Mailer {
	return &Mailer{
		log:      log,
		dialer:   dialer,
		loc:      loc,
		from:     from,
		linkBase: strings.TrimRight(linkBase, "/"),
	}
}

// NewDialer is the SMTP dialer used in production.
func NewDialer(host string, port int, username, password string) *gomail.Dialer {
	return gomail.NewDialer(host, port, username, password)
}

// Compose picks subject and body by verification type in the message's
// language.
func (m *Mailer) Compose(msg models.Message) (Mail, error) {
	const op = "mailsender.Compose"

	lang := m.loc.Resolve(msg.Language)
	mail := Mail{To: msg.Email, Subject: m.loc.T(lang, i18n.MailVerifySubject)}

	switch msg.Type {
	case models.VerifyEmailByCode:
		mail.Body = m.loc.T(lang, i18n.MailVerifyCodeBody, msg.Code)
	case models.VerifyEmailByToken:
		mail.Body = m.loc.T(lang, i18n.MailVerifyTokenBody, m.link(msg.Token))
	case models.VerifyEmailWithBoth:
		mail.Body = m.loc.T(lang, i18n.MailVerifyBothBody, msg.Code, m.link(msg.Token))
	case models.ResetPassword:
		mail.Subject = m.loc.T(lang, i18n.MailResetSubject)
		mail.Body = m.loc.T(lang, i18n.MailResetPasswordBody, msg.Code)
	default:
		return Mail{}, fmt.Errorf("%s: %w: %q", op, ErrUnknownType, msg.Type)
	}

	return mail, nil
}

func (m *Mailer) link(token string) string {
	return m.linkBase + verifyPath + "?" + url.Values{"token": {token}}.Encode()
}

func (m *Mailer) Send(mail Mail) error {
	msg := gomail.NewMessage()
	msg.SetHeader("To", mail.To)
	msg.SetHeader("From", m.from)
	msg.SetHeader("Subject", mail.Subject)

	msg.SetBody("text/plain", mail.Body)

	return m.dialer.DialAndSend(msg)
}

// Handle is the queue consumer callback.
func (m *Mailer) Handle(ctx context.Context, msg models.Message) error {
	const op = "mailsender.Handle"

	mail, err := m.Compose(msg)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := m.Send(mail); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	m.log.Info("mail sent", slog.String("op", op), slog.String("type", string(msg.Type)))

	return nil
}
