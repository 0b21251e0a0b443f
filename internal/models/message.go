package models

import (
	"errors"
	"fmt"
	"strings"
)

const messageDelimiter = ":"

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrDelimiterInField = errors.New("message field contains delimiter")
)

// Message is the dispatch payload for the mail sender. On the wire it is
// the colon-delimited tuple {type}:{email}:{token}:{code}:{languageTag}.
type Message struct {
	Type     VerificationType
	Email    string
	Token    string
	Code     string
	Language string
}

// Encode renders the wire form. No escaping exists in the format, so a field
// holding the delimiter is refused instead of shifting the tuple.
func (m Message) Encode() (string, error) {
	const op = "models.Message.Encode"

	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return strings.Join(m.fields(), messageDelimiter), nil
}

// Validate reports whether every field fits the wire form.
func (m Message) Validate() error {
	for _, f := range m.fields() {
		if strings.Contains(f, messageDelimiter) {
			return ErrDelimiterInField
		}
	}

	return nil
}

func (m Message) fields() []string {
	return []string{string(m.Type), m.Email, m.Token, m.Code, m.Language}
}

func DecodeMessage(raw string) (Message, error) {
	const op = "models.DecodeMessage"

	parts := strings.Split(raw, messageDelimiter)
	if len(parts) != 5 {
		return Message{}, fmt.Errorf("%s: %w: want 5 fields, got %d", op, ErrMalformedMessage, len(parts))
	}

	t, ok := ParseVerificationType(parts[0])
	if !ok {
		return Message{}, fmt.Errorf("%s: %w: unknown type %q", op, ErrMalformedMessage, parts[0])
	}

	if parts[1] == "" {
		return Message{}, fmt.Errorf("%s: %w: empty email", op, ErrMalformedMessage)
	}

	return Message{
		Type:     t,
		Email:    parts[1],
		Token:    parts[2],
		Code:     parts[3],
		Language: parts[4],
	}, nil
}
