// Package i18n resolves the caller's language and renders localized
// messages. Keys are the semantic names of error kinds and success outcomes,
// never numeric codes.
package i18n

import (
	"fmt"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/vi"
	ut "github.com/go-playground/universal-translator"
	"golang.org/x/text/language"
)

const DefaultLanguage = "en"

var supported = []language.Tag{language.English, language.Vietnamese}

type Translator struct {
	uni     *ut.UniversalTranslator
	matcher language.Matcher
}

func New() (*Translator, error) {
	const op = "i18n.New"

	fallback := en.New()
	uni := ut.New(fallback, fallback, vi.New())

	for lang, msgs := range map[string]map[string]string{"en": english, "vi": vietnamese} {
		trans, found := uni.GetTranslator(lang)
		if !found {
			return nil, fmt.Errorf("%s: no translator for %q", op, lang)
		}

		if err := register(trans, msgs); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return &Translator{
		uni:     uni,
		matcher: language.NewMatcher(supported),
	}, nil
}

func register(trans ut.Translator, msgs map[string]string) error {
	for key, text := range msgs {
		if err := trans.Add(key, text, false); err != nil {
			return fmt.Errorf("add %q for %s: %w", key, trans.Locale(), err)
		}
	}

	return nil
}

// Resolve maps an Accept-Language header or a bare tag to a supported
// language, defaulting to English.
func (t *Translator) Resolve(header string) string {
	if header == "" {
		return DefaultLanguage
	}

	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}

	_, idx, conf := t.matcher.Match(tags...)
	if conf == language.No {
		return DefaultLanguage
	}

	base, _ := supported[idx].Base()

	return base.String()
}

// T renders key in lang. Unknown languages fall back to English and unknown
// keys render as the key itself.
func (t *Translator) T(lang, key string, params ...string) string {
	trans, _ := t.uni.GetTranslator(lang)

	text, err := trans.T(key, params...)
	if err == nil {
		return text
	}

	if lang != DefaultLanguage {
		return t.T(DefaultLanguage, key, params...)
	}

	return key
}
