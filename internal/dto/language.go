package dto

import (
	"golang.org/x/text/language"
)

const (
	LangFr = "fr"
	LangEn = "en"
)

var (
	supportedLanguages = []language.Tag{language.French, language.English}
	languageCodes      = []string{LangFr, LangEn}
	languageMatcher    = language.NewMatcher(supportedLanguages)
)

// ResolveLanguage picks fr or en from an explicit lang parameter, then the
// Accept-Language header, defaulting to fr
func ResolveLanguage(param, acceptLanguage string) string {
	if param != "" {
		if tag, err := language.Parse(param); err == nil {
			if _, idx, conf := languageMatcher.Match(tag); conf != language.No {
				return languageCodes[idx]
			}
		}
	}

	if acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
			if _, idx, conf := languageMatcher.Match(tags...); conf != language.No {
				return languageCodes[idx]
			}
		}
	}

	return LangFr
}

// Localized returns the text for lang, falling back to the other language
// when it is empty
func Localized(fr, en, lang string) string {
	if lang == LangEn {
		if en != "" {
			return en
		}
		return fr
	}
	if fr != "" {
		return fr
	}
	return en
}
