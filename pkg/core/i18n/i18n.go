// Package i18n maps the app's language codes to speech locales and the
// language names the prompts are written against.
package i18n

import "strings"

// Language is one supported response language.
type Language struct {
	Code   string `json:"code"`   // en, kn, hi
	Locale string `json:"locale"` // BCP 47 tag used for speech
	Name   string `json:"name"`   // name used inside prompts
}

var (
	English = Language{Code: "en", Locale: "en-US", Name: "English"}
	Kannada = Language{Code: "kn", Locale: "kn-IN", Name: "Kannada"}
	Hindi   = Language{Code: "hi", Locale: "hi-IN", Name: "Hindi"}
)

// Default is used when a request names no language or an unknown one.
var Default = Kannada

// All returns the supported languages in menu order.
func All() []Language {
	return []Language{English, Kannada, Hindi}
}

// Resolve accepts a code, locale or language name in any case. Unknown or
// empty input yields Default and false.
func Resolve(s string) (Language, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default, false
	}
	for _, l := range All() {
		if strings.EqualFold(s, l.Code) || strings.EqualFold(s, l.Locale) || strings.EqualFold(s, l.Name) {
			return l, true
		}
	}
	// en-GB, hi_IN and similar
	if base, _, found := strings.Cut(strings.ReplaceAll(s, "_", "-"), "-"); found {
		for _, l := range All() {
			if strings.EqualFold(base, l.Code) {
				return l, true
			}
		}
	}
	return Default, false
}

// SetDefault changes the fallback language; unknown codes are ignored.
func SetDefault(code string) bool {
	l, ok := Resolve(code)
	if ok {
		Default = l
	}
	return ok
}
