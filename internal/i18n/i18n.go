// Package i18n negotiates the client language, translates error messages and folds text for accent-insensitive
// search
package i18n

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Supported lists the languages messages are available in. The first one is the default
var Supported = []language.Tag{
	language.Spanish,
	language.English,
}

var (
	matcher = language.NewMatcher(Supported)
	cat     = catalog.NewBuilder(catalog.Fallback(language.Spanish))
	known   = map[string]bool{}
)

func init() {
	for key, texts := range messages {
		known[key] = true
		for i, text := range texts {
			if text == "" {
				continue
			}
			cat.SetString(Supported[i], key, text)
		}
	}
}

// Negotiate picks the supported language that matches an Accept-Language header best
func Negotiate(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Supported[0]
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Supported[0]
	}
	return Supported[idx]
}

// Translate returns the message registered for key in the given language. Unknown keys yield the fallback text
func Translate(tag language.Tag, key, fallback string) string {
	if !known[key] {
		return fallback
	}
	return message.NewPrinter(tag, message.Catalog(cat)).Sprintf(key)
}

// Fold brings a text into a form where case and diacritics do not matter anymore ("Música" -> "musica")
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	res, _, err := transform.String(t, s)
	if err != nil {
		res = s
	}
	return cases.Fold().String(strings.TrimSpace(res))
}

// ContainsFolded checks if needle is part of haystack ignoring case and diacritics
func ContainsFolded(haystack, needle string) bool {
	return strings.Contains(Fold(haystack), Fold(needle))
}
