package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizePhrase lowercases and collapses whitespace runs so that
// "  SEO   tools\n" and "seo tools" compare equal.
func NormalizePhrase(phrase string) string {
	phrase = strings.ToLower(phrase)
	phrase = strings.Trim(phrase, " \n\t")
	return whitespaceRegex.ReplaceAllString(phrase, " ")
}

// Key strips all whitespace out of the normalized phrase, producing a
// stable identity for dedupe maps and cache keys.
func Key(phrase string) string {
	return whitespaceRegex.ReplaceAllString(NormalizePhrase(phrase), "")
}

func ContainsPhrase(text, phrase string) bool {
	return strings.Contains(NormalizePhrase(text), NormalizePhrase(phrase))
}
