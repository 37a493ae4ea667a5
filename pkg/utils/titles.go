package utils

import (
	"strings"
	"unicode"
)

// NormalizeTitle folds a song title to a lookup key: lower case, letters and
// digits only. "Amazing Grace!" and "amazing  grace" share a key.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SearchTerm strips a title down to the words a file-name search should
// match: digits, punctuation and extra spaces are removed.
func SearchTerm(title string) string {
	fields := strings.FieldsFunc(title, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	return strings.Join(fields, " ")
}
