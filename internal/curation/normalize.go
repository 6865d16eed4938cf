package curation

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var parenthetical = regexp.MustCompile(`\s*\([^)]*\)\s*`)

// foldAccents decomposes characters and drops combining marks, so "Beyoncé" becomes "Beyonce".
func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeQuery turns a scraped page title into a catalog search query.
//
// Parenthesized annotations such as "(Official Video)" are removed, accents are folded,
// every character that is not a letter, digit or space is dropped and runs of
// whitespace collapse to one space.
func NormalizeQuery(title string) string {
	s := parenthetical.ReplaceAllString(title, " ")
	s = foldAccents(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// matchKey lowercases and folds s and replaces punctuation with spaces, for comparisons only.
func matchKey(s string) string {
	s = strings.ToLower(foldAccents(s))
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ")
}
