package core

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var digitsRegex = regexp.MustCompile(`\d+`)

// NormalizeName prepares an applicant name for the verification call:
// digits are stripped, diacritics folded to their ASCII base letter,
// whitespace collapsed and the result upper-cased.
// Normalizing an already-normalized name yields the same string.
func NormalizeName(name string) string {
	name = digitsRegex.ReplaceAllString(name, "")

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, name); err == nil {
		name = folded
	}

	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}
