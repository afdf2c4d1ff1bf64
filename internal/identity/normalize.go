package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// substitutions maps characters whose conventional handle spelling is not a
// plain mark-stripped letter. German umlauts transliterate to digraphs, so
// they must be handled before the generic diacritic fold.
var substitutions = map[rune]string{
	'ä': "ae",
	'ö': "oe",
	'ü': "ue",
	'ß': "ss",
	'á': "a",
	'é': "e",
	'í': "i",
	'ó': "o",
	'ú': "u",
}

var markStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize derives the canonical handle token from arbitrary text: lower
// case, umlaut/accent substitution table, a generic combining-mark fold for
// anything the table does not list (ñ, è, å, ...), and finally everything
// that is not a letter, digit or hyphen is dropped. Total and idempotent.
func Normalize(raw string) string {
	lower := strings.ToLower(raw)

	var substituted strings.Builder
	substituted.Grow(len(lower))
	for _, r := range lower {
		if rep, ok := substitutions[r]; ok {
			substituted.WriteString(rep)
			continue
		}
		substituted.WriteRune(r)
	}

	folded, _, err := transform.String(markStripper, substituted.String())
	if err != nil {
		folded = substituted.String()
	}

	var out strings.Builder
	out.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			out.WriteRune(r)
		}
	}

	return out.String()
}
