// Package textsearch implements diacritic-insensitive matching for search-as-you-type
// and client-side filtering of already-fetched records.
package textsearch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Substitutions for letters that do not decompose into a base letter plus a
// combining mark (Croatian đ, German ß), plus the umlauts for inputs that were
// never composed in the first place.
var letterReplacer = strings.NewReplacer(
	"đ", "d",
	"Đ", "D",
	"ß", "ss",
	"Ä", "A",
	"ä", "a",
	"Ö", "O",
	"ö", "o",
	"Ü", "U",
	"ü", "u",
)

// Normalize folds s for comparison: NFD decomposition, removal of combining
// marks, the fixed letter substitutions above, and lowercasing.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	return strings.ToLower(letterReplacer.Replace(stripped))
}
