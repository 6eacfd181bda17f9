package streets

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks so "Général" matches "general".
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldName lowercases and de-accents a street name for search comparison.
func FoldName(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// MatchName reports whether the folded street name contains the folded query.
func MatchName(name, query string) bool {
	return strings.Contains(FoldName(name), FoldName(query))
}

// MatchStreet matches the query against the street's name and its alternate
// spellings.
func MatchStreet(street Street, query string) bool {
	if MatchName(street.Name, query) {
		return true
	}
	for _, alt := range street.AltNames {
		if MatchName(alt, query) {
			return true
		}
	}
	return false
}
