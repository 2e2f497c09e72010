package address

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiPunctuation is the set of characters replaced by a space. It is
// deliberately ASCII-only: "°" must survive so that the "n°" token can be
// rewritten before accent folding.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var punctReplacer = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(asciiPunctuation))
	for _, r := range asciiPunctuation {
		pairs = append(pairs, string(r), " ")
	}
	return strings.NewReplacer(pairs...)
}()

// accentFolder decomposes, strips combining marks and recomposes, so
// "Église" and "Eglise" fold to the same bytes.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize turns raw postal address parts into the canonical form used as
// the GPS cache join key. A part equal to the immediately preceding part is
// dropped (city repeated across two export columns), punctuation becomes a
// space, "n°" becomes "numero", accents are folded, everything is lowercased
// and whitespace runs collapse to a single space.
//
// The function is pure and deterministic: the same parts always produce the
// same key. Empty parts stand in for null columns and are skipped.
func Normalize(parts ...string) string {
	deduped := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 && p == parts[i-1] {
			continue
		}
		deduped = append(deduped, p)
	}

	cleaned := make([]string, 0, len(deduped))
	for _, p := range deduped {
		if p == "" {
			continue
		}
		p = punctReplacer.Replace(p)
		p = strings.ReplaceAll(p, "n°", "numero")
		if folded, _, err := transform.String(accentFolder, p); err == nil {
			p = folded
		}
		cleaned = append(cleaned, strings.ToLower(strings.TrimSpace(p)))
	}

	return strings.Join(strings.Fields(strings.Join(cleaned, " ")), " ")
}
