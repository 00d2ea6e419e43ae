package site

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFKD and removes combining marks, so "Résumé"
// slugifies to "resume" rather than dropping the accented runes entirely.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify normalizes one path segment into a stable lowercase URL slug.
func Slugify(segment string) string {
	s, _, err := transform.String(stripMarks, segment)
	if err != nil {
		s = segment
	}
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	lastDash := true // suppress leading dashes
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	out := strings.Trim(b.String(), "-")
	if out == "" {
		return "untitled"
	}
	return out
}
