package render

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// sanitizeUTF8 drops invalid byte sequences and control characters other
// than newlines and tabs.
func sanitizeUTF8(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) || r == '\ufeff' {
			return -1
		}
		return r
	}, s)
}

var turkishFold = strings.NewReplacer(
	"ı", "i", "İ", "I",
	"‘", "'", "’", "'", "“", `"`, "”", `"`,
	"–", "-", "—", "-", "•", "-", "…", "...",
)

// transliterate reduces text to characters the core PDF fonts can show:
// diacritics are stripped and typographic punctuation is replaced.
func transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, turkishFold.Replace(sanitizeUTF8(s)))
	if err != nil {
		return sanitizeUTF8(s)
	}
	return out
}
