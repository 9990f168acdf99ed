package fetcher

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// PlainText strips markup from feed-provided HTML, unescapes entities and
// collapses runs of whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	text := html.UnescapeString(stripPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

// truncateRunes cuts s to at most max characters.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
