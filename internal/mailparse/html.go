package mailparse

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML drops markup and returns the concatenated text content of s,
// with character references resolved.
func StripHTML(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))

	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

func hasHTMLMarker(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body")
}
