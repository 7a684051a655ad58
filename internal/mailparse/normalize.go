package mailparse

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// URLs and addresses end at any Unicode space, including the no-break
// space StripHTML produces for &nbsp;.
var (
	urlPattern         = regexp.MustCompile(`https?://[^\s\p{Z}]+`)
	emailPattern       = regexp.MustCompile(`[^\s\p{Z}]+@[^\s\p{Z}]+`)
	imageMarkerPattern = regexp.MustCompile(`\[image:.*?\]`)
	cidMarkerPattern   = regexp.MustCompile(`\[cid:.*?\]`)
	blankRunPattern    = regexp.MustCompile(`\n[\s\p{Z}]*\n[\s\p{Z}]*\n`)
	spaceRunPattern    = regexp.MustCompile(` {3,}`)
)

// minLineLength is the shortest line, in characters, that survives
// normalization. Shorter lines are usually stray bullets or punctuation.
const minLineLength = 3

// Normalize turns extracted mail text into classifier input. The steps run
// in a fixed order; later ones rely on the earlier ones.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = urlPattern.ReplaceAllLiteralString(text, "[URL]")
	text = emailPattern.ReplaceAllLiteralString(text, "[EMAIL]")
	text = imageMarkerPattern.ReplaceAllLiteralString(text, "")
	text = cidMarkerPattern.ReplaceAllLiteralString(text, "")
	text = collapseBlankLines(text)
	text = spaceRunPattern.ReplaceAllLiteralString(text, " ")

	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) >= minLineLength {
			kept = append(kept, line)
		}
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// collapseBlankLines reduces any run of blank lines to a single one.
func collapseBlankLines(text string) string {
	return blankRunPattern.ReplaceAllLiteralString(text, "\n\n")
}
