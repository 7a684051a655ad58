package mailparse

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// decodeText interprets b as UTF-8, replacing ill-formed sequences with
// U+FFFD.
func decodeText(b []byte) string {
	decoded, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(decoded)
}
