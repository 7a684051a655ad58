package mailparse

import (
	"io"
	"mime"

	"github.com/emersion/go-message/charset"
)

var headerDecoder = &mime.WordDecoder{
	CharsetReader: func(cs string, input io.Reader) (io.Reader, error) {
		r, err := charset.Reader(cs, input)
		if err != nil {
			// Unknown charsets are read as UTF-8 and repaired afterwards.
			return input, nil
		}
		return r, nil
	},
}

// DecodeHeader decodes the RFC 2047 encoded words in a header value and
// concatenates the segments. It never fails: malformed input is returned as
// is, with invalid UTF-8 replaced.
func DecodeHeader(raw string) string {
	if raw == "" {
		return ""
	}

	decoded, err := headerDecoder.DecodeHeader(raw)
	if err != nil {
		decoded = raw
	}
	return decodeText([]byte(decoded))
}
