package mailparse

import (
	"strings"
	"unicode/utf8"
)

// plainTextThreshold is the trimmed length, in characters, a text/plain
// part must exceed to be accepted without looking at HTML alternatives.
const plainTextThreshold = 50

// Extract returns the normalized readable text of msg. It never fails; a
// message without usable text yields an empty string.
func Extract(msg *RawMessage) string {
	if msg == nil {
		return ""
	}
	if msg.Multipart {
		return Normalize(extractMultipart(msg.Parts))
	}
	return Normalize(extractSinglePart(msg))
}

func extractMultipart(parts []Part) string {
	var body string
	for _, p := range parts {
		if p.ContentType != "text/plain" || p.IsAttachment() || p.Err != nil {
			continue
		}
		body = decodeText(p.Payload)
		if trimmedLen(body) > plainTextThreshold {
			return body
		}
	}

	if body != "" && trimmedLen(body) >= plainTextThreshold {
		return body
	}

	for _, p := range parts {
		if p.ContentType != "text/html" || p.IsAttachment() || p.Err != nil {
			continue
		}
		return StripHTML(decodeText(p.Payload))
	}

	return body
}

func extractSinglePart(msg *RawMessage) string {
	var body string
	if len(msg.Parts) > 0 && msg.Parts[0].Err == nil && len(msg.Parts[0].Payload) > 0 {
		body = decodeText(msg.Parts[0].Payload)
	} else {
		body = decodeText(msg.Raw)
	}

	if hasHTMLMarker(body) {
		body = StripHTML(body)
	}
	return body
}

func trimmedLen(s string) int {
	return utf8.RuneCountInString(strings.TrimSpace(s))
}
