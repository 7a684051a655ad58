package mailparse

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "whitespace only", in: " \n\t\n ", want: ""},
		{
			name: "url replaced",
			in:   "Visit https://example.com/path?x=1 today please",
			want: "Visit [URL] today please",
		},
		{
			name: "plain http url replaced",
			in:   "Old link http://example.org/a/b still works",
			want: "Old link [URL] still works",
		},
		{
			name: "address replaced",
			in:   "Contact john.doe@example.com for help",
			want: "Contact [EMAIL] for help",
		},
		{
			name: "image marker removed",
			in:   "See attached [image: logo.png] here now",
			want: "See attached  here now",
		},
		{
			name: "cid marker removed",
			in:   "Logo [cid:image001] end text",
			want: "Logo  end text",
		},
		{
			name: "space runs collapsed",
			in:   "one     two   three  four",
			want: "one two three  four",
		},
		{
			name: "short lines dropped",
			in:   "ok\n-\nHello there\n  \n**\nBye now",
			want: "Hello there\nBye now",
		},
		{
			name: "lines trimmed",
			in:   "   Dear customer,   \r\n\tThanks for writing.\r\n",
			want: "Dear customer,\nThanks for writing.",
		},
		{
			name: "blank line runs removed",
			in:   "abc\n\n\n\ndef",
			want: "abc\ndef",
		},
		{
			name: "multibyte characters counted as characters",
			in:   "né\nÉté\nthe end",
			want: "Été\nthe end",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestCollapseBlankLines(t *testing.T) {
	assert.Equal(t, "a\n\nb", collapseBlankLines("a\n\n\n\nb"))
	assert.Equal(t, "a\n\nb", collapseBlankLines("a\n \n\t\n  \nb"))
	assert.Equal(t, "a\n\nb", collapseBlankLines("a\n\nb"))
	assert.Equal(t, "a\nb", collapseBlankLines("a\nb"))
}

func TestNormalizeRemovesEveryURL(t *testing.T) {
	in := "Links: https://a.example/x http://b.example/y?z=1\nmore https://c.example"
	out := Normalize(in)

	assert.NotContains(t, out, "http://")
	assert.NotContains(t, out, "https://")
	assert.Equal(t, 3, strings.Count(out, "[URL]"))
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"Hello,\n\n\n\nPlease visit https://example.com and write to a@b.co\n\n-- \nJohn",
		"  lots    of     spaces   here  \n\n\n\n\n\nand lines",
		"[image: foo.png]\n[cid:bar]\nreal content line\nx\n",
		"mixed @ signs @home and foo@ bar",
		"abc [image: http://x.example/img.png] def",
		"\r\n\r\nWindows\r\nline endings\r\n\r\n\r\n\r\nhere",
		"näive café résumé\n\n\n\nüber",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalizeStopsAtNoBreakSpace(t *testing.T) {
	in := "Hello\u00a0world\u00a0mail\u00a0me\u00a0at\u00a0a@b.com\u00a0thanks"
	assert.Equal(t, "Hello\u00a0world\u00a0mail\u00a0me\u00a0at\u00a0[EMAIL]\u00a0thanks", Normalize(in))

	in = "Visit\u00a0https://example.com/pay\u00a0to\u00a0settle"
	assert.Equal(t, "Visit\u00a0[URL]\u00a0to\u00a0settle", Normalize(in))
}

func TestCollapseBlankLinesWithUnicodeSpaces(t *testing.T) {
	assert.Equal(t, "one\n\ntwo", collapseBlankLines("one\n\u00a0\n \u2003\n\ntwo"))
}
