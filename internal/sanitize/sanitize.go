// Package sanitize cleans node labels read from untrusted graph files before
// they reach DOT, HTML or MCP output.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxLabelLength is the maximum label length in bytes.
const MaxLabelLength = 64

var (
	// reXMLTag matches XML/HTML tags including those with attributes and self-closing tags.
	// It also matches XML processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	reWhitespace = regexp.MustCompile(`\s+`)
)

// Label returns a single-line, tag-free version of a node label, at most
// MaxLabelLength bytes. Invalid UTF-8 is dropped.
//
// The pipeline:
//  1. Drop invalid UTF-8 and ASCII control characters
//  2. Strip XML/HTML tags
//  3. Collapse whitespace runs to a single space and trim
//  4. Truncate on a rune boundary
func Label(input string) string {
	if input == "" {
		return ""
	}

	s := stripControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))

	if len(s) > MaxLabelLength {
		cut := MaxLabelLength
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

// stripControlChars removes invalid UTF-8 and ASCII control characters
// (0x00-0x1F, 0x7F). Tabs and newlines become spaces so words stay apart.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == utf8.RuneError:
			continue
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteByte(' ')
		case r < 0x20 || r == 0x7F:
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
