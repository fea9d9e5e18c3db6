package selector

import (
	"strconv"
	"strings"
)

// Escape escapes s for use as a CSS identifier (class name, id, attribute
// name), producing the same output as the CSSOM CSS.escape() function.
func Escape(s string) string {
	runes := []rune(s)
	if len(runes) == 1 && runes[0] == '-' {
		return `\-`
	}
	var b strings.Builder
	b.Grow(len(s))
	for i, r := range runes {
		switch {
		case r == 0:
			b.WriteRune('\uFFFD')
		case r < 0x20 || r == 0x7F,
			i == 0 && isDigit(r),
			i == 1 && isDigit(r) && runes[0] == '-':
			writeHex(&b, r)
		case r >= 0x80 || r == '-' || r == '_' || isDigit(r) || isLetter(r):
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EscapeString escapes s for the inside of a double-quoted CSS string, as
// used in attribute selectors. Quotes and backslashes get a backslash,
// control characters a hex escape; everything else, spaces included, is
// written literally.
func EscapeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == 0:
			b.WriteRune('\uFFFD')
		case r < 0x20 || r == 0x7F:
			writeHex(&b, r)
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func writeHex(b *strings.Builder, r rune) {
	b.WriteByte('\\')
	b.WriteString(strconv.FormatInt(int64(r), 16))
	b.WriteByte(' ')
}

func isDigit(r rune) bool  { return r >= '0' && r <= '9' }
func isLetter(r rune) bool { return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' }
