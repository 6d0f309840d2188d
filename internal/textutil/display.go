package textutil

import (
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
)

const ellipsis = "…"

// Clean removes escape sequences and control characters from s, keeping
// newlines and tabs.
func Clean(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '\x1b':
			i = skipEscape(runes, i)
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r == '\r':
			// CRLF becomes LF; a lone CR would overwrite the line.
			if i+1 < len(runes) && runes[i+1] == '\n' {
				continue
			}
			b.WriteRune('\n')
		case unicode.IsControl(r) || r == '\u200b' || (r >= '\u202a' && r <= '\u202e') || (r >= '\u2066' && r <= '\u2069'):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// skipEscape returns the index of the last rune of the escape sequence that
// starts at runes[start].
func skipEscape(runes []rune, start int) int {
	i := start + 1
	if i >= len(runes) {
		return start
	}
	switch runes[i] {
	case '[':
		// CSI: parameters then a final byte in @..~.
		for i++; i < len(runes); i++ {
			if runes[i] >= '@' && runes[i] <= '~' {
				return i
			}
		}
		return len(runes) - 1
	case ']':
		// OSC: terminated by BEL or ST.
		for i++; i < len(runes); i++ {
			if runes[i] == '\a' {
				return i
			}
			if runes[i] == '\x1b' && i+1 < len(runes) && runes[i+1] == '\\' {
				return i + 1
			}
		}
		return len(runes) - 1
	default:
		return i
	}
}

// SingleLine cleans s and collapses all whitespace runs to single spaces.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(Clean(s)), " ")
}

// Truncate shortens s to at most width terminal cells, ending with an
// ellipsis when anything was cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, ellipsis)
}
