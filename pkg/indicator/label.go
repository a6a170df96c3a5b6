package indicator

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FormatLabel returns exactly n upper-cased runes taken from the start of
// name. Names shorter than n are padded with spaces.
func FormatLabel(name string, n int) string {
	if n <= 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(n)

	count := 0
	for _, r := range name {
		if count == n {
			break
		}
		if r == utf8.RuneError {
			r = '?'
		}
		b.WriteRune(unicode.ToUpper(r))
		count++
	}

	for ; count < n; count++ {
		b.WriteByte(' ')
	}

	return b.String()
}
