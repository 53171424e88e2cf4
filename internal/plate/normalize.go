// Package plate normalizes plate readings and matches them against a watchlist.
package plate

import "strings"

// Normalize upper-cases text and drops everything except ASCII letters and
// digits, so "ka-01 ab" and "KA01AB" compare equal.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
