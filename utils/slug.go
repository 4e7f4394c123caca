package utils

import (
	"strings"
	"unicode"
)

// Slugify lowercases s and joins its alphanumeric runs with single hyphens,
// e.g. "Banarasi Silk (Red)" becomes "banarasi-silk-red".
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}
