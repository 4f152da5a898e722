package validators

import (
	"strings"
	"unicode"
)

// SanitizeString drops control characters, collapses whitespace runs to a single
// space and caps the result at maxLen runes (0 means no cap).
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if maxLen > 0 {
		if runes := []rune(cleaned); len(runes) > maxLen {
			return strings.TrimSpace(string(runes[:maxLen]))
		}
	}
	return cleaned
}
