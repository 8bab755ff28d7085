package extract

import (
	"strings"
	"unicode/utf8"
)

// Ellipsis is appended to truncated text
const Ellipsis = "…"

var boilerplateMarkers = []string{
	"enable javascript",
	"javascript is not available",
	"please enable cookies",
	"sign in",
	"you’re being redirected",
	"you're being redirected",
	"you are being redirected",
	"access denied",
	"verify you are a human",
}

// CleanText collapses all whitespace runs to single spaces and trims
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most max runes, trims trailing space and appends
// Ellipsis. Text within the limit is returned unchanged.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:max]), " \t\r\n") + Ellipsis
}

// LooksBlocked reports whether page text is missing, too short, or an
// interstitial (login wall, bot check, JS-required page)
func LooksBlocked(text string, minChars int) bool {
	if text == "" {
		return true
	}
	if utf8.RuneCountInString(text) < minChars {
		return true
	}
	lowered := strings.ToLower(text)
	for _, marker := range boilerplateMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// WordCount counts whitespace-separated words
func WordCount(s string) int {
	return len(strings.Fields(s))
}
