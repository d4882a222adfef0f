package core

import "strings"

const (
	MaxCaptionLength = 2200
	MaxAboutLength   = 100
)

// TruncateRunes cuts s to at most n code points.
func TruncateRunes(s string, n int) string {
	if n < 0 {
		n = 0
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// RuneLen counts code points.
func RuneLen(s string) int {
	return len([]rune(s))
}

// NormalizeCaption trims surrounding whitespace and enforces MaxCaptionLength.
func NormalizeCaption(caption string) string {
	return TruncateRunes(strings.TrimSpace(caption), MaxCaptionLength)
}
