// Package textutil provides small text helpers for display and file naming.
package textutil

import (
	"fmt"
	"regexp"
)

var invalidFilenameChars = regexp.MustCompile(`[\\/*?:"<>|]`)

// CleanFilename replaces characters that are invalid in file names with
// underscores.
func CleanFilename(name string) string {
	return invalidFilenameChars.ReplaceAllString(name, "_")
}

// Truncate shortens text to at most maxLen runes, appending an ellipsis
// when anything was cut.
func Truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// FormatBytes renders a byte count in human readable form.
func FormatBytes(n int64) string {
	value := float64(n)
	for _, unit := range []string{"B", "KB", "MB", "GB", "TB"} {
		if value < 1024 {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.2f PB", value)
}
